// model/registration.go
package model

import "time"

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "Pending"
	RegistrationApproved RegistrationStatus = "Approved"
	RegistrationRejected RegistrationStatus = "Rejected"
)

type Registration struct {
	ID            int64              `json:"register_id"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	PasswordHash  string             `json:"-"`
	RequestedRole string             `json:"requested_role"`
	Status        RegistrationStatus `json:"status"`
	RegisterDate  time.Time          `json:"register_date"`
	UpdatedDate   time.Time          `json:"updated_date"`
}
