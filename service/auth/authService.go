package authsvc

import (
	"context"
	"errors"

	"github.com/Zedts/backend-digital-library/model"
	"github.com/Zedts/backend-digital-library/util/hash"
	jwtutil "github.com/Zedts/backend-digital-library/util/jwt"
)

var ErrInvalidCreds = errors.New("invalid credentials")

type Users interface {
	ByEmail(ctx context.Context, email string) (*model.User, error)
}

type Service interface {
	Login(ctx context.Context, req model.LoginReq, secret string) (*model.User, string, error)
}

type service struct{ ur Users }

func New(ur Users) Service { return &service{ur} }

func (s *service) Login(ctx context.Context, req model.LoginReq, secret string) (*model.User, string, error) {
	u, err := s.ur.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", ErrInvalidCreds
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}
	token, err := jwtutil.Issue(secret, u.ID, u.Role, 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
