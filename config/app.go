package config

import "time"

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	// borrowing policy
	LoanPeriodDays       int `env:"LOAN_PERIOD_DAYS" default:"14"`
	DefaultExtensionDays int `env:"DEFAULT_EXTENSION_DAYS" default:"7"`

	// backing-store call discipline
	OpTimeout     time.Duration `env:"OP_TIMEOUT" default:"5s"`
	RetryAttempts int           `env:"RETRY_ATTEMPTS" default:"2"`
}
