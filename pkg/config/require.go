package config

import (
	"errors"
	"fmt"
)

var ErrMissingEnv = errors.New("missing required env")

// Require reports every missing mandatory setting at once.
func (c Config) Require() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("%w %s", ErrMissingEnv, "DATABASE_URL"))
	}
	if len(c.JWTAccessSecret) == 0 {
		errs = append(errs, fmt.Errorf("%w %s", ErrMissingEnv, "JWT_SECRET"))
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, fmt.Errorf("%w %s", ErrMissingEnv, "ADMIN_USERNAME/ADMIN_PASSWORD pair"))
	}
	return errors.Join(errs...)
}
