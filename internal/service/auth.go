package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	AccessTokenTTL    = 24 * time.Hour
	minPasswordLength = 6
)

type AuthService struct {
	Store     Store
	JWTSecret []byte
	Log       *slog.Logger
}

func NewAuthService(store Store, secret []byte, log *slog.Logger) *AuthService {
	return &AuthService{Store: store, JWTSecret: secret, Log: logger(log)}
}

type LoginResult struct {
	User        *models.User
	AccessToken string
	AccessExp   time.Time
}

func (s *AuthService) issue(u *models.User) (*LoginResult, error) {
	exp := time.Now().Add(AccessTokenTTL)
	token, err := tokens.NewAccessToken(u.Role, u.ID.String(), exp, s.JWTSecret)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: u, AccessToken: token, AccessExp: exp}, nil
}

func (s *AuthService) createUser(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Username: username, PasswordHash: pwHash, Role: role}
	err = s.Store.CreateUser(ctx, u)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: user already exists", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*LoginResult, error) {
	if _, err := s.Store.GetUserByUsername(ctx, strings.TrimSpace(username)); err == nil {
		return nil, fmt.Errorf("%w: user already exists", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	u, err := s.createUser(ctx, username, password, tokens.RoleUser)
	if err != nil {
		return nil, err
	}
	s.Log.Info("user_registered", "user_id", u.ID.String())
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.Store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	return s.issue(u)
}

// EnsureAdmin creates the bootstrap admin account unless the username is
// already taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.Store.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	u, err := s.createUser(ctx, username, password, tokens.RoleAdmin)
	if err != nil {
		return err
	}
	s.Log.Info("admin_bootstrapped", "user_id", u.ID.String(), "username", u.Username)
	return nil
}
