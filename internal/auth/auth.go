// Package auth is the local identity provider. The rest of the system
// consumes nothing from it except the opaque user identifier string.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gym-occupancy-backend/config"
	"gym-occupancy-backend/internal/model"
)

var (
	// ErrEmailExists is returned by Signup for an already-registered email.
	ErrEmailExists = errors.New("auth: email already registered")
	// ErrInvalidCredentials is returned by Signin on a bad email/password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidInput is returned when email or password is missing.
	ErrInvalidInput = errors.New("auth: email and password are required")
)

// Service creates accounts and verifies credentials.
type Service struct {
	db  *gorm.DB
	cfg config.AuthConfig
}

// NewService creates an auth Service.
func NewService(db *gorm.DB, cfg config.AuthConfig) *Service {
	return &Service{db: db, cfg: cfg}
}

// Result carries the opaque user id plus a bearer token for it.
type Result struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// Signup creates a new account and signs it in.
func (s *Service) Signup(ctx context.Context, email, password string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	account := model.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return s.issue(account)
}

// Signin verifies credentials and returns the user id with a fresh token.
func (s *Service) Signin(ctx context.Context, email, password string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	var account model.Account
	err := s.db.WithContext(ctx).First(&account, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(account)
}

func (s *Service) issue(account model.Account) (*Result, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": account.ID,
		"iat": now.Unix(),
		"exp": now.Add(time.Duration(s.cfg.TokenTTLMinutes) * time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &Result{UserID: account.ID, Email: account.Email, Token: token}, nil
}
