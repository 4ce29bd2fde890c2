package service

import (
	"errors"

	"github.com/aDarkMaker/JoinUs/internal/auth"
)

var (
	ErrAuthDisabled       = errors.New("admin login is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService issues admin tokens for the export and listing endpoints.
type AuthService struct {
	passwordHash string
	jwtSecret    string
}

// NewAuthService hashes adminPass once at startup. An empty password
// disables login.
func NewAuthService(adminPass, jwtSecret string) (*AuthService, error) {
	s := &AuthService{jwtSecret: jwtSecret}
	if adminPass == "" {
		return s, nil
	}
	hash, err := auth.HashPassword(adminPass)
	if err != nil {
		return nil, err
	}
	s.passwordHash = hash
	return s, nil
}

func (s *AuthService) Enabled() bool {
	return s.passwordHash != ""
}

type AuthResult struct {
	Token string `json:"token"`
}

func (s *AuthService) Login(password string) (*AuthResult, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}
	if !auth.CheckPassword(password, s.passwordHash) {
		return nil, ErrInvalidCredentials
	}
	token, err := auth.GenerateToken(s.jwtSecret, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token}, nil
}
