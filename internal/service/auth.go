package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/memotag/memotag-server/internal/errors"
	"github.com/memotag/memotag-server/internal/session"
	"github.com/memotag/memotag-server/internal/util"
)

// AuthService checks the shared admin password and mints sessions. There
// is a single admin identity; the payload carries the role so handlers do
// not need to know how sessions are stored.
type AuthService struct {
	passwordHash  string // bcrypt, preferred
	plainPassword string // development fallback
	sessions      *session.Manager
}

func NewAuthService(passwordHash, plainPassword string, sessions *session.Manager) *AuthService {
	return &AuthService{
		passwordHash:  passwordHash,
		plainPassword: plainPassword,
		sessions:      sessions,
	}
}

// Login verifies the password and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", apperrors.InvalidCredentials()
	}

	if !s.verify(password) {
		log.Warn().Msg("admin login failed")
		return "", apperrors.InvalidCredentials()
	}

	token, err := s.sessions.CreateSession(ctx, "admin", session.Payload{
		"username": "admin",
		"role":     "admin",
	})
	if err != nil {
		return "", err
	}

	log.Info().Msg("admin logged in")
	return token, nil
}

func (s *AuthService) verify(password string) bool {
	if s.passwordHash != "" {
		return util.CheckPasswordHash(password, s.passwordHash)
	}
	return util.ConstantTimeEqual(password, s.plainPassword)
}

// Logout discards the session. Always succeeds; a store failure only
// shows up in the logs and the entry expires by TTL anyway.
func (s *AuthService) Logout(ctx context.Context, token string) {
	s.sessions.DeleteSession(ctx, token)
	log.Info().Msg("admin logged out")
}
