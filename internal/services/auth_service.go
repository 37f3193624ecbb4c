// Package services – AuthService
//
// This file implements account registration and login. Passwords are
// bcrypt-hashed (over a SHA-256 prehash, see internal/auth), tokens are
// signed HS256 JWTs, and login failures are deliberately indistinguishable
// between unknown email and wrong password.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mindmate-labs/go-mindmate-backend/internal/auth"
	"github.com/mindmate-labs/go-mindmate-backend/internal/domain"
	"github.com/mindmate-labs/go-mindmate-backend/internal/repo"
)

// UserRepo defines the persistence contract required by AuthService.
type UserRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
}

// AuthResult carries the issued token together with the account it
// belongs to.
type AuthResult struct {
	Token string
	User  *domain.User
}

// AuthService implements registration and credential verification on top
// of the user repository and the JWT token service.
type AuthService struct {
	DB     *gorm.DB
	Repo   UserRepo
	Tokens *auth.TokenService
}

// Register creates an account and immediately issues a token for it.
// Email is lowercased and trimmed before the uniqueness check so casing
// variants cannot create duplicate accounts.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	email = normalizeEmail(email)

	if _, err := s.Repo.GetUserByEmail(ctx, s.DB, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, strings.TrimSpace(name), email, hash)
	if err != nil {
		// A concurrent registration can slip past the lookup above; the
		// unique index is the real guard.
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Login verifies the credentials and issues a fresh token. Unknown email
// and wrong password both collapse to ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	u, err := s.Repo.GetUserByEmail(ctx, s.DB, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

// normalizeEmail canonicalizes an address for lookup and storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
