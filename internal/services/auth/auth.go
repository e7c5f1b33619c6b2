// Package auth implements user registration and login on top of bcrypt
// password hashing and JWT token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkravtsov/subtrack/internal/lib/jwt"
	"github.com/mkravtsov/subtrack/internal/lib/password"
	"github.com/mkravtsov/subtrack/internal/models"
	"github.com/mkravtsov/subtrack/internal/storage/repository"
)

// ErrInvalidCredentials covers both unknown email and wrong password, so a
// login response cannot distinguish which one failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository defines the storage methods used by the service.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service handles registration and authentication.
type Service struct {
	repo  UserRepository
	maker jwt.Maker
	log   *slog.Logger
}

// NewService creates an auth Service.
func NewService(repo UserRepository, maker jwt.Maker, log *slog.Logger) *Service {
	return &Service{repo: repo, maker: maker, log: log}
}

// Register hashes the password and stores a new user, returning its uid.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	const op = "auth.Register"

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.repo.RegisterUser(ctx, models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered new user", slog.String("uid", uid))
	return uid, nil
}

// Login verifies the credentials and returns a signed JWT.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	const op = "auth.Login"

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.maker.GenerateToken(user.UID, user.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}
