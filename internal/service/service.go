package service

import (
	"context"

	"inventory_manager/internal/config"
	"inventory_manager/internal/logger"
	"inventory_manager/internal/models"
	"inventory_manager/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (Identity, error)
	Profile(ctx context.Context, userID int) (*models.User, error)
	ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
}

// NewService wires the repository layer and the credential hasher into
// concrete services.
func NewService(repos *repository.Repository, hasher PasswordHasher, cfg config.Auth, log *logger.Logger) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Auth, hasher, cfg, log),
	}
}
