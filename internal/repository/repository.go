package repository

import (
	"context"
	"database/sql"
	"errors"

	"inventory_manager/internal/models"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// Authorization is the user store the auth flow depends on. Lookups return
// (nil, nil) when no row matches.
type Authorization interface {
	Create(ctx context.Context, username, hash, role string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id int, hash string) error
}

type Repository struct {
	Auth Authorization
}

// NewRepository binds repositories to db. driver selects placeholder syntax.
func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{
		Auth: NewUserRepository(db, driver),
	}
}
