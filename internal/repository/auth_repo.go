package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inventory_manager/internal/models"
	"inventory_manager/internal/repository/db"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type UserRepository struct {
	db      *sql.DB
	queries userQueries
}

type userQueries struct {
	insert, byUsername, byID, updateHash string
}

// NewUserRepository returns a repository using driver's placeholder syntax.
func NewUserRepository(conn *sql.DB, driver string) *UserRepository {
	return &UserRepository{
		db: conn,
		queries: userQueries{
			insert:     db.Rebind(driver, insertUserSQL),
			byUsername: db.Rebind(driver, selectUserByUsernameSQL),
			byID:       db.Rebind(driver, selectUserByIDSQL),
			updateHash: db.Rebind(driver, updatePasswordHashSQL),
		},
	}
}

// Ensure implementation of Authorization interface at compile time.
var _ Authorization = (*UserRepository)(nil)

const (
	insertUserSQL           = `INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?) RETURNING id`
	selectUserByUsernameSQL = `SELECT id, username, role, password_hash FROM users WHERE username = ?`
	selectUserByIDSQL       = `SELECT id, username, role, password_hash FROM users WHERE id = ?`
	updatePasswordHashSQL   = `UPDATE users SET password_hash = ? WHERE id = ?`
)

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash, role string) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, r.queries.insert, username, passwordHash, role).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", username, ErrUserExists)
		}
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	return id, nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) if not found.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := r.scanOne(ctx, r.queries.byUsername, username)
	if err != nil {
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return u, nil
}

// GetByID fetches a user by id. Returns (nil, nil) if not found.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, err := r.scanOne(ctx, r.queries.byID, id)
	if err != nil {
		return nil, fmt.Errorf("select user %d: %w", id, err)
	}
	return u, nil
}

// UpdatePasswordHash replaces the stored credential of user id.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, r.queries.updateHash, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password hash for user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for user %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update password hash for user %d: %w", id, ErrUserNotFound)
	}
	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
