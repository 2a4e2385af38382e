// auth_repo_test.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"inventory_manager/internal/models"
	"inventory_manager/internal/repository/db"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T, driver string) (*UserRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	repo := NewUserRepository(conn, driver)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = conn.Close()
	}
	return repo, mock, cleanup
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name           string
		username       string
		passwordHash   string
		role           string
		mockExpect     func(sqlmock.Sqlmock)
		wantID         int
		wantErr        bool
		errContainsStr string
	}{
		{
			name:         "success",
			username:     "alice",
			passwordHash: "h123",
			role:         "admin",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(insertUserSQL)).
					WithArgs("alice", "h123", "admin").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
			},
			wantID:  42,
			wantErr: false,
		},
		{
			name:         "query error",
			username:     "bob",
			passwordHash: "h456",
			role:         "user",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(insertUserSQL)).
					WithArgs("bob", "h456", "user").
					WillReturnError(errors.New("db exec failed"))
			},
			wantID:         0,
			wantErr:        true,
			errContainsStr: "insert user",
		},
	}

	for _, tt := range tests {
		tt := tt // capture
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockRepo(t, db.DriverSQLite)
			defer cleanup()

			tt.mockExpect(mock)

			id, err := repo.Create(context.Background(), tt.username, tt.passwordHash, tt.role)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if tt.errContainsStr != "" && !strings.Contains(err.Error(), tt.errContainsStr) {
					t.Fatalf("expected error to contain %q, got %q", tt.errContainsStr, err.Error())
				}
				if id != 0 {
					t.Fatalf("expected id=0 on error, got %d", id)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID {
				t.Fatalf("unexpected id: want %d, got %d", tt.wantID, id)
			}
		})
	}
}

func TestUserRepository_PostgresPlaceholders(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t, db.DriverPostgres)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id`)).
		WithArgs("alice", "h", "user").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	if _, err := repo.Create(context.Background(), "alice", "h", "user"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	tests := []struct {
		name           string
		username       string
		mockExpect     func(sqlmock.Sqlmock)
		wantUser       *models.User
		wantErr        bool
		errContainsStr string
	}{
		{
			name:     "found",
			username: "alice",
			mockExpect: func(m sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "username", "role", "password_hash"}).
					AddRow(7, "alice", "cashier", "h123")
				m.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).
					WithArgs("alice").
					WillReturnRows(rows)
			},
			wantUser: &models.User{
				ID:           7,
				Username:     "alice",
				Role:         "cashier",
				PasswordHash: "h123",
			},
			wantErr: false,
		},
		{
			name:     "not found (ErrNoRows)",
			username: "missing",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).
					WithArgs("missing").
					WillReturnError(sql.ErrNoRows)
			},
			wantUser: nil,
			wantErr:  false,
		},
		{
			name:     "query error",
			username: "bob",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectUserByUsernameSQL)).
					WithArgs("bob").
					WillReturnError(errors.New("db query failed"))
			},
			wantUser:       nil,
			wantErr:        true,
			errContainsStr: "select user",
		},
	}

	for _, tt := range tests {
		tt := tt // capture
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockRepo(t, db.DriverSQLite)
			defer cleanup()

			tt.mockExpect(mock)

			u, err := repo.GetByUsername(context.Background(), tt.username)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if tt.errContainsStr != "" && !strings.Contains(err.Error(), tt.errContainsStr) {
					t.Fatalf("expected error to contain %q, got %q", tt.errContainsStr, err.Error())
				}
				if u != nil {
					t.Fatalf("expected user=nil on error, got %+v", u)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantUser == nil {
				if u != nil {
					t.Fatalf("expected nil user, got %+v", u)
				}
				return
			}
			if u == nil {
				t.Fatalf("expected user, got nil")
			}
			if *u != *tt.wantUser {
				t.Fatalf("unexpected user: want %+v, got %+v", tt.wantUser, u)
			}
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t, db.DriverSQLite)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByIDSQL)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "role", "password_hash"}).
			AddRow(3, "carol", "user", "h"))
	mock.ExpectQuery(regexp.QuoteMeta(selectUserByIDSQL)).
		WithArgs(4).
		WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByID(context.Background(), 3)
	if err != nil || u == nil || u.Username != "carol" {
		t.Fatalf("GetByID(3) = %+v, %v", u, err)
	}
	u, err = repo.GetByID(context.Background(), 4)
	if err != nil || u != nil {
		t.Fatalf("GetByID(4) = %+v, %v; want nil, nil", u, err)
	}
}

func TestUserRepository_UpdatePasswordHash(t *testing.T) {
	tests := []struct {
		name       string
		mockExpect func(sqlmock.Sqlmock)
		wantErrIs  error
		wantErr    bool
	}{
		{
			name: "updated",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(updatePasswordHashSQL)).
					WithArgs("new", 5).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "no such user",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(updatePasswordHashSQL)).
					WithArgs("new", 5).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:   true,
			wantErrIs: ErrUserNotFound,
		},
		{
			name: "exec error",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(updatePasswordHashSQL)).
					WithArgs("new", 5).
					WillReturnError(errors.New("disk full"))
			},
			wantErr: true,
		},
		{
			name: "rows affected error",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(updatePasswordHashSQL)).
					WithArgs("new", 5).
					WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockRepo(t, db.DriverSQLite)
			defer cleanup()
			tt.mockExpect(mock)

			err := repo.UpdatePasswordHash(context.Background(), 5, "new")
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if tt.wantErrIs != nil && !errors.Is(err, tt.wantErrIs) {
				t.Fatalf("expected %v, got %v", tt.wantErrIs, err)
			}
		})
	}
}

func TestUserRepository_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn, err := db.InitDB(ctx, db.Config{Driver: db.DriverSQLite, Path: filepath.Join(t.TempDir(), "users.db")})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()

	repo := NewRepository(conn, db.DriverSQLite).Auth

	id, err := repo.Create(ctx, "dave", "hash-1", "manager")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	if _, err := repo.Create(ctx, "dave", "hash-2", "user"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	if err := repo.UpdatePasswordHash(ctx, id, "hash-3"); err != nil {
		t.Fatalf("UpdatePasswordHash: %v", err)
	}

	u, err := repo.GetByUsername(ctx, "dave")
	if err != nil || u == nil {
		t.Fatalf("GetByUsername = %+v, %v", u, err)
	}
	want := models.User{ID: id, Username: "dave", Role: "manager", PasswordHash: "hash-3"}
	if *u != want {
		t.Fatalf("want %+v, got %+v", want, *u)
	}

	if u, err := repo.GetByUsername(ctx, "nobody"); err != nil || u != nil {
		t.Fatalf("expected (nil, nil) for unknown user, got %+v, %v", u, err)
	}
	if err := repo.UpdatePasswordHash(ctx, id+100, "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
