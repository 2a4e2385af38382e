package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory_manager/internal/config"
	"inventory_manager/internal/credential"
	"inventory_manager/internal/logger"
	"inventory_manager/internal/models"
	"inventory_manager/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const maxUsernameLength = 64

// Domain errors for auth flows.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

// PasswordHasher is the credential capability the auth flow needs.
// *credential.Multi implements it.
type PasswordHasher interface {
	credential.Hasher
	NeedsRehash(stored credential.Stored) bool
	VerifyDummy(secret []byte)
}

// Identity is what an access token asserts about its bearer.
type Identity struct {
	UserID   int
	Username string
	Role     string
}

// AuthService handles user auth logic
type AuthService struct {
	authRepo repository.Authorization
	hasher   PasswordHasher
	cfg      config.Auth
	log      *logger.Logger
	now      func() time.Time
}

func NewAuthService(repo repository.Authorization, hasher PasswordHasher, cfg config.Auth, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{authRepo: repo, hasher: hasher, cfg: cfg, log: log, now: time.Now}
}

// SignUp registers a self-service account. The role is always the
// configured default.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	return s.CreateUser(ctx, username, password, s.cfg.DefaultRole)
}

// CreateUser hashes password and creates a user with role. An empty role
// gets the configured default. It is the operator path and is not exposed
// over HTTP.
func (s *AuthService) CreateUser(ctx context.Context, username, password, role string) (int, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return 0, err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return 0, err
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = s.cfg.DefaultRole
	}

	id, err := s.authRepo.Create(ctx, username, string(hash), role)
	if err != nil {
		return 0, err
	}
	s.log.Infow("auth_user_created", "user_id", id, "username", username, "role", role)
	return id, nil
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GenerateToken validates credentials and returns JWT.
//
// Unknown users and wrong passwords both yield ErrInvalidCredentials after
// the same amount of hashing work. A repository failure is returned wrapped
// and no verification is attempted.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.authRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", fmt.Errorf("lookup credentials: %w", err)
	}
	if u == nil {
		s.hasher.VerifyDummy([]byte(password))
		return "", ErrInvalidCredentials
	}

	stored := credential.Stored(u.PasswordHash)
	if !s.hasher.Verify([]byte(password), stored) {
		return "", ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(stored) {
		s.rehash(ctx, u.ID, password)
	}

	return s.issueToken(u)
}

// rehash upgrades a stored credential to the current algorithm. Failure
// leaves the old value in place.
func (s *AuthService) rehash(ctx context.Context, userID int, password string) {
	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		s.log.Warnw("auth_rehash_failed", "user_id", userID, "err", err)
		return
	}
	if err := s.authRepo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		s.log.Warnw("auth_rehash_failed", "user_id", userID, "err", err)
		return
	}
	s.log.Infow("auth_credential_upgraded", "user_id", userID)
}

// ParseToken parses JWT and returns the identity it carries.
func (s *AuthService) ParseToken(accessToken string) (Identity, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.SigningKey), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

// Profile returns the stored account for userID.
func (s *AuthService) Profile(ctx context.Context, userID int) (*models.User, error) {
	u, err := s.authRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ChangePassword replaces the password of userID after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.VerifyDummy([]byte(oldPassword))
			return ErrInvalidCredentials
		}
		return err
	}
	if !s.hasher.Verify([]byte(oldPassword), credential.Stored(u.PasswordHash)) {
		return ErrInvalidCredentials
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.authRepo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}
	s.log.Infow("auth_password_changed", "user_id", userID)
	return nil
}

// helper: apply password policy then hash
func (s *AuthService) hashPassword(password string) (credential.Stored, error) {
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("%w: password is empty", ErrWeakPassword)
	}
	if len(password) < s.cfg.MinPasswordLength {
		return "", fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, s.cfg.MinPasswordLength)
	}
	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		if errors.Is(err, credential.ErrSecretTooLong) {
			return "", fmt.Errorf("%w: %v", ErrWeakPassword, err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(u *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
	return token.SignedString([]byte(s.cfg.SigningKey))
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is empty", ErrInvalidUsername)
	}
	if len(username) > maxUsernameLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, maxUsernameLength)
	}
	return username, nil
}
