package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"streamfusion/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBanned             = errors.New("account is banned")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRegistrationClosed = errors.New("registration is disabled")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// MinPasswordLength matches the sign-up form.
const MinPasswordLength = 6

// UserStore is the subset of storage the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u storage.User) (storage.User, error)
	GetUser(ctx context.Context, id string) (storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
}

// Result is a signed-in user and their token.
type Result struct {
	User  storage.User `json:"user"`
	Token string       `json:"token"`
}

// Service registers and signs in users.
type Service struct {
	store          UserStore
	secret         []byte
	ttl            time.Duration
	bootstrapEmail string
	logger         zerolog.Logger
}

// NewService creates the auth service. A user registering with
// bootstrapEmail is given the admin role.
func NewService(store UserStore, secret []byte, ttl time.Duration, bootstrapEmail string, logger zerolog.Logger) *Service {
	return &Service{
		store:          store,
		secret:         secret,
		ttl:            ttl,
		bootstrapEmail: strings.ToLower(strings.TrimSpace(bootstrapEmail)),
		logger:         logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, email, displayName, password string) (Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Result{}, ErrInvalidCredentials
	}
	if len(password) < MinPasswordLength {
		return Result{}, ErrWeakPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Result{}, err
	}

	role := storage.RoleUser
	if s.bootstrapEmail != "" && email == s.bootstrapEmail {
		role = storage.RoleAdmin
	}

	u, err := s.store.CreateUser(ctx, storage.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		Role:         role,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return Result{}, ErrEmailTaken
	}
	if err != nil {
		return Result{}, err
	}

	s.logger.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("user registered")
	return s.issue(u)
}

// Login checks credentials and issues a token carrying the user's roles.
func (s *Service) Login(ctx context.Context, email, password string) (Result, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return Result{}, ErrInvalidCredentials
	}
	if err != nil {
		return Result{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return Result{}, ErrInvalidCredentials
	}
	if u.IsBanned {
		return Result{}, ErrBanned
	}
	return s.issue(u)
}

// Me returns the current account behind a set of claims. Banned users lose
// access even with a token that has not expired yet.
func (s *Service) Me(ctx context.Context, claims *Claims) (storage.User, error) {
	u, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return storage.User{}, err
	}
	if u.IsBanned {
		return storage.User{}, ErrBanned
	}
	return u, nil
}

func (s *Service) issue(u storage.User) (Result, error) {
	token, err := Issue(s.secret, Claims{UserID: u.ID, Email: u.Email, Roles: RolesFor(u)}, s.ttl)
	if err != nil {
		return Result{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return Result{User: u, Token: token}, nil
}

// RolesFor lists the token roles for a user.
func RolesFor(u storage.User) []string {
	if u.IsAdmin() {
		return []string{storage.RoleUser, storage.RoleAdmin}
	}
	return []string{storage.RoleUser}
}

// HashPassword hashes with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
