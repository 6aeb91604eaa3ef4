package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/oklog/ulid/v2"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrUserNotFound = errors.New("user not found")
)

// User is an account that owns subscriptions.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore is the persistence port for accounts; the SQLite repository
// implements it.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// Service wires registration, login and session lifecycle together.
type Service struct {
	users      UserStore
	jwt        *JWTManager
	sessions   SessionStore
	sessionTTL time.Duration
}

func NewService(users UserStore, jwt *JWTManager, sessions SessionStore, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		jwt:        jwt,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// Tokens is the pair returned by Login and Register.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Register creates an account and logs it in.
func (s *Service) Register(ctx context.Context, email, password, name string) (User, Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return User{}, Tokens{}, ErrInvalidEmail
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return User{}, Tokens{}, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, Tokens{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, Tokens{}, err
	}

	user := User{
		ID:           ulid.Make().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return User{}, Tokens{}, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return User{}, Tokens{}, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID)
	return user, tokens, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (User, Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same failure as a wrong password so probes can't tell
			// registered emails apart.
			return User{}, Tokens{}, ErrInvalidCredentials
		}
		return User{}, Tokens{}, fmt.Errorf("get user: %w", err)
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return User{}, Tokens{}, err
	}

	tokens, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return User{}, Tokens{}, err
	}
	return user, tokens, nil
}

// Refresh exchanges a valid refresh session for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.sessions.Verify(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	access, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return "", err
	}
	return access, nil
}

// Logout revokes the refresh session. Access tokens simply age out.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Revoke(ctx, refreshToken)
}

// ValidateAccessToken resolves a bearer token to a user ID.
func (s *Service) ValidateAccessToken(token string) (string, error) {
	return s.jwt.ValidateAccessToken(token)
}

func (s *Service) issueTokens(ctx context.Context, userID string) (Tokens, error) {
	access, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.sessions.Create(ctx, userID, s.sessionTTL)
	if err != nil {
		return Tokens{}, fmt.Errorf("create session: %w", err)
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}
