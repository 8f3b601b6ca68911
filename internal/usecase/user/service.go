package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

// ErrInvalidCredentials is returned by Login for an unknown username or a wrong password
var ErrInvalidCredentials = errors.New("invalid username or password")

// TokenIssuer signs bearer tokens for authenticated users
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

// Session is the result of a successful login
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// UserService handles registration and authentication
type UserService struct {
	UserRepo domain.UserRepository
	Tokens   TokenIssuer
	HashCost int
	Now      func() time.Time
}

// NewUserService creates a new UserService instance
func NewUserService(userRepo domain.UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Tokens:   tokens,
		HashCost: bcrypt.DefaultCost,
		Now:      time.Now,
	}
}

// Register creates a new user with a bcrypt-hashed password.
// A taken username yields *domain.ConflictError from the repository.
func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if err := domain.ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
		CreatedAt:    s.Now().UTC(),
	}

	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and issues a bearer token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.UserRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.UserRepo.GetByID(ctx, id)
}
