package seeder

import (
	"context"
	"strings"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

// Registrar creates users with hashed passwords
type Registrar interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
}

// BootstrapUser is an account guaranteed to exist after seeding
type BootstrapUser struct {
	Username string
	Password string
}

// UserSeeder ensures the configured bootstrap users exist
type UserSeeder struct {
	repo      domain.UserRepository
	registrar Registrar
}

// NewUserSeeder creates a new UserSeeder instance
func NewUserSeeder(repo domain.UserRepository, registrar Registrar) *UserSeeder {
	return &UserSeeder{
		repo:      repo,
		registrar: registrar,
	}
}

// Seed registers every bootstrap user that does not exist yet.
// Existing users are left untouched, including their password.
// Returns the number of users created.
func (s *UserSeeder) Seed(ctx context.Context, users []BootstrapUser) (int, error) {
	created := 0
	for _, u := range users {
		if strings.TrimSpace(u.Username) == "" {
			continue
		}

		_, err := s.repo.GetByUsername(ctx, strings.TrimSpace(u.Username))
		if err == nil {
			continue
		}
		if !domain.IsNotFound(err) {
			return created, err
		}

		if _, err := s.registrar.Register(ctx, u.Username, u.Password); err != nil {
			// Lost a race with a concurrent registration of the same name
			if domain.IsConflict(err) {
				continue
			}
			return created, err
		}
		created++
	}

	return created, nil
}
