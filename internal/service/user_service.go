package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// UserService manages the named user records that tickets reference.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Create registers a new user with a unique username.
func (s *UserService) Create(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, util.NewValidationError("username is required", nil)
	}
	user := &domain.User{Username: username}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}
	return user, nil
}

// List returns all users ordered by id.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Exists reports whether the user id references an existing record.
func (s *UserService) Exists(ctx context.Context, id int64) (bool, error) {
	return s.users.Exists(ctx, id)
}
