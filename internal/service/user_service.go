package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mgtrako/internal/cache"
	apperrors "mgtrako/internal/errors"
	"mgtrako/internal/model"
	"mgtrako/internal/policy"
	"mgtrako/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes user lookups and role administration.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, actor policy.Actor) ([]model.User, error)
	UpdateRole(ctx context.Context, actor policy.Actor, id uuid.UUID, role string) (*model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

// GetUser is called on every authenticated request, so results are cached
// until the user's role changes.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", id.String())
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	_ = s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, actor policy.Actor) ([]model.User, error) {
	if !policy.CanManageUsers(actor) {
		return nil, apperrors.ErrForbidden
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor policy.Actor, id uuid.UUID, role string) (*model.User, error) {
	if !policy.CanManageUsers(actor) {
		return nil, apperrors.ErrForbidden
	}

	parsed, ok := model.ParseRole(strings.TrimSpace(role))
	if !ok {
		return nil, apperrors.NewValidationError("role", "must be one of "+roleList())
	}

	if err := s.repo.UpdateRole(ctx, id, parsed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", id.String())
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	return s.GetUser(ctx, id)
}

func roleList() string {
	roles := model.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
