package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"users_api/internal/auth"
	"users_api/internal/models"
	"users_api/internal/repository"
)

const (
	healthStatusOK = "OK"
	serviceName    = "users-api"
)

var (
	// ErrMissingAuthContext means no claims were attached to the request
	// context. The authentication middleware did not run; this is a
	// deployment fault, not a caller error.
	ErrMissingAuthContext = errors.New("did not receive required data from JWT token")
	// ErrAccessDenied means the caller is authenticated but asked for
	// another user's record.
	ErrAccessDenied = errors.New("no access for requested entity")
)

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// UsersService reads user records on behalf of an authenticated caller. It
// performs no writes of its own.
type UsersService struct {
	repo repository.Users
	now  func() time.Time
}

func NewUsersService(repo repository.Users) *UsersService {
	return &UsersService{
		repo: repo,
		now:  time.Now,
	}
}

// GetUserByUsername returns username's record if and only if the claims on
// ctx name the same user, compared case-insensitively. The repository is not
// consulted on rejection. Its result, including (nil, nil) for an unknown
// user, is returned unchanged.
func (s *UsersService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrMissingAuthContext
	}

	if !strings.EqualFold(username, claims.Username) {
		return nil, ErrAccessDenied
	}

	return s.repo.FindOneByUsername(ctx, username)
}

// ListUsers returns every user in repository order. It applies no
// per-caller filtering.
func (s *UsersService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.FindAll(ctx)
}

func (s *UsersService) HealthCheck() HealthStatus {
	return HealthStatus{
		Status:    healthStatusOK,
		Service:   serviceName,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	}
}
