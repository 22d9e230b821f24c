package repository

import (
	"context"
	"database/sql"
	"time"

	"users_api/internal/models"
)

// Users is the user store. FindOneByUsername returns (nil, nil) when no
// user matches.
type Users interface {
	FindAll(ctx context.Context) ([]models.User, error)
	FindOneByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u models.User, passwordHash string) (int, error)
}

// AuditQuery filters audit events. Zero values disable a filter.
type AuditQuery struct {
	From     time.Time // inclusive
	To       time.Time // inclusive
	Type     string
	Username string
	Limit    int
}

type AuditRepo interface {
	Append(ctx context.Context, e models.AccessEvent) error
	List(ctx context.Context, q AuditQuery) ([]models.AccessEvent, error)
}

type Repository struct {
	Users Users
	Audit AuditRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users: NewUserSQLite(db),
		Audit: NewAuditSQLite(db),
	}
}
