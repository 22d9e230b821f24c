package service

import (
	"context"

	"users_api/internal/auth"
	"users_api/internal/logger"
	"users_api/internal/models"
	"users_api/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, in SignUpInput) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (auth.Claims, error)
}

// Users is the user lookup gateway.
type Users interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	HealthCheck() HealthStatus
}

// AuditLog exposes the append-only access audit trail.
type AuditLog interface {
	Record(ctx context.Context, e models.AccessEvent) error
	List(ctx context.Context, f AuditFilter) ([]models.AccessEvent, error)
}

// AccessRecorder receives authorization and authentication decisions.
type AccessRecorder interface {
	Record(ctx context.Context, e models.AccessEvent) error
}

type Service struct {
	Users
	AuditLog
	Authorization
}

func NewService(repos *repository.Repository, authCfg AuthConfig, log *logger.Logger) *Service {
	audit := NewAuditService(repos.Audit)
	return &Service{
		Users:         NewUsersService(repos.Users),
		AuditLog:      audit,
		Authorization: NewAuthService(repos.Users, authCfg, audit, log),
	}
}

// recordAccess hands e to rec. Failures are logged and otherwise ignored so
// the audit trail never changes a request's outcome.
func recordAccess(ctx context.Context, rec AccessRecorder, log *logger.Logger, e models.AccessEvent) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, e); err != nil && log != nil {
		log.Warnw("audit_record_failed", "err", err, "type", e.Type, "username", e.Username)
	}
}
