package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"users_api/internal/models"
	"users_api/internal/repository"
)

// AuditFilter supports history filtering by time range, type and principal.
type AuditFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", "ACCESS_GRANTED", "ACCESS_DENIED", "SIGN_IN", "SIGN_UP"
	Username string
	Limit    int // 0 means no limit
}

type AuditService struct {
	auditRepo repository.AuditRepo
}

func NewAuditService(auditRepo repository.AuditRepo) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errEventTypeMissing = errors.New("audit event type is required")
	errNegativeLimit    = errors.New("limit must be >= 0")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f AuditFilter) (repository.AuditQuery, error) {
	q := repository.AuditQuery{
		From:     normalizeToUTC(f.From),
		To:       normalizeToUTC(f.To),
		Type:     normalizeEventType(f.Type),
		Username: strings.TrimSpace(f.Username),
		Limit:    f.Limit,
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return repository.AuditQuery{}, errInvalidTimeRange
	}
	if q.Limit < 0 {
		return repository.AuditQuery{}, errNegativeLimit
	}
	return q, nil
}

// Record appends e; the repository fills in the ID and timestamp.
func (s *AuditService) Record(ctx context.Context, e models.AccessEvent) error {
	e.Type = normalizeEventType(e.Type)
	if e.Type == "" {
		return errEventTypeMissing
	}
	return s.auditRepo.Append(ctx, e)
}

func (s *AuditService) List(ctx context.Context, f AuditFilter) ([]models.AccessEvent, error) {
	q, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.auditRepo.List(ctx, q)
}

// IsValidationError reports whether err came from filter validation.
func IsValidationError(err error) bool {
	return errors.Is(err, errInvalidTimeRange) || errors.Is(err, errNegativeLimit)
}
