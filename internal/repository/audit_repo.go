package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"users_api/internal/models"

	"github.com/google/uuid"
)

type AuditSQLite struct {
	db *sql.DB
}

func NewAuditSQLite(db *sql.DB) *AuditSQLite { return &AuditSQLite{db: db} }

var _ AuditRepo = (*AuditSQLite)(nil)

const (
	insertAccessEventSQL = `INSERT INTO access_events (id, occurred_at, type, username, resource, message, meta) VALUES (?, ?, ?, ?, ?, ?, ?)`
	selectAccessEventSQL = `SELECT id, occurred_at, type, username, resource, message, meta FROM access_events`
)

// Append inserts a new event. If EventID or OccurredAt are empty, they’re set.
func (r *AuditSQLite) Append(ctx context.Context, e models.AccessEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var metaPtr *string
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for event %s: %w", e.EventID, err)
		}
		s := string(b)
		metaPtr = &s
	}

	_, err := r.db.ExecContext(ctx, insertAccessEventSQL,
		e.EventID,
		e.OccurredAt,
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Username,
		e.Resource,
		e.Description,
		metaPtr,
	)
	if err != nil {
		return fmt.Errorf("insert access event %s: %w", e.EventID, err)
	}
	return nil
}

// List returns events matching q, ordered by occurred_at ASC.
func (r *AuditSQLite) List(ctx context.Context, q AuditQuery) ([]models.AccessEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !q.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, q.From.UTC())
	}
	if !q.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, q.To.UTC())
	}
	if typ := strings.ToUpper(strings.TrimSpace(q.Type)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if u := strings.TrimSpace(q.Username); u != "" {
		conds = append(conds, "username = ? COLLATE NOCASE")
		args = append(args, u)
	}

	stmt := selectAccessEventSQL
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	stmt += " ORDER BY occurred_at ASC"
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select access events: %w", err)
	}
	defer rows.Close()

	out := make([]models.AccessEvent, 0, 64)
	for rows.Next() {
		var (
			ev       models.AccessEvent
			resource sql.NullString
			metaStr  sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Username, &resource, &ev.Description, &metaStr); err != nil {
			return nil, fmt.Errorf("scan access event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.Resource = resource.String

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access events: %w", err)
	}
	return out, nil
}
