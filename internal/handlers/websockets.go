package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"users_api/internal/models"
	"users_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
	maxStreamBatch   = 200
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // clients authenticate with a bearer token, not cookies
}

// auditCursor remembers the last delivered timestamp and the IDs already sent
// at that instant, because the store filters with an inclusive lower bound.
type auditCursor struct {
	from time.Time
	seen map[string]struct{}
}

func newAuditCursor(from time.Time) *auditCursor {
	return &auditCursor{from: from, seen: map[string]struct{}{}}
}

// advance drops already delivered events and moves the cursor past the rest.
// events must be ordered by OccurredAt ascending.
func (cur *auditCursor) advance(events []models.AccessEvent) []models.AccessEvent {
	fresh := make([]models.AccessEvent, 0, len(events))
	for _, ev := range events {
		if _, dup := cur.seen[ev.EventID]; dup {
			continue
		}
		switch {
		case ev.OccurredAt.After(cur.from):
			cur.from = ev.OccurredAt
			cur.seen = map[string]struct{}{ev.EventID: {}}
		case ev.OccurredAt.Equal(cur.from):
			cur.seen[ev.EventID] = struct{}{}
		}
		fresh = append(fresh, ev)
	}
	return fresh
}

// @Summary      Stream audit events
// @Description  WebSocket upgrade. Sends {"type":"events","data":[...]} with events newer than 'since' (default: connection time), then new events as they are recorded. Requires the ADMIN role.
// @Tags         audit
// @Param        since        query  string  false  "Start point (RFC3339 or YYYY-MM-DD)"
// @Param        interval     query  string  false  "Poll interval, e.g. 2s"
// @Param        interval_ms  query  int     false  "Poll interval in milliseconds"
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/audit/ws [get]
// @Security     BearerAuth
func (h *Handler) wsAuditStream(c *gin.Context) {
	interval := h.parseInterval(c)

	since := time.Now().UTC()
	if qs := c.Query("since"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'since' time"})
			return
		}
		since = t
	}
	cursor := newAuditCursor(since)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()

	// The first batch is always written, even when empty.
	if err := h.sendAuditEvents(ctx, conn, cursor, true); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendAuditEvents(ctx, conn, cursor, false); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendAuditEvents fetches events past the cursor and writes them. Empty
// batches are skipped unless always is set.
func (h *Handler) sendAuditEvents(ctx context.Context, conn *websocket.Conn, cursor *auditCursor, always bool) error {
	events, err := h.services.AuditLog.List(ctx, service.AuditFilter{From: cursor.from, Limit: maxStreamBatch})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_audit_list_failed", "err", err)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(wsEnvelope{Type: "error", Error: "failed to load audit events"})
		return err
	}
	fresh := cursor.advance(events)
	if len(fresh) == 0 && !always {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "events", Data: fresh})
}
