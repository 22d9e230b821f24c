package handlers

import (
	"errors"
	"net/http"

	"users_api/internal/auth"
	"users_api/internal/models"
	"users_api/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errAccessDenied   = "no access for requested entity"
	errMissingAuthCtx = "authentication context missing"
	errLoadUser       = "failed to load user"
	errLoadUsers      = "failed to load users"
	errUserNotFound   = "user not found"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  service.HealthStatus
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.HealthCheck())
}

// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {array}   models.User
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users [get]
// @Security     BearerAuth
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.services.ListUsers(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadUsers, "users_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary      Get a user
// @Description  Callers may only read their own record; the path username is compared case-insensitively with the token's username claim.
// @Tags         users
// @Produce      json
// @Param        username  path  string  true  "Username"
// @Success      200  {object}  models.User
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users/{username} [get]
// @Security     BearerAuth
func (h *Handler) getUser(c *gin.Context) {
	username := c.Param("username")

	u, err := h.services.GetUserByUsername(c.Request.Context(), username)
	h.auditLookup(c, username, err)
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		if h.log != nil {
			h.log.Infow("users_get_denied", "username", username)
		}
		c.JSON(http.StatusForbidden, gin.H{"error": errAccessDenied})
		return
	case errors.Is(err, service.ErrMissingAuthContext):
		h.logAndJSONError(c, http.StatusInternalServerError, errMissingAuthCtx, "users_get_no_claims", err, "username", username)
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadUser, "users_get_failed", err, "username", username)
		return
	case u == nil:
		c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
		return
	}
	c.JSON(http.StatusOK, u)
}

// auditLookup records the authorization outcome of a /users/:username
// request. Lookups without claims never reached the check and are skipped.
// Audit failures are logged and do not change the response.
func (h *Handler) auditLookup(c *gin.Context, username string, lookupErr error) {
	if h.services.AuditLog == nil || errors.Is(lookupErr, service.ErrMissingAuthContext) {
		return
	}
	claims, ok := auth.FromContext(c.Request.Context())
	if !ok {
		return
	}

	e := models.AccessEvent{
		Type:        models.EventAccessGranted,
		Username:    claims.Username,
		Resource:    "/users/" + username,
		Description: "own record lookup",
	}
	if errors.Is(lookupErr, service.ErrAccessDenied) {
		e.Type = models.EventAccessDenied
		e.Description = "lookup of another user's record rejected"
	}
	if err := h.services.AuditLog.Record(c.Request.Context(), e); err != nil && h.log != nil {
		h.log.Warnw("audit_record_failed", "err", err, "type", e.Type, "username", e.Username)
	}
}
