package handlers

import (
	"context"
	"net/http"
	"sync"

	"users_api/internal/auth"
	"users_api/internal/models"
	"users_api/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseClaims   auth.Claims
	parseErr      error

	lastSignUp      service.SignUpInput
	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) SignUp(ctx context.Context, in service.SignUpInput) (int, error) {
	m.lastSignUp = in
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (auth.Claims, error) {
	m.lastParseToken = token
	return m.parseClaims, m.parseErr
}

// usersRepoStub satisfies repository.Users so handler tests run the real
// lookup gateway.
type usersRepoStub struct {
	all    []models.User
	allErr error
	byName map[string]*models.User
	oneErr error

	findAllCalls int
	findOneCalls []string
}

func (r *usersRepoStub) FindAll(ctx context.Context) ([]models.User, error) {
	r.findAllCalls++
	return r.all, r.allErr
}

func (r *usersRepoStub) FindOneByUsername(ctx context.Context, username string) (*models.User, error) {
	r.findOneCalls = append(r.findOneCalls, username)
	if r.oneErr != nil {
		return nil, r.oneErr
	}
	return r.byName[username], nil
}

func (r *usersRepoStub) Create(ctx context.Context, u models.User, hash string) (int, error) {
	return 0, nil
}

type mockAuditLog struct {
	mu        sync.Mutex
	resp      []models.AccessEvent
	err       error
	recordErr error
	filters   []service.AuditFilter
	recorded  []models.AccessEvent
}

func (m *mockAuditLog) Record(ctx context.Context, e models.AccessEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, e)
	return m.recordErr
}

func (m *mockAuditLog) List(ctx context.Context, f service.AuditFilter) ([]models.AccessEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	out := make([]models.AccessEvent, 0, len(m.resp))
	for _, ev := range m.resp {
		if f.From.IsZero() || !ev.OccurredAt.Before(f.From) {
			out = append(out, ev)
		}
	}
	return out, m.err
}

func (m *mockAuditLog) set(resp []models.AccessEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resp = resp
}

func (m *mockAuditLog) lastFilter() service.AuditFilter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.filters) == 0 {
		return service.AuditFilter{}
	}
	return m.filters[len(m.filters)-1]
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withAuth(req *http.Request, token string) *http.Request {
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
