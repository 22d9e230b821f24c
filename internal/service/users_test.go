package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"users_api/internal/auth"
	"users_api/internal/models"
)

// mockUsersRepo is a lightweight in-test mock for repository.Users.
type mockUsersRepo struct {
	FindAllFn           func() ([]models.User, error)
	FindOneByUsernameFn func(username string) (*models.User, error)
	CreateFn            func(u models.User, hash string) (int, error)

	findAllCalls int
	findOneCalls []string
	createCalls  []struct {
		user models.User
		hash string
	}
}

func (m *mockUsersRepo) FindAll(ctx context.Context) ([]models.User, error) {
	m.findAllCalls++
	return m.FindAllFn()
}

func (m *mockUsersRepo) FindOneByUsername(ctx context.Context, username string) (*models.User, error) {
	m.findOneCalls = append(m.findOneCalls, username)
	return m.FindOneByUsernameFn(username)
}

func (m *mockUsersRepo) Create(ctx context.Context, u models.User, hash string) (int, error) {
	m.createCalls = append(m.createCalls, struct {
		user models.User
		hash string
	}{user: u, hash: hash})
	return m.CreateFn(u, hash)
}

// recorderStub captures audit events.
type recorderStub struct {
	events []models.AccessEvent
	err    error
}

func (r *recorderStub) Record(ctx context.Context, e models.AccessEvent) error {
	r.events = append(r.events, e)
	return r.err
}

func withClaims(username string) context.Context {
	return auth.WithClaims(context.Background(), auth.Claims{Username: username, Role: models.RoleUser})
}

func TestUsersService_GetUserByUsername_MatchDelegates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		claim string
		path  string
	}{
		{"alice", "alice"},
		{"Alice", "alice"},
		{"alice", "ALICE"},
		{"JaneD", "janed"},
		{"ÉLODIE", "élodie"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.claim+"/"+tc.path, func(t *testing.T) {
			t.Parallel()

			want := &models.User{ID: 9, Username: tc.claim}
			repo := &mockUsersRepo{
				FindOneByUsernameFn: func(username string) (*models.User, error) {
					return want, nil
				},
			}
			svc := NewUsersService(repo)

			got, err := svc.GetUserByUsername(withClaims(tc.claim), tc.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != want {
				t.Fatalf("result must be returned verbatim: got %p, want %p", got, want)
			}
			if len(repo.findOneCalls) != 1 || repo.findOneCalls[0] != tc.path {
				t.Fatalf("expected one lookup for %q, got %v", tc.path, repo.findOneCalls)
			}
		})
	}
}

func TestUsersService_GetUserByUsername_MismatchDenied(t *testing.T) {
	t.Parallel()

	cases := []struct {
		claim string
		path  string
	}{
		{"alice", "bob"},
		{"alice", "alice2"},
		{"alice", "alic"},
		{"alice", " alice"},
		{"admin", "johnd"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.claim+"/"+tc.path, func(t *testing.T) {
			t.Parallel()

			repo := &mockUsersRepo{
				FindOneByUsernameFn: func(username string) (*models.User, error) {
					t.Fatal("repository must not be called on denied access")
					return nil, nil
				},
			}
			svc := NewUsersService(repo)

			got, err := svc.GetUserByUsername(withClaims(tc.claim), tc.path)
			if !errors.Is(err, ErrAccessDenied) {
				t.Fatalf("expected ErrAccessDenied, got %v", err)
			}
			if got != nil {
				t.Fatalf("expected nil user, got %+v", got)
			}
			if len(repo.findOneCalls) != 0 {
				t.Fatalf("expected no repository calls, got %v", repo.findOneCalls)
			}
		})
	}
}

func TestUsersService_GetUserByUsername_MissingClaims(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"alice", "bob", ""} {
		path := path
		t.Run("path="+path, func(t *testing.T) {
			t.Parallel()

			repo := &mockUsersRepo{}
			svc := NewUsersService(repo)

			_, err := svc.GetUserByUsername(context.Background(), path)
			if !errors.Is(err, ErrMissingAuthContext) {
				t.Fatalf("expected ErrMissingAuthContext, got %v", err)
			}
			if len(repo.findOneCalls) != 0 {
				t.Fatalf("no repository activity expected, got %v", repo.findOneCalls)
			}
		})
	}
}

func TestUsersService_GetUserByUsername_PassesThroughRepoResults(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		repo := &mockUsersRepo{
			FindOneByUsernameFn: func(string) (*models.User, error) { return nil, nil },
		}
		svc := NewUsersService(repo)

		got, err := svc.GetUserByUsername(withClaims("ghost"), "ghost")
		if err != nil || got != nil {
			t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
		}
	})

	t.Run("repository error unmodified", func(t *testing.T) {
		t.Parallel()
		dbErr := errors.New("db down")
		repo := &mockUsersRepo{
			FindOneByUsernameFn: func(string) (*models.User, error) { return nil, dbErr },
		}
		svc := NewUsersService(repo)

		_, err := svc.GetUserByUsername(withClaims("alice"), "alice")
		if err != dbErr {
			t.Fatalf("expected the exact repository error, got %v", err)
		}
	})
}

// Lookup cases exercised end to end through the gateway.

func TestUsersService_Scenarios(t *testing.T) {
	t.Parallel()

	t.Run("Alice claim, alice path", func(t *testing.T) {
		t.Parallel()
		want := &models.User{ID: 1, Username: "alice", FirstName: "Alice"}
		repo := &mockUsersRepo{
			FindOneByUsernameFn: func(string) (*models.User, error) { return want, nil },
		}
		got, err := NewUsersService(repo).GetUserByUsername(withClaims("Alice"), "alice")
		if err != nil || got != want {
			t.Fatalf("got (%+v, %v)", got, err)
		}
		if len(repo.findOneCalls) != 1 || repo.findOneCalls[0] != "alice" {
			t.Fatalf("expected lookup for %q, got %v", "alice", repo.findOneCalls)
		}
	})

	t.Run("alice claim, bob path", func(t *testing.T) {
		t.Parallel()
		repo := &mockUsersRepo{}
		_, err := NewUsersService(repo).GetUserByUsername(withClaims("alice"), "bob")
		if !errors.Is(err, ErrAccessDenied) || len(repo.findOneCalls) != 0 {
			t.Fatalf("expected AccessDenied without lookup, got %v (calls=%v)", err, repo.findOneCalls)
		}
	})

	t.Run("no claims, alice path", func(t *testing.T) {
		t.Parallel()
		_, err := NewUsersService(&mockUsersRepo{}).GetUserByUsername(context.Background(), "alice")
		if !errors.Is(err, ErrMissingAuthContext) {
			t.Fatalf("expected MissingAuthContext, got %v", err)
		}
	})
}

func TestUsersService_ListUsers(t *testing.T) {
	t.Parallel()

	t.Run("single call, order preserved", func(t *testing.T) {
		t.Parallel()
		users := []models.User{{ID: 3, Username: "janed"}, {ID: 1, Username: "admin"}, {ID: 2, Username: "johnd"}}
		repo := &mockUsersRepo{FindAllFn: func() ([]models.User, error) { return users, nil }}
		svc := NewUsersService(repo)

		got, err := svc.ListUsers(context.Background())
		if err != nil {
			t.Fatalf("ListUsers: %v", err)
		}
		if repo.findAllCalls != 1 {
			t.Fatalf("expected one FindAll call, got %d", repo.findAllCalls)
		}
		if len(got) != len(users) {
			t.Fatalf("length: got %d, want %d", len(got), len(users))
		}
		for i := range users {
			if got[i] != users[i] {
				t.Fatalf("index %d: got %+v, want %+v", i, got[i], users[i])
			}
		}
	})

	t.Run("no claims required", func(t *testing.T) {
		t.Parallel()
		repo := &mockUsersRepo{FindAllFn: func() ([]models.User, error) { return nil, nil }}
		if _, err := NewUsersService(repo).ListUsers(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("error propagates", func(t *testing.T) {
		t.Parallel()
		dbErr := errors.New("db down")
		repo := &mockUsersRepo{FindAllFn: func() ([]models.User, error) { return nil, dbErr }}
		if _, err := NewUsersService(repo).ListUsers(context.Background()); err != dbErr {
			t.Fatalf("expected repository error, got %v", err)
		}
	})
}

func TestUsersService_HealthCheck(t *testing.T) {
	t.Parallel()

	svc := NewUsersService(&mockUsersRepo{})
	before := time.Now().Add(-time.Second)

	got := svc.HealthCheck()
	if got.Status != "OK" {
		t.Errorf("Status: got %q, want OK", got.Status)
	}
	if got.Service != "users-api" {
		t.Errorf("Service: got %q, want users-api", got.Service)
	}
	if got.Timestamp == "" {
		t.Fatalf("Timestamp must be set")
	}
	ts, err := time.Parse(time.RFC3339Nano, got.Timestamp)
	if err != nil {
		t.Fatalf("Timestamp %q does not parse: %v", got.Timestamp, err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Fatalf("Timestamp %v not close to now", ts)
	}
}

func TestUsersService_HealthCheck_UsesClock(t *testing.T) {
	t.Parallel()

	svc := NewUsersService(&mockUsersRepo{})
	svc.now = func() time.Time {
		return time.Date(2025, 5, 6, 7, 8, 9, 0, time.FixedZone("X", 3600))
	}
	if got := svc.HealthCheck().Timestamp; got != "2025-05-06T06:08:09Z" {
		t.Fatalf("Timestamp: got %q", got)
	}
}
