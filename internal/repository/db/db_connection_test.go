package db

import (
	"path/filepath"
	"testing"
)

func TestInitDB_CreatesSchemaAndSeedsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")

	db, err := InitDB(path)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer func() { _ = db.Close() }()

	n, err := Seed(db)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != len(seedUsers) {
		t.Fatalf("first Seed inserted %d rows, want %d", n, len(seedUsers))
	}

	n, err = Seed(db)
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if n != 0 {
		t.Fatalf("second Seed inserted %d rows, want 0", n)
	}

	// username column is NOCASE
	var role string
	if err := db.QueryRow(`SELECT role FROM users WHERE username = ?`, "ADMIN").Scan(&role); err != nil {
		t.Fatalf("case-insensitive lookup: %v", err)
	}
	if role != "ADMIN" {
		t.Fatalf("role: got %q, want ADMIN", role)
	}

	if _, err := db.Exec(`INSERT INTO access_events (id, occurred_at, type, username, resource, message) VALUES ('x', CURRENT_TIMESTAMP, 'SIGN_IN', 'admin', '', 'ok')`); err != nil {
		t.Fatalf("access_events insert: %v", err)
	}
}

func TestInitDB_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")

	db, err := InitDB(path)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if _, err := Seed(db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	_ = db.Close()

	db, err = InitDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = db.Close() }()

	var n int
	if err := db.QueryRow(countUsersSQL).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(seedUsers) {
		t.Fatalf("users after reopen: got %d, want %d", n, len(seedUsers))
	}
}
