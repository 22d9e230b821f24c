package db

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	username, firstname, lastname, role string
}

// defaultSeedPassword is shared by every seeded account.
const defaultSeedPassword = "password"

var seedUsers = []seedUser{
	{"admin", "Foo", "Bar", "ADMIN"},
	{"johnd", "John", "Doe", "USER"},
	{"janed", "Jane", "Doe", "USER"},
}

const (
	countUsersSQL = `SELECT COUNT(*) FROM users`
	insertSeedSQL = `INSERT INTO users (username, firstname, lastname, role, password_hash) VALUES (?, ?, ?, ?, ?)`
)

// Seed inserts the default accounts when the users table is empty.
// It returns the number of inserted rows.
func Seed(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(countUsersSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultSeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash seed password: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range seedUsers {
		if _, err := tx.Exec(insertSeedSQL, u.username, u.firstname, u.lastname, u.role, string(hash)); err != nil {
			return 0, fmt.Errorf("seed user %q: %w", u.username, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed transaction: %w", err)
	}
	return len(seedUsers), nil
}
