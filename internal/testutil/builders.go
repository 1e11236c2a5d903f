package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// UserFixture inserts a user and returns its id.
func UserFixture(t TestingTB, db *sql.DB, email string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, email, password_hash, first_name, last_name) VALUES ($1, $2, '', 'Test', 'User')`,
		id, email)
	if err != nil {
		t.Fatalf("insert user fixture: %v", err)
	}
	return id
}

// AdminFixture adds userID to the admin-membership set.
func AdminFixture(t TestingTB, db *sql.DB, userID string) {
	t.Helper()
	if _, err := db.ExecContext(context.Background(), `INSERT INTO admins (user_id) VALUES ($1)`, userID); err != nil {
		t.Fatalf("insert admin fixture: %v", err)
	}
}

// CampFixture inserts an open camp with the given capacity and returns its id.
func CampFixture(t TestingTB, db *sql.DB, name string, capacity int) string {
	t.Helper()
	id := uuid.NewString()
	start := TestTime().AddDate(0, 2, 0)
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO camps (id, name, location, starts_on, ends_on, capacity, price_cents, open)
		 VALUES ($1, $2, 'Molveno', $3, $4, $5, 25000, TRUE)`,
		id, name, start, start.Add(6*24*time.Hour), capacity)
	if err != nil {
		t.Fatalf("insert camp fixture: %v", err)
	}
	return id
}

// ChildFixture inserts a child owned by ownerID and returns its id.
func ChildFixture(t TestingTB, db *sql.DB, ownerID, firstName string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO children (id, owner_id, first_name, last_name, birth_date) VALUES ($1, $2, $3, 'Rossi', $4)`,
		id, ownerID, firstName, TestTime().AddDate(-9, 0, 0))
	if err != nil {
		t.Fatalf("insert child fixture: %v", err)
	}
	return id
}
