package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testguru/timelines/internal/db"
	"github.com/testguru/timelines/internal/model"
	"github.com/testguru/timelines/internal/repository"
)

// newTestDB opens a private in-memory SQLite database with the real
// schema applied. A single connection keeps every query on the same
// in-memory instance.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
	return conn
}

func seedUser(t *testing.T, conn *sqlx.DB, username string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repository.NewUserRepository(conn).Create(user))
	return user
}
