package repository

import (
    "context"
    "database/sql"
    "os"
    "path/filepath"
    "time"

    qt "github.com/frankban/quicktest"
    _ "modernc.org/sqlite"

    "github.com/iliyamo/salvambiente-api/internal/model"
)

// newTestDB opens a throwaway SQLite database with the test schema.
func newTestDB(c *qt.C) *sql.DB {
    c.Helper()
    db, err := sql.Open("sqlite", filepath.Join(c.TempDir(), "salvambiente_test.db"))
    c.Assert(err, qt.IsNil)
    db.SetMaxOpenConns(1)
    c.Cleanup(func() { _ = db.Close() })

    schema, err := os.ReadFile(filepath.Join("testdata", "schema.sql"))
    c.Assert(err, qt.IsNil)
    _, err = db.ExecContext(context.Background(), string(schema))
    c.Assert(err, qt.IsNil)
    return db
}

func createUser(c *qt.C, db *sql.DB, username string) model.User {
    c.Helper()
    u, err := NewUserRepo(db).Create(context.Background(), username, username+"@example.com", "hash-"+username, model.RoleUser)
    c.Assert(err, qt.IsNil)
    return u
}

func at(y int, m time.Month, d, h int) time.Time {
    return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}
