package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB_RejectsUnknownDriver(t *testing.T) {
	_, err := OpenDB(context.Background(), "oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestInsertID_SQLite(t *testing.T) {
	db, err := OpenDB(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE things (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT UNIQUE)`)
	require.NoError(t, err)

	id1, err := InsertID(context.Background(), db, `INSERT INTO things (name) VALUES (?)`, "a")
	require.NoError(t, err)
	id2, err := InsertID(context.Background(), db, `INSERT INTO things (name) VALUES (?)`, "b")
	require.NoError(t, err)
	assert.Equal(t, id1+1, id2)

	_, err = InsertID(context.Background(), db, `INSERT INTO things (name) VALUES (?)`, "a")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
}

func TestForUpdate(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", ForUpdate(DriverPostgres))
	assert.Equal(t, " FOR UPDATE", ForUpdate(DriverMySQL))
	assert.Equal(t, "", ForUpdate(DriverSQLite))
}
