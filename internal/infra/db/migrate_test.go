package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp_Success(t *testing.T) {
	for _, dialect := range []Dialect{DialectPostgres, DialectSQLite} {
		t.Run(string(dialect), func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			mock.ExpectExec("CREATE TABLE IF NOT EXISTS tasks").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_tasks_deadline").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_tasks_source").
				WillReturnResult(sqlmock.NewResult(0, 0))

			assert.NoError(t, MigrateUp(db, dialect))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrateUp_DialectColumnTypes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`deadline\s+TIMESTAMP NOT NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("idx_tasks_deadline").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("idx_tasks_source").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, MigrateUp(db, DialectSQLite))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_TableError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tasks").
		WillReturnError(errors.New("permission denied"))

	err = MigrateUp(db, DialectPostgres)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "create tasks table")
}

func TestMigrateUp_IndexError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tasks").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_tasks_deadline").
		WillReturnError(errors.New("disk full"))

	err = MigrateUp(db, DialectPostgres)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
