package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordkit/internal/config"
)

// execute runs the command tree against a sqlmock-backed handle and returns stdout.
// setup registers the statements the command is expected to issue.
func execute(t *testing.T, setup func(sqlmock.Sqlmock), args ...string) (string, error) {
	t.Helper()
	t.Setenv("RECORD_PLURALIZE", "naive")
	t.Setenv("RECORD_VERIFY_COLUMNS", "false")
	t.Setenv("DB_HOST", "db.test")

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	prev := openDB
	openDB = func(config.DatabaseConfig) (*sqlx.DB, error) {
		return sqlx.NewDb(mockDB, "pgx"), nil
	}
	t.Cleanup(func() { openDB = prev })

	// Flag values survive between Execute calls on the shared command tree.
	for _, name := range []string{"id", "name", "price"} {
		f := saveCmd.Flags().Lookup(name)
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}

	if setup != nil {
		setup(mock)
		mock.ExpectClose()
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err = rootCmd.Execute()
	if setup != nil {
		assert.NoError(t, mock.ExpectationsWereMet())
	}
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := execute(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT * FROM items").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
				AddRow(int64(1), "pen", 1.5).
				AddRow(int64(2), "ink", 3.0))
	}, "list")

	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "pen", rows[0]["name"])
	assert.Equal(t, float64(2), rows[1]["id"])
}

func TestList_Empty(t *testing.T) {
	out, err := execute(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT * FROM items").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}))
	}, "list")

	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		out, err := execute(t, func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
				WithArgs(int64(7)).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).AddRow(int64(7), "pen", 1.5))
		}, "get", "7")

		require.NoError(t, err)
		assert.JSONEq(t, `{"id":7,"name":"pen","price":1.5}`, out)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := execute(t, func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
				WithArgs(int64(8)).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}))
		}, "get", "8")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := execute(t, nil, "get", "abc")

		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid id "abc"`)
	})
}

func TestSave(t *testing.T) {
	t.Run("insert", func(t *testing.T) {
		out, err := execute(t, func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery("INSERT INTO items (name, price) VALUES ($1, $2) RETURNING id").
				WithArgs("pen", 1.5).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
		}, "save", "--name", "pen", "--price", "1.5")

		require.NoError(t, err)
		assert.JSONEq(t, `{
			"result": {"op": "insert", "rows_affected": 1, "last_insert_id": 11},
			"item": {"id": 11, "name": "pen", "price": 1.5}
		}`, out)
	})

	t.Run("update existing row", func(t *testing.T) {
		out, err := execute(t, func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
				WithArgs(int64(4)).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).AddRow(int64(4), "pen", 1.5))
			mock.ExpectExec("UPDATE items SET name = $1, price = $2 WHERE id = $3").
				WithArgs("marker", 2.0, int64(4)).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}, "save", "--id", "4", "--name", "marker", "--price", "2")

		require.NoError(t, err)
		assert.JSONEq(t, `{
			"result": {"op": "update", "rows_affected": 1},
			"item": {"id": 4, "name": "marker", "price": 2}
		}`, out)
	})

	t.Run("missing row is inserted", func(t *testing.T) {
		_, err := execute(t, func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
				WithArgs(int64(40)).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}))
			mock.ExpectQuery("INSERT INTO items (name, price) VALUES ($1, $2) RETURNING id").
				WithArgs("marker", 0.0).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
		}, "save", "--id", "40", "--name", "marker")

		require.NoError(t, err)
	})

	t.Run("name is required", func(t *testing.T) {
		_, err := execute(t, nil, "save", "--price", "2")

		require.Error(t, err)
		assert.Contains(t, err.Error(), `"name" not set`)
	})
}

func TestColumns(t *testing.T) {
	out, err := execute(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT column_name FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position").
			WithArgs("items").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id").AddRow("name").AddRow("price"))
	}, "columns")

	require.NoError(t, err)
	assert.Equal(t, "id\nname\nprice\n", out)
}

func TestMigrate_AlreadyMigrated(t *testing.T) {
	_, err := execute(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT to_regclass('public.items') IS NOT NULL").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}, "migrate")

	require.NoError(t, err)
}

func TestOpenFailure(t *testing.T) {
	prev := openDB
	openDB = func(config.DatabaseConfig) (*sqlx.DB, error) {
		return nil, errors.New("db ping: connection refused")
	}
	t.Cleanup(func() { openDB = prev })

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"list"})

	err := rootCmd.Execute()
	assert.EqualError(t, err, "db ping: connection refused")
}
