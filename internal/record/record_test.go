package record

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_SaveInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("returning id", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{})
		mock.ExpectQuery("INSERT INTO items (name, price) VALUES ($1, $2) RETURNING id").
			WithArgs("pen", 1.5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

		rec := m.New(Item{Name: "pen", Price: 1.5, Note: "not a column"})
		res, err := rec.Save(ctx)

		require.NoError(t, err)
		assert.Equal(t, Result{Op: OpInsert, RowsAffected: 1, LastInsertID: 1}, res)
		assert.Equal(t, int64(1), rec.Entity.ID)
		assert.True(t, rec.Loaded())
		assert.Equal(t, Row{"id": int64(1), "name": "pen", "price": 1.5}, rec.Rows()[0])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("last insert id", func(t *testing.T) {
		m, mock := newTestModel(t, "mysql", Options{})
		mock.ExpectExec("INSERT INTO items (name, price) VALUES (?, ?)").
			WithArgs("ink", 3.0).
			WillReturnResult(sqlmock.NewResult(9, 1))

		rec := m.New(Item{Name: "ink", Price: 3.0})
		res, err := rec.Save(ctx)

		require.NoError(t, err)
		assert.Equal(t, Result{Op: OpInsert, RowsAffected: 1, LastInsertID: 9}, res)
		assert.Equal(t, int64(9), rec.Entity.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("verify columns drops fields missing from the table", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{VerifyColumns: true})
		mock.ExpectQuery("SELECT column_name FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position").
			WithArgs("items").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id").AddRow("name"))
		mock.ExpectQuery("INSERT INTO items (name) VALUES ($1) RETURNING id").
			WithArgs("pen").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

		res, err := m.New(Item{Name: "pen", Price: 1.5}).Save(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(3), res.LastInsertID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching columns", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{VerifyColumns: true})
		mock.ExpectQuery("SELECT column_name FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position").
			WithArgs("items").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id"))

		_, err := m.New(Item{Name: "pen"}).Save(ctx)

		assert.ErrorIs(t, err, ErrNoColumns)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("constraint violation", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{})
		mock.ExpectQuery("INSERT INTO items (name, price) VALUES ($1, $2) RETURNING id").
			WithArgs("", 0.0).
			WillReturnError(errors.New("null value in column \"name\""))

		rec := m.New(Item{})
		_, err := rec.Save(ctx)

		assert.ErrorContains(t, err, "insert items")
		assert.False(t, rec.Loaded())
	})
}

type widget struct {
	ID   int64  `db:"ID"`
	Name string `db:"name"`
}

func TestRecord_SaveUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("updates the loaded row", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{})
		mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(int64(7), "pen", 1.5))
		mock.ExpectExec("UPDATE items SET name = $1, price = $2 WHERE id = $3").
			WithArgs("pencil", 1.5, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rec, err := m.Find(ctx, 7)
		require.NoError(t, err)
		rec.Entity.Name = "pencil"

		res, err := rec.Save(ctx)

		require.NoError(t, err)
		assert.Equal(t, Result{Op: OpUpdate, RowsAffected: 1}, res)
		assert.Equal(t, "pencil", rec.Rows()[0]["name"])
		assert.Equal(t, "pencil", rec.Entities()[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("several rows loaded", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{})
		mock.ExpectQuery("SELECT * FROM items").
			WillReturnRows(sqlmock.NewRows(itemColumns).
				AddRow(int64(1), "pen", 1.5).
				AddRow(int64(2), "ink", 3.0))

		rec, err := m.FindAll(ctx)
		require.NoError(t, err)

		_, err = rec.Save(ctx)

		assert.ErrorIs(t, err, ErrAmbiguousSave)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loaded row without id", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{})
		mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"name", "price"}).AddRow("pen", 1.5))

		rec, err := m.Find(ctx, 5)
		require.NoError(t, err)

		_, err = rec.Save(ctx)

		assert.ErrorIs(t, err, ErrNoRowID)
	})

	t.Run("upper-case id tag updates after insert", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()
		m, err := NewModel[widget](sqlx.NewDb(db, "pgx"), Options{})
		require.NoError(t, err)

		mock.ExpectQuery("INSERT INTO widgets (name) VALUES ($1) RETURNING ID").
			WithArgs("a").
			WillReturnRows(sqlmock.NewRows([]string{"ID"}).AddRow(int64(7)))
		mock.ExpectExec("UPDATE widgets SET name = $1 WHERE id = $2").
			WithArgs("b", int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rec := m.New(widget{Name: "a"})
		_, err = rec.Save(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(7), rec.Entity.ID)

		rec.Entity.Name = "b"
		res, err := rec.Save(ctx)

		require.NoError(t, err)
		assert.Equal(t, Result{Op: OpUpdate, RowsAffected: 1}, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert then update in place", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{})
		mock.ExpectQuery("INSERT INTO items (name, price) VALUES ($1, $2) RETURNING id").
			WithArgs("pen", 1.5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectQuery("SELECT * FROM items WHERE id = $1").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(int64(1), "pen", 1.5))
		mock.ExpectExec("UPDATE items SET name = $1, price = $2 WHERE id = $3").
			WithArgs("marker", 1.5, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		res, err := m.New(Item{Name: "pen", Price: 1.5}).Save(ctx)
		require.NoError(t, err)

		rec, err := m.Find(ctx, res.LastInsertID)
		require.NoError(t, err)
		rec.Entity.Name = "marker"
		res, err = rec.Save(ctx)

		require.NoError(t, err)
		assert.Equal(t, OpUpdate, res.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecord_UpdateAll(t *testing.T) {
	ctx := context.Background()

	loadTwo := func(t *testing.T, mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT * FROM items").
			WillReturnRows(sqlmock.NewRows(itemColumns).
				AddRow(int64(1), "pen", 1.5).
				AddRow(int64(2), "ink", 3.0))
	}

	t.Run("named column on every row", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{})
		loadTwo(t, mock)
		mock.ExpectExec("UPDATE items SET price = $1 WHERE id IN ($2, $3)").
			WithArgs(2.0, int64(1), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 2))

		rec, err := m.FindAll(ctx)
		require.NoError(t, err)
		rec.Entity.Price = 2.0

		res, err := rec.UpdateAll(ctx, "price")

		require.NoError(t, err)
		assert.Equal(t, Result{Op: OpUpdate, RowsAffected: 2}, res)
		assert.Equal(t, []Item{{ID: 1, Name: "pen", Price: 2.0}, {ID: 2, Name: "ink", Price: 2.0}}, rec.Entities())
		assert.Equal(t, 2.0, rec.Rows()[1]["price"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all columns", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{})
		loadTwo(t, mock)
		mock.ExpectExec("UPDATE items SET name = $1, price = $2 WHERE id IN ($3, $4)").
			WithArgs("pen", 1.5, int64(1), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 2))

		rec, err := m.FindAll(ctx)
		require.NoError(t, err)

		res, err := rec.UpdateAll(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(2), res.RowsAffected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown column", func(t *testing.T) {
		m, mock := newTestModel(t, "pgx", Options{})
		loadTwo(t, mock)

		rec, err := m.FindAll(ctx)
		require.NoError(t, err)

		_, err = rec.UpdateAll(ctx, "colour")
		assert.ErrorIs(t, err, ErrUnknownColumn)

		_, err = rec.UpdateAll(ctx, "id")
		assert.ErrorIs(t, err, ErrUnknownColumn)
	})

	loadThree := func(t *testing.T, mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT * FROM items").
			WillReturnRows(sqlmock.NewRows(itemColumns).
				AddRow(int64(1), "pen", 1.5).
				AddRow(int64(2), "ink", 3.0).
				AddRow(int64(3), "nib", 0.5))
	}
	smallBatches := func(t *testing.T) {
		prev := updateBatchSize
		updateBatchSize = 2
		t.Cleanup(func() { updateBatchSize = prev })
	}

	t.Run("ids are sent in batches", func(t *testing.T) {
		smallBatches(t)
		m, mock := newTestModel(t, "pgx", Options{})
		loadThree(t, mock)
		mock.ExpectExec("UPDATE items SET price = $1 WHERE id IN ($2, $3)").
			WithArgs(4.0, int64(1), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("UPDATE items SET price = $1 WHERE id IN ($2)").
			WithArgs(4.0, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rec, err := m.FindAll(ctx)
		require.NoError(t, err)
		rec.Entity.Price = 4.0

		res, err := rec.UpdateAll(ctx, "price")

		require.NoError(t, err)
		assert.Equal(t, Result{Op: OpUpdate, RowsAffected: 3}, res)
		assert.Equal(t, 4.0, rec.Entities()[2].Price)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed batch reports earlier rows", func(t *testing.T) {
		smallBatches(t)
		m, mock := newTestModel(t, "pgx", Options{})
		loadThree(t, mock)
		mock.ExpectExec("UPDATE items SET price = $1 WHERE id IN ($2, $3)").
			WithArgs(4.0, int64(1), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("UPDATE items SET price = $1 WHERE id IN ($2)").
			WithArgs(4.0, int64(3)).
			WillReturnError(errors.New("deadlock detected"))

		rec, err := m.FindAll(ctx)
		require.NoError(t, err)
		rec.Entity.Price = 4.0

		res, err := rec.UpdateAll(ctx, "price")

		assert.ErrorContains(t, err, "deadlock detected")
		assert.Equal(t, int64(2), res.RowsAffected)
		assert.Equal(t, 0.5, rec.Entities()[2].Price)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing loaded", func(t *testing.T) {
		m, _ := newTestModel(t, "pgx", Options{})

		_, err := m.New(Item{}).UpdateAll(ctx, "price")

		assert.ErrorIs(t, err, ErrNotLoaded)
	})
}

func TestRow(t *testing.T) {
	r := Row{"name": "pen", "id": int64(1)}

	id, ok := r.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "{id: 1, name: pen}", r.String())

	_, ok = Row{"id": nil}.ID()
	assert.False(t, ok)

	id, ok = Row{"ID": int64(3)}.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}
