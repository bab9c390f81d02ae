package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoSim-25-26J-441/items-backend/internal/items/domain"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec(`create table if not exists todo_items`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewWithDB(db)
	require.NoError(t, s.Init(context.Background()))

	t.Cleanup(func() {
		mock.ExpectClose()
		_ = s.Teardown(context.Background())
	})
	return s, mock
}

func TestStore_Init(t *testing.T) {
	t.Run("schema failure closes the handle", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectExec(`create table if not exists todo_items`).
			WillReturnError(errors.New("permission denied"))
		mock.ExpectClose()

		s := NewWithDB(db)
		err = s.Init(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")

		_, err = s.ListItems(context.Background())
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing dsn", func(t *testing.T) {
		err := New(Options{}).Init(context.Background())
		assert.Error(t, err)
	})
}

func TestStore_ListItems(t *testing.T) {
	s, mock := setupStore(t)

	t.Run("returns items in insertion order", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, completed FROM todo_items ORDER BY seq`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "completed"}).
				AddRow("id-1", "first", false).
				AddRow("id-2", "second", true))

		items, err := s.ListItems(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []domain.Item{
			{ID: "id-1", Name: "first", Completed: false},
			{ID: "id-2", Name: "second", Completed: true},
		}, items)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table yields empty slice", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, completed FROM todo_items`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "completed"}))

		items, err := s.ListItems(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, completed FROM todo_items`).
			WillReturnError(sql.ErrConnDone)

		_, err := s.ListItems(context.Background())
		assert.ErrorIs(t, err, sql.ErrConnDone)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_GetItem(t *testing.T) {
	s, mock := setupStore(t)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, completed FROM todo_items WHERE id`).
			WithArgs("id-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "completed"}).
				AddRow("id-1", "first", true))

		it, err := s.GetItem(context.Background(), "id-1")
		require.NoError(t, err)
		assert.Equal(t, domain.Item{ID: "id-1", Name: "first", Completed: true}, *it)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, completed FROM todo_items WHERE id`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := s.GetItem(context.Background(), "missing")
		assert.Equal(t, domain.ErrItemNotFound, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_CreateItem(t *testing.T) {
	s, mock := setupStore(t)

	t.Run("assigns an id", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO todo_items`).
			WithArgs(sqlmock.AnyArg(), "buy milk").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "completed"}).
				AddRow("generated", "buy milk", false))

		it, err := s.CreateItem(context.Background(), domain.ItemInput{Name: "buy milk", Completed: true})
		require.NoError(t, err)
		assert.Equal(t, "generated", it.ID)
		assert.False(t, it.Completed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries on id collision", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO todo_items`).
			WithArgs(sqlmock.AnyArg(), "walk dog").
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectQuery(`INSERT INTO todo_items`).
			WithArgs(sqlmock.AnyArg(), "walk dog").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "completed"}).
				AddRow("second-try", "walk dog", false))

		it, err := s.CreateItem(context.Background(), domain.ItemInput{Name: "walk dog"})
		require.NoError(t, err)
		assert.Equal(t, "second-try", it.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other errors are returned", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO todo_items`).
			WillReturnError(errors.New("disk full"))

		_, err := s.CreateItem(context.Background(), domain.ItemInput{Name: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_UpdateItem(t *testing.T) {
	s, mock := setupStore(t)

	t.Run("updates name and completed", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE todo_items`).
			WithArgs("id-1", "renamed", true).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "completed"}).
				AddRow("id-1", "renamed", true))

		it, err := s.UpdateItem(context.Background(), "id-1", domain.ItemInput{Name: "renamed", Completed: true})
		require.NoError(t, err)
		assert.Equal(t, domain.Item{ID: "id-1", Name: "renamed", Completed: true}, *it)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE todo_items`).
			WithArgs("missing", "x", false).
			WillReturnError(sql.ErrNoRows)

		_, err := s.UpdateItem(context.Background(), "missing", domain.ItemInput{Name: "x"})
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_DeleteItem(t *testing.T) {
	s, mock := setupStore(t)

	mock.ExpectExec(`DELETE FROM todo_items WHERE id`).
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.DeleteItem(context.Background(), "id-1"))

	mock.ExpectExec(`DELETE FROM todo_items WHERE id`).
		WithArgs("id-1").
		WillReturnError(sql.ErrConnDone)

	assert.ErrorIs(t, s.DeleteItem(context.Background(), "id-1"), sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TeardownTwice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	s := NewWithDB(db)
	assert.NoError(t, s.Teardown(context.Background()))
	assert.NoError(t, s.Teardown(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
