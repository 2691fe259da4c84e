package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

const testKey = "da39a3ee5e6b4b0d3255bfef95601890afd80709"

func TestClientRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	created := time.Now()
	mock.ExpectQuery(`INSERT INTO clients \(client_name, api_key, is_disabled, is_blacklisted\)`).
		WithArgs("web01.example.com", testKey, false, false).
		WillReturnRows(pgxmock.NewRows([]string{"id", "date_created"}).AddRow(int64(7), created))

	c := &model.Client{Name: "web01.example.com", APIKey: testKey}
	require.NoError(t, r.Create(context.Background(), c))
	require.Equal(t, int64(7), c.ID)
	require.Equal(t, created, c.DateCreated)
}

func TestClientRepo_Create_DuplicateName(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectQuery(`INSERT INTO clients`).
		WithArgs("web01.example.com", testKey, false, false).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := r.Create(context.Background(), &model.Client{Name: "web01.example.com", APIKey: testKey})
	require.ErrorIs(t, err, errs.ErrAlreadyRegistered)
}

func TestClientRepo_GetByAPIKey_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	created := time.Now()
	mock.ExpectQuery(`SELECT id, client_name, api_key, date_created, is_disabled, is_blacklisted FROM clients WHERE api_key=\$1`).
		WithArgs(testKey).
		WillReturnRows(pgxmock.NewRows([]string{"id", "client_name", "api_key", "date_created", "is_disabled", "is_blacklisted"}).
			AddRow(int64(3), "web01.example.com", testKey, created, false, false))

	c, err := r.GetByAPIKey(context.Background(), testKey)
	require.NoError(t, err)
	require.Equal(t, "web01.example.com", c.Name)
	require.False(t, c.IsDisabled)
}

func TestClientRepo_GetByAPIKey_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectQuery(`SELECT id, client_name, api_key, date_created, is_disabled, is_blacklisted FROM clients WHERE api_key=\$1`).
		WithArgs(testKey).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetByAPIKey(context.Background(), testKey)
	require.ErrorIs(t, err, errs.ErrUnknownClient)
}

func TestClientRepo_GetByName_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectQuery(`SELECT id, client_name, api_key, date_created, is_disabled, is_blacklisted FROM clients WHERE client_name=\$1`).
		WithArgs("ghost.example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetByName(context.Background(), "ghost.example.com")
	require.ErrorIs(t, err, errs.ErrUnknownClient)
}

func TestClientRepo_SetDisabled_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectExec(`UPDATE clients SET is_disabled=\$2 WHERE id=\$1`).
		WithArgs(int64(3), true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.SetDisabled(context.Background(), 3, true))
}

func TestClientRepo_SetDisabled_Unknown(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectExec(`UPDATE clients SET is_disabled=\$2 WHERE id=\$1`).
		WithArgs(int64(99), false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := r.SetDisabled(context.Background(), 99, false)
	require.ErrorIs(t, err, errs.ErrUnknownClient)
}
