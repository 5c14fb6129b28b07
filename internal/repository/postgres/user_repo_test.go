package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/passlocker/internal/errs"
	"github.com/and161185/passlocker/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var userColumns = []string{
	"id", "username", "email", "name", "location", "gender", "member_since", "confirmed",
	"password_hash", "password_salt", "secret_hash", "secret_salt",
}

func sampleUser() *model.User {
	return &model.User{
		ID:           "6f1c2f4e-4d1a-4b8e-9a57-1f5c0e2b7a11",
		Username:     "ada",
		Email:        "a@x.com",
		Name:         "Ada",
		Location:     "London",
		Gender:       "f",
		MemberSince:  model.Date{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		Confirmed:    true,
		PasswordHash: []byte("ph"),
		PasswordSalt: []byte("ps"),
		SecretHash:   []byte("sh"),
		SecretSalt:   []byte("ss"),
	}
}

func userArgs(u *model.User) []any {
	return []any{u.ID, u.Username, u.Email, u.Name, u.Location, u.Gender, u.MemberSince.Time, u.Confirmed,
		u.PasswordHash, u.PasswordSalt, u.SecretHash, u.SecretSalt}
}

func addUserRow(rows *pgxmock.Rows, u *model.User) *pgxmock.Rows {
	return rows.AddRow(userArgs(u)...)
}

func TestUserRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	a := sampleUser()
	b := sampleUser()
	b.ID, b.Username = "second", "bob"

	mock.ExpectQuery(`SELECT id, username, email, .* FROM users$`).
		WillReturnRows(addUserRow(addUserRow(pgxmock.NewRows(userColumns), a), b))
	got, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, *a, got[0])
	require.Equal(t, "bob", got[1].Username)

	mock.ExpectQuery(`SELECT id, username, email, .* FROM users$`).
		WillReturnRows(pgxmock.NewRows(userColumns))
	got, err = r.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	mock.ExpectQuery(`FROM users`).WillReturnError(errors.New("db down"))
	_, err = r.List(ctx)
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := sampleUser()

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(u.ID).
		WillReturnRows(addUserRow(pgxmock.NewRows(userColumns), u))
	mock.ExpectQuery(`SELECT id, user_id, title, login, value, url, position FROM passwords WHERE user_id=\$1 ORDER BY position ASC`).
		WithArgs(u.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "login", "value", "url", "position"}).
			AddRow("p1", u.ID, "mail", "ada", []byte("enc1"), "https://mail.example", 0).
			AddRow("p2", u.ID, "bank", "ada.l", []byte("enc2"), "", 1))
	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Username, got.Username)
	require.Equal(t, u.SecretSalt, got.SecretSalt)
	require.Len(t, got.Passwords, 2)
	require.Equal(t, "bank", got.Passwords[1].Title)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(u.ID).
		WillReturnError(context.Canceled)
	_, err = r.GetByID(ctx, u.ID)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Exists(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE id=\$1\)`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := r.Exists(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	ok, err = r.Exists(ctx, "u2")
	require.NoError(t, err)
	require.False(t, ok)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u3").
		WillReturnError(errors.New("db down"))
	_, err = r.Exists(ctx, "u3")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := sampleUser()

	mock.ExpectExec(`INSERT INTO users \(id, username, email, .*\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11, \$12\)`).
		WithArgs(userArgs(u)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	n, err := r.Create(ctx, u)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(userArgs(u)...).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(userArgs(u)...).
		WillReturnError(&pgconn.PgError{Code: "23502", ColumnName: "secret_salt"})
	_, err = r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Contains(t, err.Error(), "secret_salt")

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(userArgs(u)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	n, err = r.Create(ctx, u)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Update_ReplacesPasswords(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := sampleUser()
	u.Passwords = []model.Password{
		{ID: "p1", Title: "mail", Login: "ada", Value: []byte("enc1"), Position: 7},
		{Title: "bank", Login: "ada.l", Value: []byte("enc2")},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET username=\$2, email=\$3, .* WHERE id=\$1`).
		WithArgs(userArgs(u)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM passwords WHERE user_id=\$1`).
		WithArgs(u.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`INSERT INTO passwords`).
		WithArgs("p1", u.ID, "mail", "ada", []byte("enc1"), "", 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO passwords`).
		WithArgs("", u.ID, "bank", "ada.l", []byte("enc2"), "", 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := r.Update(ctx, u)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Update_MissingUserRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := sampleUser()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(userArgs(u)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	n, err := r.Update(ctx, u)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Update_WithoutCredentials(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := sampleUser()
	u.PasswordHash, u.PasswordSalt, u.SecretHash, u.SecretSalt = nil, nil, nil, nil

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(userArgs(u)...).
		WillReturnError(&pgconn.PgError{Code: "23502", ColumnName: "password_hash"})
	mock.ExpectRollback()

	n, err := r.Update(ctx, u)
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Contains(t, err.Error(), "password_hash")
	require.EqualValues(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Update_PasswordInsertFails(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := sampleUser()
	u.Passwords = []model.Password{{ID: "p1", Title: "mail"}}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(userArgs(u)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM passwords`).
		WithArgs(u.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO passwords`).
		WithArgs("p1", u.ID, "mail", "", []byte(nil), "", 0).
		WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	n, err := r.Update(ctx, u)
	require.Error(t, err)
	require.EqualValues(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM users WHERE id=\$1`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	n, err := r.Delete(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	mock.ExpectExec(`DELETE FROM users WHERE id=\$1`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	n, err = r.Delete(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	db := &DB{Pool: mock}

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	require.Error(t, db.Ping(context.Background()))
}
