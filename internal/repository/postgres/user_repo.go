package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/passlocker/internal/errs"
	"github.com/and161185/passlocker/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, username, email, name, location, gender, member_since, confirmed,
password_hash, password_salt, secret_hash, secret_salt`

func scanUser(row pgx.Row, u *model.User) error {
	var since time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Location, &u.Gender, &since, &u.Confirmed,
		&u.PasswordHash, &u.PasswordSalt, &u.SecretHash, &u.SecretSalt); err != nil {
		return err
	}
	u.MemberSince = model.Date{Time: since}
	return nil
}

// writeErr maps constraint violations of a users write to sentinels.
func writeErr(err error) error {
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if col := notNullColumn(err); col != "" {
		return fmt.Errorf("%w: %s: required", errs.ErrValidation, col)
	}
	return err
}

// List selects all users. Passwords are not loaded.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+userCols+` FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetByID selects a user by ID together with its passwords ordered by position.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	const q = `
SELECT id, user_id, title, login, value, url, position
FROM passwords WHERE user_id=$1 ORDER BY position ASC`
	rows, err := r.db.Pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p model.Password
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Login, &p.Value, &p.URL, &p.Position); err != nil {
			return nil, err
		}
		u.Passwords = append(u.Passwords, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user row with the given id is present.
func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Create inserts a new user row and reports affected rows.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (int64, error) {
	const q = `
INSERT INTO users (id, username, email, name, location, gender, member_since, confirmed,
password_hash, password_salt, secret_hash, secret_salt)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	tag, err := r.db.Pool.Exec(ctx, q, u.ID, u.Username, u.Email, u.Name, u.Location, u.Gender, u.MemberSince.Time,
		u.Confirmed, u.PasswordHash, u.PasswordSalt, u.SecretHash, u.SecretSalt)
	if err != nil {
		return 0, writeErr(err)
	}
	return tag.RowsAffected(), nil
}

// Update overwrites the user row and replaces its passwords in one transaction.
// When the user row is missing nothing is written and 0 is returned.
func (r *UserRepo) Update(ctx context.Context, u *model.User) (affected int64, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil || affected != 1 {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			affected, err = 0, e
		}
	}()

	const upd = `
UPDATE users SET username=$2, email=$3, name=$4, location=$5, gender=$6, member_since=$7, confirmed=$8,
password_hash=$9, password_salt=$10, secret_hash=$11, secret_salt=$12
WHERE id=$1`
	tag, err := tx.Exec(ctx, upd, u.ID, u.Username, u.Email, u.Name, u.Location, u.Gender, u.MemberSince.Time,
		u.Confirmed, u.PasswordHash, u.PasswordSalt, u.SecretHash, u.SecretSalt)
	if err != nil {
		return 0, writeErr(err)
	}
	if affected = tag.RowsAffected(); affected != 1 {
		return affected, nil
	}

	const del = `DELETE FROM passwords WHERE user_id=$1`
	const ins = `
INSERT INTO passwords (id, user_id, title, login, value, url, position)
VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6, $7)`
	if _, err = tx.Exec(ctx, del, u.ID); err != nil {
		return 0, err
	}
	for i, p := range u.Passwords {
		if _, err = tx.Exec(ctx, ins, p.ID, u.ID, p.Title, p.Login, p.Value, p.URL, i); err != nil {
			return 0, fmt.Errorf("password[%d]: %w", i, err)
		}
	}
	return affected, nil
}

// Delete removes the user row; passwords are removed by ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
