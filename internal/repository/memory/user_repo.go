// Package memory provides an in-process UserRepository for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/and161185/passlocker/internal/errs"
	"github.com/and161185/passlocker/internal/model"
)

// UserRepo keeps users in a map guarded by a RWMutex.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]model.User
}

// NewUserRepo constructs an empty repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]model.User)}
}

// List returns all users sorted by id, without passwords.
func (r *UserRepo) List(context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		u.Passwords = nil
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID returns a copy of the stored user.
func (r *UserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := clone(u)
	return &c, nil
}

// Exists reports whether id is stored.
func (r *UserRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[id]
	return ok, nil
}

// Create stores a new user; ids and usernames are unique.
func (r *UserRepo) Create(_ context.Context, u *model.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[u.ID]; exists {
		return 0, errs.ErrAlreadyExists
	}
	if err := checkCredentials(u); err != nil {
		return 0, err
	}
	if r.usernameTaken(u.Username, u.ID) {
		return 0, errs.ErrAlreadyExists
	}
	c := clone(*u)
	c.Passwords = nil
	r.users[u.ID] = c
	return 1, nil
}

// Update replaces the stored user and its passwords.
func (r *UserRepo) Update(_ context.Context, u *model.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[u.ID]; !exists {
		return 0, nil
	}
	if err := checkCredentials(u); err != nil {
		return 0, err
	}
	if r.usernameTaken(u.Username, u.ID) {
		return 0, errs.ErrAlreadyExists
	}
	c := clone(*u)
	for i := range c.Passwords {
		c.Passwords[i].UserID = u.ID
		c.Passwords[i].Position = i
	}
	r.users[u.ID] = c
	return 1, nil
}

// Delete removes the user together with its passwords.
func (r *UserRepo) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[id]; !exists {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

// usernameTaken must be called with mu held.
func (r *UserRepo) usernameTaken(username, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}

// checkCredentials mirrors the NOT NULL constraints of the users table.
func checkCredentials(u *model.User) error {
	for _, c := range []struct {
		col string
		v   []byte
	}{
		{"password_hash", u.PasswordHash},
		{"password_salt", u.PasswordSalt},
		{"secret_hash", u.SecretHash},
		{"secret_salt", u.SecretSalt},
	} {
		if c.v == nil {
			return fmt.Errorf("%w: %s: required", errs.ErrValidation, c.col)
		}
	}
	return nil
}

func clone(u model.User) model.User {
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	u.PasswordSalt = append([]byte(nil), u.PasswordSalt...)
	u.SecretHash = append([]byte(nil), u.SecretHash...)
	u.SecretSalt = append([]byte(nil), u.SecretSalt...)
	if u.Passwords != nil {
		ps := make([]model.Password, len(u.Passwords))
		for i, p := range u.Passwords {
			p.Value = append([]byte(nil), p.Value...)
			ps[i] = p
		}
		u.Passwords = ps
	}
	return u
}
