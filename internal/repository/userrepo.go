// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/passlocker/internal/model"
)

// UserRepository provides CRUD access to users. Write methods report the
// number of user rows they affected; callers treat anything but one as failure.
// Writes of a user without both hash/salt pairs fail with errs.ErrValidation.
type UserRepository interface {
	// List returns every user without its passwords collection.
	List(ctx context.Context) ([]model.User, error)
	// GetByID loads a user with its passwords. Returns errs.ErrNotFound when missing.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// Exists reports whether a user with id is stored, without loading it.
	Exists(ctx context.Context, id string) (bool, error)
	// Create inserts a new user row.
	Create(ctx context.Context, u *model.User) (int64, error)
	// Update overwrites every column of the user and replaces its passwords.
	Update(ctx context.Context, u *model.User) (int64, error)
	// Delete removes the user; owned passwords go with it.
	Delete(ctx context.Context, id string) (int64, error)
}
