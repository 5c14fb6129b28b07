// Package service contains the application service for user management.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/passlocker/internal/convert"
	"github.com/and161185/passlocker/internal/errs"
	"github.com/and161185/passlocker/internal/model"
	"github.com/and161185/passlocker/internal/repository"
)

// Protector hashes credentials and issues user ids.
type Protector interface {
	HashAndSalt(plaintext string) (hash, salt []byte, err error)
	NewUniqueID() (string, error)
}

// UserService defines user management operations.
type UserService interface {
	// List returns views of all users.
	List(ctx context.Context) ([]model.UserView, error)
	// Get returns a single user view.
	Get(ctx context.Context, id string) (model.UserView, error)
	// Create hashes credentials, assigns an id and stores a new user.
	Create(ctx context.Context, p *model.GoogleBasicUserProfile) (model.UserView, error)
	// Update overwrites the user identified by id with u.
	Update(ctx context.Context, id string, u *model.User) error
	// Delete removes the user identified by id.
	Delete(ctx context.Context, id string) error
}

type UserServiceImpl struct {
	users     repository.UserRepository
	protector Protector
	now       func() time.Time
}

// NewUserService constructs UserService with required dependencies.
func NewUserService(users repository.UserRepository, protector Protector) *UserServiceImpl {
	return &UserServiceImpl{users: users, protector: protector, now: time.Now}
}

// List maps every stored user to its view.
func (s *UserServiceImpl) List(ctx context.Context) ([]model.UserView, error) {
	us, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return convert.ToUserViews(us), nil
}

// Get loads a user by id. Missing users yield errs.ErrNotFound.
func (s *UserServiceImpl) Get(ctx context.Context, id string) (model.UserView, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.UserView{}, err
	}
	return convert.ToUserView(*u), nil
}

// Create validates the profile, hashes password and secret with independent
// salts and stores a confirmed user. Any outcome other than one stored row is
// reported as errs.ErrPersistence.
func (s *UserServiceImpl) Create(ctx context.Context, p *model.GoogleBasicUserProfile) (model.UserView, error) {
	if p == nil {
		return model.UserView{}, fmt.Errorf("%w: empty profile", errs.ErrValidation)
	}
	if err := validateProfile(p); err != nil {
		return model.UserView{}, err
	}

	var c convert.Credentials
	var err error
	if c.PasswordHash, c.PasswordSalt, err = s.protector.HashAndSalt(p.Password); err != nil {
		return model.UserView{}, fmt.Errorf("%w: hash password: %w", errs.ErrPersistence, err)
	}
	if c.SecretHash, c.SecretSalt, err = s.protector.HashAndSalt(p.Secret); err != nil {
		return model.UserView{}, fmt.Errorf("%w: hash secret: %w", errs.ErrPersistence, err)
	}
	id, err := s.protector.NewUniqueID()
	if err != nil {
		return model.UserView{}, fmt.Errorf("%w: new id: %w", errs.ErrPersistence, err)
	}

	u := convert.FromProfile(*p, id, c, s.now())
	n, err := s.users.Create(ctx, &u)
	if err != nil {
		return model.UserView{}, fmt.Errorf("%w: %w", errs.ErrPersistence, err)
	}
	if n != 1 {
		return model.UserView{}, fmt.Errorf("%w: %d rows stored", errs.ErrPersistence, n)
	}
	return convert.ToUserView(u), nil
}

// Update replaces every stored field of the user, hashes and salts included,
// with the values from u. Nothing is rehashed, so u must carry both hash/salt
// pairs. The body id must equal id. Store failures and missing users both
// yield errs.ErrNoRowsAffected; a row the store refuses as incomplete yields
// errs.ErrValidation.
func (s *UserServiceImpl) Update(ctx context.Context, id string, u *model.User) error {
	if u == nil {
		return fmt.Errorf("%w: empty user", errs.ErrValidation)
	}
	if u.ID != id {
		return errs.ErrConflictingID
	}
	if err := validateUser(u); err != nil {
		return err
	}

	stored := convert.ToStoredUser(*u)
	n, err := s.users.Update(ctx, &stored)
	if errors.Is(err, errs.ErrValidation) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrNoRowsAffected, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: %d rows updated", errs.ErrNoRowsAffected, n)
	}
	return nil
}

// Delete removes an existing user. A missing user yields errs.ErrNotFound;
// a removal that does not touch exactly one row yields errs.ErrNoRowsAffected.
func (s *UserServiceImpl) Delete(ctx context.Context, id string) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return errs.ErrNotFound
	}
	n, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrNoRowsAffected, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: %d rows deleted", errs.ErrNoRowsAffected, n)
	}
	return nil
}
