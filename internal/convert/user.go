// Package convert maps users between persisted and transport shapes.
package convert

import (
	"time"

	"github.com/and161185/passlocker/internal/model"
)

// ToUserView strips credentials and passwords from a stored user.
func ToUserView(u model.User) model.UserView {
	return model.UserView{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Confirmed:   u.Confirmed,
		Name:        u.Name,
		Gender:      u.Gender,
		MemberSince: u.MemberSince,
	}
}

// ToUserViews maps a slice of users; the result is never nil.
func ToUserViews(us []model.User) []model.UserView {
	out := make([]model.UserView, 0, len(us))
	for _, u := range us {
		out = append(out, ToUserView(u))
	}
	return out
}

// Credentials are the hash/salt pairs derived from a profile's password and secret.
type Credentials struct {
	PasswordHash, PasswordSalt []byte
	SecretHash, SecretSalt     []byte
}

// FromProfile builds a new confirmed user from a creation profile.
// memberSince is truncated to the UTC calendar day.
func FromProfile(p model.GoogleBasicUserProfile, id string, c Credentials, memberSince time.Time) model.User {
	return model.User{
		ID:           id,
		Username:     p.Username,
		Email:        p.Email,
		Name:         p.Name,
		Location:     p.Location,
		Gender:       p.Gender,
		MemberSince:  model.Date{Time: Day(memberSince)},
		Confirmed:    true,
		PasswordHash: c.PasswordHash,
		PasswordSalt: c.PasswordSalt,
		SecretHash:   c.SecretHash,
		SecretSalt:   c.SecretSalt,
	}
}

// ToStoredUser copies every field of an update body into the persisted shape,
// hashes and salts included as given. Password order is taken from the slice.
func ToStoredUser(in model.User) model.User {
	out := in
	out.MemberSince = model.Date{Time: Day(in.MemberSince.Time)}
	if in.Passwords != nil {
		out.Passwords = make([]model.Password, len(in.Passwords))
		for i, p := range in.Passwords {
			p.UserID = in.ID
			p.Position = i
			out.Passwords[i] = p
		}
	}
	return out
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
