// Package model defines domain entities and transport shapes used by services and handlers.
package model

import (
	"bytes"
	"fmt"
	"time"
)

// DateLayout is the wire format of Date.
const DateLayout = "2006-01-02"

// Date is a calendar day. It is encoded in JSON as "2006-01-02"; the zero value is null.
type Date struct{ time.Time }

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts a date, an RFC 3339 timestamp, an empty string or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		d.Time = time.Time{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("date: want a JSON string, got %s", b)
	}
	s := string(b[1 : len(b)-1])
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("date %q: %w", s, err)
		}
	}
	d.Time = t
	return nil
}

// User represents an account stored on the server. Password and secret are never stored in plaintext.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Location     string     `json:"location"`
	Gender       string     `json:"gender"`
	MemberSince  Date       `json:"member_since"`
	Confirmed    bool       `json:"confirmed"`
	PasswordHash []byte     `json:"password_hash"`
	PasswordSalt []byte     `json:"password_salt"`
	SecretHash   []byte     `json:"secret_hash"`
	SecretSalt   []byte     `json:"secret_salt"`
	Passwords    []Password `json:"passwords"`
}

// Password is a stored credential owned by a user. Position keeps the order within the owner.
type Password struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Title    string `json:"title"`
	Login    string `json:"login"`
	Value    []byte `json:"value"` // opaque, stored as given
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// UserView is the outbound user shape. It never carries hashes or salts.
type UserView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Confirmed   bool   `json:"confirmed"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	MemberSince Date   `json:"member_since"`
}

// GoogleBasicUserProfile is the inbound shape for user creation.
type GoogleBasicUserProfile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Secret   string `json:"secret"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Gender   string `json:"gender"`
}
