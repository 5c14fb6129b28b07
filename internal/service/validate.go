package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/and161185/passlocker/internal/errs"
	"github.com/and161185/passlocker/internal/model"
)

const (
	maxUsername = 64
	maxName     = 128
	maxLocation = 128
	maxGender   = 32
)

type checker []string

func (c *checker) required(field, v string) {
	if strings.TrimSpace(v) == "" {
		*c = append(*c, field+": required")
	}
}

func (c *checker) maxLen(field, v string, n int) {
	if utf8.RuneCountInString(v) > n {
		*c = append(*c, fmt.Sprintf("%s: longer than %d characters", field, n))
	}
}

func (c *checker) email(v string) {
	if strings.TrimSpace(v) == "" {
		return
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		*c = append(*c, "email: must be a valid address")
	}
}

func (c *checker) present(field string, v []byte) {
	if len(v) == 0 {
		*c = append(*c, field+": required")
	}
}

func (c checker) err() error {
	if len(c) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", errs.ErrValidation, strings.Join(c, "; "))
}

func (c *checker) profileFields(username, email, name, location, gender string) {
	c.required("username", username)
	c.maxLen("username", username, maxUsername)
	c.required("email", email)
	c.email(email)
	c.maxLen("name", name, maxName)
	c.maxLen("location", location, maxLocation)
	c.maxLen("gender", gender, maxGender)
}

func validateProfile(p *model.GoogleBasicUserProfile) error {
	var c checker
	c.profileFields(p.Username, p.Email, p.Name, p.Location, p.Gender)
	c.required("password", p.Password)
	c.required("secret", p.Secret)
	return c.err()
}

func validateUser(u *model.User) error {
	var c checker
	c.required("id", u.ID)
	c.profileFields(u.Username, u.Email, u.Name, u.Location, u.Gender)
	// stored as given, so both pairs must travel with the body
	c.present("password_hash", u.PasswordHash)
	c.present("password_salt", u.PasswordSalt)
	c.present("secret_hash", u.SecretHash)
	c.present("secret_salt", u.SecretSalt)
	return c.err()
}
