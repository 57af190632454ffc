package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/SGullin/arpa/internal/archivist"
)

// User is a registered user on this installation.
type User struct {
	id int64

	Username  string
	RealName  string
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
}

var _ archivist.Entity = (*User)(nil)

func (*User) Table() archivist.Table { return archivist.TableUsers }
func (u *User) ID() int64            { return u.id }
func (u *User) SetID(id int64)       { u.id = id }

func (*User) InsertColumns() []string {
	return []string{"username", "real_name", "email", "is_admin", "created_at"}
}
func (u *User) InsertValues() []any {
	return []any{u.Username, u.RealName, u.Email, u.IsAdmin, u.CreatedAt}
}
func (*User) SelectColumns() []string {
	return []string{"id", "username", "real_name", "email", "is_admin", "created_at"}
}
func (u *User) ScanDests() []any {
	return []any{&u.id, &u.Username, &u.RealName, &u.Email, &u.IsAdmin, &u.CreatedAt}
}
func (*User) UniqueColumns() []string { return []string{"username", "email"} }
func (u *User) UniqueValues() []any   { return []any{u.Username, u.Email} }

// NewUser validates the fields and builds a user. The username is
// lowercased; the creation time is recorded now.
func NewUser(username, realName, email string, admin bool) (*User, error) {
	username, err := validateUsername(username)
	if err != nil {
		return nil, err
	}
	if len(realName) < 3 {
		return nil, &MalformedInputError{
			Text: fmt.Sprintf("%q; name must be over 2 characters long", realName),
		}
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	return &User{
		Username:  username,
		RealName:  realName,
		Email:     email,
		IsAdmin:   admin,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func validateUsername(name string) (string, error) {
	if len(name) < 3 || len(name) > 12 {
		return "", &MalformedInputError{
			Text: fmt.Sprintf("%q; username must be 3-12 characters long", name),
		}
	}
	for _, c := range name {
		if c > 127 {
			return "", &MalformedInputError{
				Text: fmt.Sprintf("%q; username must be only ASCII", name),
			}
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			return "", &MalformedInputError{
				Text: fmt.Sprintf("%q; username cannot contain whitespace", name),
			}
		}
	}
	return strings.ToLower(name), nil
}

// Some very basic email checking.
func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 0 {
		return &MalformedInputError{
			Text: fmt.Sprintf("%q; email addresses need an @", email),
		}
	}
	if dot := strings.LastIndex(email, "."); dot <= at {
		return &MalformedInputError{
			Text: fmt.Sprintf("%q; email addresses need a domain", email),
		}
	}
	return nil
}
