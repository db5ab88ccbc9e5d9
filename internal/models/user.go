package models

import (
	"maps"
	"time"
)

// Credential is the stored algorithm/hash/salt/params being attacked
type Credential struct {
	Algorithm string         `json:"algorithm"`
	Hash      string         `json:"hash"`
	Salt      string         `json:"salt,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// Clone copies the credential including its params map. Params are flat
// scalars, so a shallow map copy is sufficient.
func (c Credential) Clone() Credential {
	out := c
	if c.Params != nil {
		out.Params = maps.Clone(c.Params)
	}
	return out
}

// User is a row of the users table. The user record doubles as the credential.
type User struct {
	ID        int64          `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Hash      string         `json:"hash"`
	Algorithm string         `json:"algorithm"`
	Salt      *string        `json:"salt"`
	Params    map[string]any `json:"params"`
	CreatedAt time.Time      `json:"created_at"`
}

// Credential snapshots the user's stored credential
func (u *User) Credential() Credential {
	c := Credential{
		Algorithm: u.Algorithm,
		Hash:      u.Hash,
		Params:    u.Params,
	}
	if u.Salt != nil {
		c.Salt = *u.Salt
	}
	return c.Clone()
}

// RegisterUserRequest is the registration payload
type RegisterUserRequest struct {
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	Algorithm string         `json:"algorithm"`
	Params    map[string]any `json:"params"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult reports whether the supplied password verified
type LoginResult struct {
	Username  string `json:"username"`
	Algorithm string `json:"algorithm"`
	Success   bool   `json:"success"`
}
