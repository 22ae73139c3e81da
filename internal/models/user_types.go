package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Customer is the profile row mirrored from the identity provider.
type Customer struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	FullName     string     `json:"fullName" db:"full_name"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	Role         string     `json:"role" db:"role"`
	PasswordHash *string    `json:"-" db:"password_hash"` // only for the local provider
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" db:"last_login"`
}

// Customer roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Password Helper (Standard)
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
