package auth

import (
	"context"
	"errors"
	"strings"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Identity is what a provider returns after sign-up or sign-in.
type Identity struct {
	ID          string
	Email       string
	AccessToken string // empty when the provider requires email confirmation first
	ExpiresIn   int64  // seconds
}

// SignUpInput is a new account.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Phone    *string
}

// Provider checks credentials. The storefront never stores passwords itself
// when a hosted provider is configured.
type Provider interface {
	Name() string
	SignUp(ctx context.Context, in SignUpInput) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
