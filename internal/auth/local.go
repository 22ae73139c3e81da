package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nexustechhub/nexus-api/internal/models"
)

// LocalProvider keeps bcrypt hashes in the customers table and issues its
// own tokens. It is used when no hosted provider is configured.
type LocalProvider struct {
	customers *Customers
	tokens    *Tokens
	now       func() time.Time
}

func NewLocalProvider(customers *Customers, tokens *Tokens) *LocalProvider {
	return &LocalProvider{customers: customers, tokens: tokens, now: func() time.Time { return time.Now().UTC() }}
}

func (p *LocalProvider) Name() string { return "local" }

// SignUp hashes the password and creates the customer row.
func (p *LocalProvider) SignUp(ctx context.Context, in SignUpInput) (*Identity, error) {
	var pw models.Password
	if err := pw.Set(in.Password); err != nil {
		return nil, err
	}
	c := &models.Customer{
		ID:           uuid.NewString(),
		Email:        in.Email,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         models.RoleCustomer,
		PasswordHash: &pw.Hash,
		CreatedAt:    p.now(),
	}
	if err := p.customers.Create(ctx, c); err != nil {
		return nil, err
	}
	return p.identity(c)
}

// SignIn compares the password with the stored hash.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	c, err := p.customers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if c.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	pw := models.Password{Hash: *c.PasswordHash}
	ok, err := pw.Matches(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return p.identity(c)
}

func (p *LocalProvider) identity(c *models.Customer) (*Identity, error) {
	token, err := p.tokens.GenerateToken(c.ID, c.Email)
	if err != nil {
		return nil, err
	}
	return &Identity{ID: c.ID, Email: c.Email, AccessToken: token, ExpiresIn: int64(p.tokens.TTL().Seconds())}, nil
}
