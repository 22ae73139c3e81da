package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nexustechhub/nexus-api/internal/database"
	"github.com/nexustechhub/nexus-api/internal/models"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrEmailTaken       = errors.New("an account with this email already exists")
)

const customerColumns = `id, email, full_name, phone, role, password_hash, created_at, last_login`

// Customers is the customers profile table.
type Customers struct {
	db *sqlx.DB
}

func NewCustomers(db *sqlx.DB) *Customers {
	return &Customers{db: db}
}

func (s *Customers) get(ctx context.Context, where string, arg any) (*models.Customer, error) {
	var c models.Customer
	q := s.db.Rebind("SELECT " + customerColumns + " FROM customers WHERE " + where + " = ?")
	if err := s.db.GetContext(ctx, &c, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// Get loads a customer by id.
func (s *Customers) Get(ctx context.Context, id string) (*models.Customer, error) {
	return s.get(ctx, "id", id)
}

// FindByEmail loads a customer by email (case-insensitive).
func (s *Customers) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return s.get(ctx, "email", normalizeEmail(email))
}

// Create inserts a profile row.
func (s *Customers) Create(ctx context.Context, c *models.Customer) error {
	if c.Role == "" {
		c.Role = models.RoleCustomer
	}
	c.Email = normalizeEmail(c.Email)
	q := s.db.Rebind(`INSERT INTO customers (id, email, full_name, phone, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q, c.ID, c.Email, c.FullName, c.Phone, c.Role, c.PasswordHash, c.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// SaveProfile mirrors an identity into the profile table: the row is created
// when missing, otherwise its name and phone are refreshed.
func (s *Customers) SaveProfile(ctx context.Context, c *models.Customer) error {
	q := s.db.Rebind("UPDATE customers SET full_name = ?, phone = COALESCE(?, phone) WHERE id = ?")
	res, err := s.db.ExecContext(ctx, q, c.FullName, c.Phone, c.ID)
	if err != nil {
		return fmt.Errorf("update customer profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return s.Create(ctx, c)
}

// TouchLogin records a successful sign-in.
func (s *Customers) TouchLogin(ctx context.Context, id string, at time.Time) error {
	q := s.db.Rebind("UPDATE customers SET last_login = ? WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, q, at, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// Role returns the customer's role.
func (s *Customers) Role(ctx context.Context, id string) (string, error) {
	var role string
	q := s.db.Rebind("SELECT role FROM customers WHERE id = ?")
	if err := s.db.GetContext(ctx, &role, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCustomerNotFound
		}
		return "", fmt.Errorf("query customer role: %w", err)
	}
	return role, nil
}
