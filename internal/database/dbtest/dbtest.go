// Package dbtest provides an in-memory SQLite database carrying the
// storefront schema, for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/nexustechhub/nexus-api/internal/database"
)

const schema = `
CREATE TABLE categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  parent_id INTEGER
);

CREATE TABLE brands (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE
);

CREATE TABLE products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  price NUMERIC NOT NULL,
  discount_percentage NUMERIC NOT NULL DEFAULT 0,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  category_id INTEGER,
  brand_id INTEGER,
  image_url TEXT,
  rating NUMERIC NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE customers (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  password_hash TEXT,
  created_at DATETIME NOT NULL,
  last_login DATETIME
);

CREATE TABLE orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  customer_id TEXT NOT NULL,
  status TEXT NOT NULL,
  currency TEXT NOT NULL,
  subtotal INTEGER NOT NULL,
  shipping INTEGER NOT NULL,
  vat INTEGER NOT NULL,
  total INTEGER NOT NULL,
  tax_source TEXT NOT NULL,
  created_at DATETIME NOT NULL
);

CREATE TABLE order_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME NOT NULL
);

CREATE TABLE outreach_campaigns (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  channels TEXT NOT NULL DEFAULT '[]',
  start_date DATETIME,
  end_date DATETIME,
  status TEXT NOT NULL DEFAULT 'draft',
  schedule_options TEXT,
  created_by TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);

CREATE TABLE outreach_messages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  campaign_id INTEGER NOT NULL,
  channel TEXT NOT NULL,
  subject TEXT,
  template TEXT NOT NULL,
  template_variables TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  UNIQUE (campaign_id, channel)
);

CREATE TABLE recipients (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT,
  email TEXT,
  phone TEXT,
  platform TEXT,
  platform_id TEXT,
  metadata TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);

CREATE TABLE campaign_recipients (
  campaign_id INTEGER NOT NULL,
  recipient_id INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  added_at DATETIME NOT NULL,
  updated_at DATETIME,
  PRIMARY KEY (campaign_id, recipient_id)
);

CREATE TABLE outreach_attempts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  campaign_id INTEGER NOT NULL,
  recipient_id INTEGER NOT NULL,
  message_id INTEGER,
  channel TEXT NOT NULL,
  status TEXT NOT NULL,
  error_details TEXT,
  message_content TEXT,
  sent_at DATETIME NOT NULL
);

CREATE TABLE contact_inquiries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  company TEXT,
  subject TEXT,
  message TEXT NOT NULL,
  inquiry_type TEXT,
  status TEXT NOT NULL DEFAULT 'new',
  ip_address TEXT,
  user_agent TEXT,
  created_at DATETIME NOT NULL
);

CREATE TABLE newsletter_subscribers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  name TEXT,
  status TEXT NOT NULL DEFAULT 'subscribed',
  created_at DATETIME NOT NULL
);
`

// Open returns a fresh in-memory database with the schema applied. It is
// closed when the test finishes.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.OpenDB(context.Background(), database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedCatalog inserts a small catalog: two categories, two brands and five
// products (ids 1..5). Product 5 is out of stock.
func SeedCatalog(t testing.TB, db *sqlx.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO categories (id, name, slug, parent_id) VALUES
		  (1, 'iPhone Parts', 'iphone-parts', NULL),
		  (2, 'Samsung Parts', 'samsung-parts', NULL),
		  (3, 'iPhone 13 Series', 'iphone-13-series', 1)`,
		`INSERT INTO brands (id, name, slug) VALUES (1, 'Apple', 'apple'), (2, 'Samsung', 'samsung')`,
		`INSERT INTO products (id, name, slug, price, discount_percentage, stock_quantity, category_id, brand_id, image_url, rating, review_count) VALUES
		  (1, 'iPhone 13 Pro OLED Screen', 'iphone-13-pro-oled-screen', 129.99, 0, 15, 1, 1, '/img/1.jpg', 4.5, 28),
		  (2, 'iPhone 13 Pro Battery', 'iphone-13-pro-battery', 49.99, 10, 25, 1, 1, '/img/2.jpg', 4.7, 32),
		  (3, 'iPhone 12 Charging Port', 'iphone-12-charging-port', 119.00, 0, 8, 1, 1, '/img/3.jpg', 4.1, 9),
		  (4, 'Galaxy S22 Battery', 'galaxy-s22-battery', 39.99, 15, 23, 2, 2, '/img/4.jpg', 4.2, 17),
		  (5, 'Galaxy S21 Screen', 'galaxy-s21-screen', 119.99, 0, 0, 2, 2, '/img/5.jpg', 4.9, 50)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
}
