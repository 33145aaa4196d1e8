package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "lacestore/internal/log"
)

// OpenDB opens the store, applies the schema and seeds demo data on first run.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// ":memory:" databases live per connection; a single one also keeps the
	// tx carried in ctx the only writer.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS categories(
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories(LOWER(name));

CREATE TABLE IF NOT EXISTS brands(
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_brands_name ON brands(LOWER(name));

CREATE TABLE IF NOT EXISTS styles(
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_styles_name ON styles(LOWER(name));

CREATE TABLE IF NOT EXISTS colors(
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_colors_name ON colors(LOWER(name));

CREATE TABLE IF NOT EXISTS sizes(
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_sizes_name ON sizes(LOWER(name));

CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY,
  category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  brand_id INTEGER NOT NULL REFERENCES brands(id) ON DELETE RESTRICT,
  style_id INTEGER NOT NULL REFERENCES styles(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  sale INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

CREATE TABLE IF NOT EXISTS product_variants(
  id INTEGER PRIMARY KEY,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  color_id INTEGER NOT NULL REFERENCES colors(id) ON DELETE RESTRICT,
  size_id INTEGER NOT NULL REFERENCES sizes(id) ON DELETE RESTRICT,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  UNIQUE(product_id, color_id, size_id)
);

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id),
  order_number TEXT NOT NULL UNIQUE,
  total TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING'
    CHECK (status IN ('PENDING','PAID','CONFIRMED','SHIPPED','DELIVERED')),
  created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user       ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  variant_id INTEGER REFERENCES product_variants(id) ON DELETE SET NULL,
  product_id INTEGER NOT NULL,
  product_name TEXT NOT NULL,
  color TEXT NOT NULL,
  size TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  price TEXT NOT NULL,
  subtotal TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

CREATE TABLE IF NOT EXISTS payment_notifications(
  dedup_key TEXT PRIMARY KEY,
  order_id INTEGER NOT NULL,
  outcome TEXT NOT NULL,
  received_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payment_notifications_order ON payment_notifications(order_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.L().Info("seed", zap.String("what", "catalog"))

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`INSERT INTO categories(id,name) VALUES (1,'Bras'),(2,'Panties'),(3,'Sets'),(4,'Nightwear')`,
		`INSERT INTO brands(id,name) VALUES (1,'Maison Lace'),(2,'Velvet Rose')`,
		`INSERT INTO styles(id,name) VALUES (1,'Balconette'),(2,'Push-up'),(3,'Bralette'),(4,'Brief')`,
		`INSERT INTO colors(id,name) VALUES (1,'red'),(2,'black'),(3,'ivory')`,
		`INSERT INTO sizes(id,name) VALUES (1,'S'),(2,'M'),(3,'L'),(4,'XXL')`,
		`INSERT INTO products(id,category_id,brand_id,style_id,name,description,price,sale,created_at) VALUES
		  (42,1,1,1,'Lace Balconette Bra','Scalloped lace with underwire support','20.00',0,'2024-01-10 10:00:00'),
		  (43,1,2,3,'Silk Bralette','Unlined silk bralette','35.50',1,'2024-02-01 09:30:00'),
		  (44,2,2,4,'Velvet Brief','Mid-rise velvet brief','12.25',0,'2024-02-14 12:00:00'),
		  (45,3,1,2,'Midnight Set','Push-up bra with matching brief','59.99',1,'2024-03-05 18:45:00')`,
		`INSERT INTO product_variants(id,product_id,color_id,size_id,stock) VALUES
		  (1,42,1,2,5),
		  (2,42,2,2,2),
		  (3,42,1,3,0),
		  (4,43,3,1,8),
		  (5,43,2,4,3),
		  (6,44,2,2,10),
		  (7,45,1,4,1),
		  (8,45,2,3,6)`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role string
	}
	users := []u{
		{"u-alice", "alice@lacestore.test", "Alice", "USER"},
		{"u-bob", "bob@lacestore.test", "Bob", "USER"},
		{"u-admin", "admin@lacestore.test", "Admin", "ADMIN"},
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n >= len(users) {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, string(hash), x.Role); err != nil {
			return err
		}
	}
	return tx.Commit()
}
