package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/htol/bookstore/logger"
)

// Column types differ between the two drivers; everything else is shared.
type dialect struct {
	pk  string
	now string
}

var dialects = map[string]dialect{
	"sqlite3":  {pk: "INTEGER PRIMARY KEY AUTOINCREMENT", now: "CURRENT_TIMESTAMP"},
	"postgres": {pk: "SERIAL PRIMARY KEY", now: "now()"},
}

const schemaTemplate = `
	CREATE TABLE IF NOT EXISTS authors (
		id {pk},
		name VARCHAR NOT NULL,
		bio VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT {now},
		updated_at TIMESTAMP NOT NULL DEFAULT {now}
	);

	CREATE TABLE IF NOT EXISTS genres (
		id {pk},
		name VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT {now},
		updated_at TIMESTAMP NOT NULL DEFAULT {now}
	);

	CREATE TABLE IF NOT EXISTS books (
		id {pk},
		title VARCHAR NOT NULL,
		author_id INTEGER NOT NULL REFERENCES authors(id),
		genre_id INTEGER NOT NULL REFERENCES genres(id),
		price INTEGER NOT NULL,
		stock INTEGER NOT NULL,
		year INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT {now},
		updated_at TIMESTAMP NOT NULL DEFAULT {now}
	);
	CREATE INDEX IF NOT EXISTS idx_books_created_at ON books (created_at);
	CREATE INDEX IF NOT EXISTS idx_books_author_id ON books (author_id);
	CREATE INDEX IF NOT EXISTS idx_books_genre_id ON books (genre_id);

	CREATE TABLE IF NOT EXISTS customers (
		id {pk},
		name VARCHAR NOT NULL,
		email VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT {now},
		updated_at TIMESTAMP NOT NULL DEFAULT {now}
	);

	CREATE TABLE IF NOT EXISTS orders (
		id {pk},
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		total_price INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT {now},
		updated_at TIMESTAMP NOT NULL DEFAULT {now}
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id {pk},
		order_id INTEGER NOT NULL REFERENCES orders(id),
		book_id INTEGER NOT NULL REFERENCES books(id),
		quantity INTEGER NOT NULL,
		price INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT {now},
		updated_at TIMESTAMP NOT NULL DEFAULT {now}
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id);
	CREATE INDEX IF NOT EXISTS idx_order_items_book_id ON order_items (book_id);
`

// Tables in dependency order: children come after their parents.
var tables = []string{"authors", "genres", "books", "customers", "orders", "order_items"}

func (r *Repo) schema() (string, error) {
	d, ok := dialects[r.driver]
	if !ok {
		return "", fmt.Errorf("unsupported driver %q", r.driver)
	}
	return strings.NewReplacer("{pk}", d.pk, "{now}", d.now).Replace(schemaTemplate), nil
}

// Migrate creates the six tables and their indexes if they do not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	stmt, err := r.schema()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	logger.Debug("Schema is up to date", "driver", r.driver)
	return nil
}

// Drop removes all tables, children first.
func (r *Repo) Drop(ctx context.Context) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+tables[i]); err != nil {
			return fmt.Errorf("drop table %s: %w", tables[i], err)
		}
	}
	logger.Info("Schema dropped", "driver", r.driver)
	return nil
}
