package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/logger"
	"github.com/samber/lo"
)

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertReturningID(ctx context.Context, db queryRower, q squirrel.InsertBuilder) (int64, error) {
	query, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repo) CreateAuthor(ctx context.Context, a book.Author) (int64, error) {
	id, err := insertReturningID(ctx, r.db, r.sq.Insert("authors").
		Columns("name", "bio", "created_at", "updated_at").
		Values(a.Name, a.Bio, a.CreatedAt, a.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert author %q: %w", a.Name, err)
	}
	return id, nil
}

func (r *Repo) CreateGenre(ctx context.Context, g book.Genre) (int64, error) {
	id, err := insertReturningID(ctx, r.db, r.sq.Insert("genres").
		Columns("name", "created_at", "updated_at").
		Values(g.Name, g.CreatedAt, g.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert genre %q: %w", g.Name, err)
	}
	return id, nil
}

func (r *Repo) CreateCustomer(ctx context.Context, c book.Customer) (int64, error) {
	id, err := insertReturningID(ctx, r.db, r.sq.Insert("customers").
		Columns("name", "email", "created_at", "updated_at").
		Values(c.Name, c.Email, c.CreatedAt, c.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert customer %q: %w", c.Email, err)
	}
	return id, nil
}

// CreateOrder inserts an order and its items in one transaction. The stored
// total is the sum of the item prices; it is never recomputed afterwards.
func (r *Repo) CreateOrder(ctx context.Context, o book.Order, items []book.OrderItem) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			logger.Error("Failed to rollback order transaction", "error", err)
		}
	}()

	total := lo.SumBy(items, func(it book.OrderItem) int64 { return it.Price })

	orderID, err := insertReturningID(ctx, tx, r.sq.Insert("orders").
		Columns("customer_id", "total_price", "created_at", "updated_at").
		Values(o.CustomerID, total, o.CreatedAt, o.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	if len(items) > 0 {
		q := r.sq.Insert("order_items").
			Columns("order_id", "book_id", "quantity", "price", "created_at", "updated_at")
		for _, it := range items {
			q = q.Values(orderID, it.BookID, it.Quantity, it.Price, it.CreatedAt, it.UpdatedAt)
		}
		query, args, err := q.ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert order items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert order items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit order: %w", err)
	}
	return orderID, nil
}

// Truncate deletes every row from every table, children first.
func (r *Repo) Truncate(ctx context.Context) error {
	for i := len(tables) - 1; i >= 0; i-- {
		query, args, err := r.sq.Delete(tables[i]).ToSql()
		if err != nil {
			return fmt.Errorf("build delete %s: %w", tables[i], err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete from %s: %w", tables[i], err)
		}
	}
	return nil
}
