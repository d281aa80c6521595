package repo

import (
	"context"
	"fmt"

	"github.com/htol/bookstore/book"
)

// RecentSales returns the newest orders together with the customer who
// placed them.
func (r *Repo) RecentSales(ctx context.Context, limit int) ([]book.OrderWithCustomer, error) {
	query, args, err := r.sq.
		Select(
			"orders.id", "orders.customer_id", "orders.total_price",
			"orders.created_at", "orders.updated_at",
			"customers.name", "customers.email",
		).
		From("orders").
		Join("customers ON customers.id = orders.customer_id").
		OrderBy("orders.created_at DESC", "orders.id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent sales query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent sales: %w", err)
	}
	defer rows.Close()

	sales := make([]book.OrderWithCustomer, 0)
	for rows.Next() {
		var o book.OrderWithCustomer
		if err := rows.Scan(
			&o.ID, &o.CustomerID, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt,
			&o.CustomerName, &o.CustomerEmail,
		); err != nil {
			return nil, fmt.Errorf("scan recent sale: %w", err)
		}
		sales = append(sales, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent sales: %w", err)
	}

	return sales, nil
}
