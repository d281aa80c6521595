// Package seed fills an empty catalog with fake authors, genres, books,
// customers and orders for development.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/logger"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Genres are the fixed genres every seeded catalog has.
var Genres = []string{
	"Fiction",
	"Mystery",
	"Science Fiction",
	"Romance",
	"Fantasy",
	"Biography",
	"History",
	"Self-Help",
	"Business",
	"Technology",
}

type Storager interface {
	Truncate(ctx context.Context) error
	CreateAuthor(ctx context.Context, a book.Author) (int64, error)
	CreateGenre(ctx context.Context, g book.Genre) (int64, error)
	CreateBook(ctx context.Context, p book.CreateBookPayload) (int64, error)
	CreateCustomer(ctx context.Context, c book.Customer) (int64, error)
	CreateOrder(ctx context.Context, o book.Order, items []book.OrderItem) (int64, error)
}

type Options struct {
	Authors   int
	Books     int
	Customers int
	Orders    int
	// Seed makes the data reproducible. Zero picks a random seed.
	Seed int64
	Now  time.Time
}

func DefaultOptions() Options {
	return Options{Authors: 20, Books: 100, Customers: 50, Orders: 100}
}

// Summary counts the rows written.
type Summary struct {
	Authors    int
	Genres     int
	Books      int
	Customers  int
	Orders     int
	OrderItems int
}

type order struct {
	order book.Order
	items []book.OrderItem
}

type seeder struct {
	fake *gofakeit.Faker
	now  time.Time
}

// past is a time within the last year.
func (s *seeder) past() time.Time {
	return s.fake.DateRange(s.now.AddDate(-1, 0, 0), s.now).UTC()
}

// recent is a time within the last week.
func (s *seeder) recent() time.Time {
	return s.fake.DateRange(s.now.AddDate(0, 0, -7), s.now).UTC()
}

func (s *seeder) pick(ids []int64) int64 {
	return ids[s.fake.Number(0, len(ids)-1)]
}

// Run wipes storage and writes a fresh fake catalog.
func Run(ctx context.Context, storage Storager, opts Options) (Summary, error) {
	var sum Summary
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	s := &seeder{fake: gofakeit.New(opts.Seed), now: opts.Now}

	if err := storage.Truncate(ctx); err != nil {
		return sum, fmt.Errorf("truncate: %w", err)
	}

	authorIDs := make([]int64, 0, opts.Authors)
	for i := 0; i < opts.Authors; i++ {
		id, err := storage.CreateAuthor(ctx, book.Author{
			Name:      s.fake.Name(),
			Bio:       s.fake.Paragraph(1, 3, 12, " "),
			CreatedAt: s.past(),
			UpdatedAt: s.recent(),
		})
		if err != nil {
			return sum, err
		}
		authorIDs = append(authorIDs, id)
	}
	sum.Authors = len(authorIDs)

	genreIDs := make([]int64, 0, len(Genres))
	for _, name := range Genres {
		id, err := storage.CreateGenre(ctx, book.Genre{Name: name, CreatedAt: s.past(), UpdatedAt: s.recent()})
		if err != nil {
			return sum, err
		}
		genreIDs = append(genreIDs, id)
	}
	sum.Genres = len(genreIDs)

	if opts.Books > 0 && (len(authorIDs) == 0 || len(genreIDs) == 0) {
		return sum, fmt.Errorf("seed books: need at least one author and genre")
	}
	bookIDs := make([]int64, 0, opts.Books)
	for i := 0; i < opts.Books; i++ {
		id, err := storage.CreateBook(ctx, book.CreateBookPayload{
			Title:     s.fake.ProductName(),
			AuthorID:  s.pick(authorIDs),
			GenreID:   s.pick(genreIDs),
			Price:     int64(s.fake.Number(10, 100)),
			Stock:     int64(s.fake.Number(0, 100)),
			Year:      int64(s.fake.Number(1900, 2024)),
			CreatedAt: s.past(),
			UpdatedAt: s.recent(),
		})
		if err != nil {
			return sum, err
		}
		bookIDs = append(bookIDs, id)
	}
	sum.Books = len(bookIDs)

	customerIDs := make([]int64, 0, opts.Customers)
	for i := 0; i < opts.Customers; i++ {
		id, err := storage.CreateCustomer(ctx, book.Customer{
			Name:      s.fake.Name(),
			Email:     s.fake.Email(),
			CreatedAt: s.past(),
			UpdatedAt: s.recent(),
		})
		if err != nil {
			return sum, err
		}
		customerIDs = append(customerIDs, id)
	}
	sum.Customers = len(customerIDs)

	if opts.Orders > 0 && (len(customerIDs) == 0 || len(bookIDs) == 0) {
		return sum, fmt.Errorf("seed orders: need at least one customer and book")
	}

	// Orders are generated on one goroutine and written on another.
	orders := make(chan order)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(orders)
		for i := 0; i < opts.Orders; i++ {
			o := s.order(customerIDs, bookIDs)
			select {
			case orders <- o:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for o := range orders {
			if _, err := storage.CreateOrder(gctx, o.order, o.items); err != nil {
				return err
			}
			sum.Orders++
			sum.OrderItems += len(o.items)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return sum, fmt.Errorf("seed orders: %w", err)
	}

	logger.Info("Seed completed",
		"authors", sum.Authors, "genres", sum.Genres, "books", sum.Books,
		"customers", sum.Customers, "orders", sum.Orders, "order_items", sum.OrderItems)
	return sum, nil
}

// order builds an order of 1 to 5 items. Each item's price is its quantity
// times a unit price of 10 to 100, and the order total is their sum.
func (s *seeder) order(customerIDs, bookIDs []int64) order {
	n := s.fake.Number(1, 5)
	items := lo.Times(n, func(int) book.OrderItem {
		quantity := int64(s.fake.Number(1, 5))
		unit := int64(s.fake.Number(10, 100))
		return book.OrderItem{
			BookID:    s.pick(bookIDs),
			Quantity:  quantity,
			Price:     quantity * unit,
			CreatedAt: s.past(),
			UpdatedAt: s.recent(),
		}
	})
	created := s.recent()
	return order{
		order: book.Order{
			CustomerID: s.pick(customerIDs),
			TotalPrice: lo.SumBy(items, func(it book.OrderItem) int64 { return it.Price }),
			CreatedAt:  created,
			UpdatedAt:  s.recent(),
		},
		items: items,
	}
}
