package repo

import (
	"context"
	"errors"

	"github.com/htol/bookstore/book"
)

var (
	// ErrNotFound is returned when a record is not found in the repository
	ErrNotFound = errors.New("record not found")
	// ErrMissingID is returned by UpdateBook when the payload carries no id
	ErrMissingID = errors.New("book id is required")
)

// Repository defines the interface for data access operations
type Repository interface {
	Close() error
	Ping(ctx context.Context) error

	// Books
	CreateBook(ctx context.Context, payload book.CreateBookPayload) (int64, error)
	UpdateBook(ctx context.Context, payload book.UpdateBookPayload) error
	DeleteBook(ctx context.Context, id int64) error
	SearchBooks(ctx context.Context, term string) ([]book.BookExtended, error)
	GetMissingBooks(ctx context.Context, excludeIDs []int64) ([]book.BookExtended, error)
	ListBooks(ctx context.Context, limit int) ([]book.BookExtended, error)
	GetBookByID(ctx context.Context, id int64) (*book.BookExtended, error)

	// Lookups
	GetAuthorsByName(ctx context.Context, name string) ([]book.Author, error)
	GetGenresByName(ctx context.Context, name string) ([]book.Genre, error)

	// Orders
	RecentSales(ctx context.Context, limit int) ([]book.OrderWithCustomer, error)
}

var _ Repository = (*Repo)(nil)
