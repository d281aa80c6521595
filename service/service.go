// Package service provides business logic layer between HTTP handlers and repository
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/logger"
	"github.com/htol/bookstore/repo"
	"github.com/htol/bookstore/validator"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize    = 10
	MaxPageSize        = 100
	DefaultRecentSales = 5
)

var tracer = otel.Tracer("github.com/htol/bookstore/service")

// Service provides business logic for the application
type Service struct {
	repo        repo.Repository
	pageSize    int
	recentSales int
	now         func() time.Time
}

type Option func(*Service)

// WithPageSize sets how many books the dashboard page shows.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithRecentSales sets how many orders the dashboard shows.
func WithRecentSales(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentSales = n
		}
	}
}

// WithClock replaces time.Now for timestamping writes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a new Service with the given repository
func New(r repo.Repository, opts ...Option) *Service {
	s := &Service{
		repo:        r,
		pageSize:    DefaultPageSize,
		recentSales: DefaultRecentSales,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageSize is the number of rows on the dashboard's book page.
func (s *Service) PageSize() int { return s.pageSize }

// finish records err on span and ends it.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Books

// CreateBook validates the form and inserts the book, returning its id.
// Invalid forms come back as validator.FieldErrors and never reach the repository.
func (s *Service) CreateBook(ctx context.Context, form validator.CreateBookForm) (id int64, err error) {
	ctx, span := tracer.Start(ctx, "service.CreateBook")
	defer func() { finish(span, err) }()

	if err := validator.ValidateCreateBook(form); err != nil {
		return 0, err
	}

	now := s.now().UTC()
	id, err = s.repo.CreateBook(ctx, book.CreateBookPayload{
		Title:     form.Title,
		AuthorID:  form.Author.ID,
		GenreID:   form.Genre.ID,
		Price:     form.Price,
		Stock:     form.Stock,
		Year:      form.Year,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return 0, fmt.Errorf("create book: %w", err)
	}
	span.SetAttributes(attribute.Int64("book.id", id))
	logger.Info("Book created", "book_id", id, "title", form.Title)
	return id, nil
}

// UpdateBook validates the form and overwrites every editable field of book id.
func (s *Service) UpdateBook(ctx context.Context, id int64, form validator.UpdateBookForm) (err error) {
	ctx, span := tracer.Start(ctx, "service.UpdateBook", trace.WithAttributes(attribute.Int64("book.id", id)))
	defer func() { finish(span, err) }()

	if err := validator.ValidateUpdateBook(id, form); err != nil {
		return err
	}

	now := s.now().UTC()
	if err := s.repo.UpdateBook(ctx, book.UpdateBookPayload{
		ID:        id,
		Title:     &form.Title,
		AuthorID:  &form.Author.ID,
		GenreID:   &form.Genre.ID,
		Price:     &form.Price,
		Stock:     &form.Stock,
		Year:      &form.Year,
		UpdatedAt: &now,
	}); err != nil {
		return fmt.Errorf("update book %d: %w", id, err)
	}
	logger.Info("Book updated", "book_id", id)
	return nil
}

// DeleteBook removes book id. A missing book is not an error.
func (s *Service) DeleteBook(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "service.DeleteBook", trace.WithAttributes(attribute.Int64("book.id", id)))
	defer func() { finish(span, err) }()

	if err := validator.ValidateID(id); err != nil {
		return err
	}
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	logger.Info("Book deleted", "book_id", id)
	return nil
}

// SearchBooks returns up to repo.SearchLimit books whose title contains term.
// An empty term returns no rows without querying.
func (s *Service) SearchBooks(ctx context.Context, term string) (books []book.BookExtended, err error) {
	ctx, span := tracer.Start(ctx, "service.SearchBooks", trace.WithAttributes(attribute.String("search.term", term)))
	defer func() { finish(span, err) }()

	if validator.ValidateNonEmpty(term) != nil {
		return []book.BookExtended{}, nil
	}
	books, err = s.repo.SearchBooks(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search books %q: %w", term, err)
	}
	return books, nil
}

// GetMissingBooks returns the newest book not in excludeIDs, used to refill
// a page after a delete.
func (s *Service) GetMissingBooks(ctx context.Context, excludeIDs []int64) (books []book.BookExtended, err error) {
	ctx, span := tracer.Start(ctx, "service.GetMissingBooks", trace.WithAttributes(attribute.Int("exclude.count", len(excludeIDs))))
	defer func() { finish(span, err) }()

	books, err = s.repo.GetMissingBooks(ctx, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("get missing books: %w", err)
	}
	return books, nil
}

// ListBooks returns the newest books. A limit outside 1..MaxPageSize falls
// back to the page size.
func (s *Service) ListBooks(ctx context.Context, limit int) (books []book.BookExtended, err error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = s.pageSize
	}
	ctx, span := tracer.Start(ctx, "service.ListBooks", trace.WithAttributes(attribute.Int("limit", limit)))
	defer func() { finish(span, err) }()

	books, err = s.repo.ListBooks(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// GetBook retrieves a single book by ID
func (s *Service) GetBook(ctx context.Context, id int64) (b *book.BookExtended, err error) {
	ctx, span := tracer.Start(ctx, "service.GetBook", trace.WithAttributes(attribute.Int64("book.id", id)))
	defer func() { finish(span, err) }()

	if err := validator.ValidateID(id); err != nil {
		return nil, err
	}
	b, err = s.repo.GetBookByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book by ID %d: %w", id, err)
	}
	return b, nil
}

// Lookups

// GetAuthorsByName returns authors whose name contains name.
func (s *Service) GetAuthorsByName(ctx context.Context, name string) (authors []book.Author, err error) {
	ctx, span := tracer.Start(ctx, "service.GetAuthorsByName")
	defer func() { finish(span, err) }()

	authors, err = s.repo.GetAuthorsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get authors by name %q: %w", name, err)
	}
	return authors, nil
}

// GetGenresByName returns genres whose name contains name.
func (s *Service) GetGenresByName(ctx context.Context, name string) (genres []book.Genre, err error) {
	ctx, span := tracer.Start(ctx, "service.GetGenresByName")
	defer func() { finish(span, err) }()

	genres, err = s.repo.GetGenresByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get genres by name %q: %w", name, err)
	}
	return genres, nil
}

// AuthorRefs adapts GetAuthorsByName to an autocomplete lookup.
func (s *Service) AuthorRefs(ctx context.Context, name string) ([]book.Ref, error) {
	authors, err := s.GetAuthorsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return lo.Map(authors, func(a book.Author, _ int) book.Ref { return a.Ref() }), nil
}

// GenreRefs adapts GetGenresByName to an autocomplete lookup.
func (s *Service) GenreRefs(ctx context.Context, name string) ([]book.Ref, error) {
	genres, err := s.GetGenresByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return lo.Map(genres, func(g book.Genre, _ int) book.Ref { return g.Ref() }), nil
}

// Dashboard

// Dashboard is the admin landing page: the newest books and recent sales.
type Dashboard struct {
	Books       []book.BookExtended      `json:"books"`
	RecentSales []book.OrderWithCustomer `json:"recentSales"`
}

// RecentSales returns the newest limit orders with their customers.
func (s *Service) RecentSales(ctx context.Context, limit int) (sales []book.OrderWithCustomer, err error) {
	if limit <= 0 {
		limit = s.recentSales
	}
	ctx, span := tracer.Start(ctx, "service.RecentSales")
	defer func() { finish(span, err) }()

	sales, err = s.repo.RecentSales(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}
	return sales, nil
}

// Dashboard loads the book page and recent sales concurrently.
func (s *Service) Dashboard(ctx context.Context) (d *Dashboard, err error) {
	ctx, span := tracer.Start(ctx, "service.Dashboard")
	defer func() { finish(span, err) }()

	d = &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		books, err := s.ListBooks(gctx, s.pageSize)
		d.Books = books
		return err
	})
	g.Go(func() error {
		sales, err := s.RecentSales(gctx, s.recentSales)
		d.RecentSales = sales
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	return d, nil
}

// Health

// Ping checks the health of the service and its dependencies
func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository ping: %w", err)
	}
	return nil
}
