package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/logger"
	"github.com/htol/bookstore/validator"
)

// Backend is the set of server operations the book list calls.
// *service.Service implements it.
type Backend interface {
	ListBooks(ctx context.Context, limit int) ([]book.BookExtended, error)
	SearchBooks(ctx context.Context, term string) ([]book.BookExtended, error)
	GetMissingBooks(ctx context.Context, excludeIDs []int64) ([]book.BookExtended, error)
	CreateBook(ctx context.Context, form validator.CreateBookForm) (int64, error)
	UpdateBook(ctx context.Context, id int64, form validator.UpdateBookForm) error
	DeleteBook(ctx context.Context, id int64) error
	AuthorRefs(ctx context.Context, name string) ([]book.Ref, error)
	GenreRefs(ctx context.Context, name string) ([]book.Ref, error)
}

// BookList is the book table of the admin dashboard. Every method is safe
// for concurrent use; a failed call leaves the state as it was and records
// the error.
type BookList struct {
	backend Backend
	now     func() time.Time

	mu    sync.Mutex
	state State
	err   error
}

// NewBookList returns an empty list. Call Refresh to load the first page.
func NewBookList(backend Backend, pageSize int) *BookList {
	return &BookList{
		backend: backend,
		now:     time.Now,
		state:   State{PageSize: pageSize},
	}
}

func (l *BookList) dispatch(a Action) {
	l.mu.Lock()
	l.state = Reduce(l.state, a)
	l.err = nil
	l.mu.Unlock()
}

func (l *BookList) fail(err error) error {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	return err
}

// State returns a snapshot of the list.
func (l *BookList) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	s.Initial = append([]book.BookExtended(nil), s.Initial...)
	s.Rows = append([]book.BookExtended(nil), s.Rows...)
	return s
}

// Rows returns the visible rows.
func (l *BookList) Rows() []book.BookExtended {
	return l.State().Rows
}

// Row returns the visible row with id.
func (l *BookList) Row(id int64) (book.BookExtended, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.state.Rows {
		if r.ID == id {
			return r, true
		}
	}
	return book.BookExtended{}, false
}

// Err returns the error of the last failed call, cleared by the next success.
func (l *BookList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Refresh reloads the initial page and shows it.
func (l *BookList) Refresh(ctx context.Context) error {
	l.mu.Lock()
	size := l.state.PageSize
	l.mu.Unlock()

	books, err := l.backend.ListBooks(ctx, size)
	if err != nil {
		return l.fail(fmt.Errorf("load books: %w", err))
	}
	l.dispatch(Loaded{Books: books})
	return nil
}

// Search shows books whose title contains term. An empty term restores the
// initial page without calling the backend.
func (l *BookList) Search(ctx context.Context, term string) error {
	if validator.ValidateNonEmpty(term) != nil {
		l.dispatch(Searched{})
		return nil
	}

	books, err := l.backend.SearchBooks(ctx, term)
	if err != nil {
		return l.fail(fmt.Errorf("search books %q: %w", term, err))
	}
	l.dispatch(Searched{Query: term, Books: books})
	return nil
}

func rowFromForm(id int64, f validator.BookForm, created, updated time.Time) book.BookExtended {
	return book.BookExtended{
		Book: book.Book{
			ID:        id,
			Title:     f.Title,
			AuthorID:  f.Author.ID,
			GenreID:   f.Genre.ID,
			Price:     f.Price,
			Stock:     f.Stock,
			Year:      f.Year,
			CreatedAt: created,
			UpdatedAt: updated,
		},
		AuthorName: f.Author.Name,
		GenreName:  f.Genre.Name,
	}
}

// Create validates f, creates the book and puts it at the top of the list.
// An invalid form is returned as validator.FieldErrors without a backend call.
func (l *BookList) Create(ctx context.Context, f validator.CreateBookForm) (int64, error) {
	if err := validator.ValidateCreateBook(f); err != nil {
		return 0, l.fail(err)
	}

	id, err := l.backend.CreateBook(ctx, f)
	if err != nil {
		return 0, l.fail(fmt.Errorf("create book: %w", err))
	}

	now := l.now().UTC()
	l.dispatch(Created{Book: rowFromForm(id, f, now, now)})
	return id, nil
}

// Update validates f, saves it and replaces the row in place.
func (l *BookList) Update(ctx context.Context, id int64, f validator.UpdateBookForm) error {
	if err := validator.ValidateUpdateBook(id, f); err != nil {
		return l.fail(err)
	}

	if err := l.backend.UpdateBook(ctx, id, f); err != nil {
		return l.fail(fmt.Errorf("update book %d: %w", id, err))
	}

	created := l.now().UTC()
	if old, ok := l.Row(id); ok {
		created = old.CreatedAt
	}
	l.dispatch(Updated{Book: rowFromForm(id, f, created, l.now().UTC())})
	return nil
}

// Delete removes the book and, on the unfiltered page, refills the page
// with the newest book not already shown.
func (l *BookList) Delete(ctx context.Context, id int64) error {
	if err := l.backend.DeleteBook(ctx, id); err != nil {
		return l.fail(fmt.Errorf("delete book %d: %w", id, err))
	}
	l.dispatch(Deleted{ID: id})

	s := l.State()
	if s.Searching() || len(s.Rows) >= s.PageSize {
		return nil
	}

	missing, err := l.backend.GetMissingBooks(ctx, s.IDs())
	if err != nil {
		logger.Warn("Backfill after delete failed", "book_id", id, "error", err)
		return l.fail(fmt.Errorf("backfill after delete: %w", err))
	}
	l.dispatch(Backfilled{Books: missing})
	return nil
}
