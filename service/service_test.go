package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/logger"
	"github.com/htol/bookstore/repo"
	"github.com/htol/bookstore/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize logger for tests
	logger.Init("error")
}

// Mock repository for testing
type mockRepository struct {
	mu sync.Mutex

	books      []book.BookExtended
	authors    []book.Author
	genres     []book.Genre
	sales      []book.OrderWithCustomer
	nextID     int64
	created    []book.CreateBookPayload
	updated    []book.UpdateBookPayload
	deleted    []int64
	lastLimit  int
	lastTerm   string
	lastIDs    []int64
	booksError error
	salesError error
	pingError  error
}

var _ repo.Repository = (*mockRepository)(nil)

func (m *mockRepository) Close() error { return nil }

func (m *mockRepository) Ping(ctx context.Context) error { return m.pingError }

func (m *mockRepository) CreateBook(ctx context.Context, p book.CreateBookPayload) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.booksError != nil {
		return 0, m.booksError
	}
	m.nextID++
	m.created = append(m.created, p)
	return m.nextID, nil
}

func (m *mockRepository) UpdateBook(ctx context.Context, p book.UpdateBookPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.booksError != nil {
		return m.booksError
	}
	m.updated = append(m.updated, p)
	return nil
}

func (m *mockRepository) DeleteBook(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.booksError != nil {
		return m.booksError
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRepository) SearchBooks(ctx context.Context, term string) ([]book.BookExtended, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTerm = term
	if m.booksError != nil {
		return nil, m.booksError
	}
	return m.books, nil
}

func (m *mockRepository) GetMissingBooks(ctx context.Context, excludeIDs []int64) ([]book.BookExtended, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastIDs = excludeIDs
	if m.booksError != nil {
		return nil, m.booksError
	}
	return m.books[:1], nil
}

func (m *mockRepository) ListBooks(ctx context.Context, limit int) ([]book.BookExtended, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	if m.booksError != nil {
		return nil, m.booksError
	}
	return m.books, nil
}

func (m *mockRepository) GetBookByID(ctx context.Context, id int64) (*book.BookExtended, error) {
	if m.booksError != nil {
		return nil, m.booksError
	}
	for _, b := range m.books {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *mockRepository) GetAuthorsByName(ctx context.Context, name string) ([]book.Author, error) {
	return m.authors, nil
}

func (m *mockRepository) GetGenresByName(ctx context.Context, name string) ([]book.Genre, error) {
	return m.genres, nil
}

func (m *mockRepository) RecentSales(ctx context.Context, limit int) ([]book.OrderWithCustomer, error) {
	if m.salesError != nil {
		return nil, m.salesError
	}
	return m.sales, nil
}

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

func duneForm() validator.BookForm {
	return validator.BookForm{
		Title:  "Dune",
		Author: validator.Selection{ID: 3, Name: "F. Herbert"},
		Genre:  validator.Selection{ID: 1, Name: "Fiction"},
		Price:  20,
		Stock:  5,
		Year:   1965,
	}
}

func TestService_CreateBook(t *testing.T) {
	mock := &mockRepository{}
	svc := New(mock, WithClock(func() time.Time { return fixedNow }))

	id, err := svc.CreateBook(context.Background(), duneForm())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.Len(t, mock.created, 1)
	p := mock.created[0]
	assert.Equal(t, "Dune", p.Title)
	assert.Equal(t, int64(3), p.AuthorID)
	assert.Equal(t, int64(1), p.GenreID)
	assert.Equal(t, time.UTC, p.CreatedAt.Location())
	assert.True(t, p.CreatedAt.Equal(fixedNow))
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestService_CreateBook_InvalidNeverReachesRepo(t *testing.T) {
	mock := &mockRepository{}
	svc := New(mock)

	form := duneForm()
	form.Author.ID = 0
	form.Year = 1900

	_, err := svc.CreateBook(context.Background(), form)
	require.ErrorIs(t, err, validator.ErrInvalid)

	var fe validator.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "author")
	assert.Contains(t, fe, "year")
	assert.Empty(t, mock.created)
}

func TestService_CreateBook_RepoError(t *testing.T) {
	mock := &mockRepository{booksError: errors.New("constraint failed")}
	svc := New(mock)

	id, err := svc.CreateBook(context.Background(), duneForm())
	require.Error(t, err)
	assert.Zero(t, id)
	assert.Contains(t, err.Error(), "create book")
}

func TestService_UpdateBook(t *testing.T) {
	mock := &mockRepository{}
	svc := New(mock, WithClock(func() time.Time { return fixedNow }))

	form := duneForm()
	form.Price = 25
	require.NoError(t, svc.UpdateBook(context.Background(), 7, form))

	require.Len(t, mock.updated, 1)
	p := mock.updated[0]
	assert.Equal(t, int64(7), p.ID)
	require.NotNil(t, p.Price)
	assert.Equal(t, int64(25), *p.Price)
	require.NotNil(t, p.UpdatedAt)
	assert.True(t, p.UpdatedAt.Equal(fixedNow))
}

func TestService_UpdateBook_InvalidID(t *testing.T) {
	mock := &mockRepository{}
	svc := New(mock)

	err := svc.UpdateBook(context.Background(), 0, duneForm())
	require.ErrorIs(t, err, validator.ErrInvalid)
	assert.Empty(t, mock.updated)
}

func TestService_DeleteBook(t *testing.T) {
	mock := &mockRepository{}
	svc := New(mock)

	require.NoError(t, svc.DeleteBook(context.Background(), 4))
	assert.Equal(t, []int64{4}, mock.deleted)

	require.Error(t, svc.DeleteBook(context.Background(), -1))
	assert.Len(t, mock.deleted, 1)
}

func TestService_SearchBooks_EmptyTermSkipsRepo(t *testing.T) {
	mock := &mockRepository{books: []book.BookExtended{{Book: book.Book{ID: 1}}}}
	svc := New(mock)

	books, err := svc.SearchBooks(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Empty(t, mock.lastTerm)

	books, err = svc.SearchBooks(context.Background(), "dune")
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, "dune", mock.lastTerm)
}

func TestService_ListBooks_ClampsLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 10},
		{-1, 10},
		{5, 5},
		{100, 100},
		{101, 10},
	}
	for _, tt := range tests {
		mock := &mockRepository{}
		svc := New(mock)
		_, err := svc.ListBooks(context.Background(), tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, mock.lastLimit, "limit %d", tt.in)
	}
}

func TestService_GetBook_NotFound(t *testing.T) {
	svc := New(&mockRepository{})

	_, err := svc.GetBook(context.Background(), 99)
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestService_GetMissingBooks_PassesExclusion(t *testing.T) {
	mock := &mockRepository{books: []book.BookExtended{{Book: book.Book{ID: 9}}}}
	svc := New(mock)

	got, err := svc.GetMissingBooks(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []int64{1, 2}, mock.lastIDs)
}

func TestService_AuthorAndGenreRefs(t *testing.T) {
	mock := &mockRepository{
		authors: []book.Author{{ID: 3, Name: "F. Herbert"}},
		genres:  []book.Genre{{ID: 1, Name: "Fiction"}, {ID: 3, Name: "Science Fiction"}},
	}
	svc := New(mock)

	authors, err := svc.AuthorRefs(context.Background(), "her")
	require.NoError(t, err)
	assert.Equal(t, []book.Ref{{ID: 3, Name: "F. Herbert"}}, authors)

	genres, err := svc.GenreRefs(context.Background(), "fic")
	require.NoError(t, err)
	assert.Len(t, genres, 2)
}

func TestService_Dashboard(t *testing.T) {
	mock := &mockRepository{
		books: []book.BookExtended{{Book: book.Book{ID: 1, Title: "Dune"}}},
		sales: []book.OrderWithCustomer{{Order: book.Order{ID: 1, TotalPrice: 55}, CustomerName: "Ann"}},
	}
	svc := New(mock, WithPageSize(4))

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, d.Books, 1)
	assert.Len(t, d.RecentSales, 1)
	assert.Equal(t, 4, mock.lastLimit)
}

func TestService_Dashboard_PartialFailure(t *testing.T) {
	mock := &mockRepository{salesError: errors.New("boom")}
	svc := New(mock)

	_, err := svc.Dashboard(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load dashboard")
}

func TestService_Ping(t *testing.T) {
	assert.NoError(t, New(&mockRepository{}).Ping(context.Background()))

	err := New(&mockRepository{pingError: errors.New("down")}).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository ping")
}
