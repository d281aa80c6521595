package seed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/logger"
	"github.com/htol/bookstore/repo"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init("error")
}

// memStorage records what the seeder writes.
type memStorage struct {
	truncated bool
	nextID    int64
	authors   []book.Author
	genres    []book.Genre
	books     []book.CreateBookPayload
	customers []book.Customer
	orders    []book.Order
	items     [][]book.OrderItem
	orderErr  error
}

func (m *memStorage) id() int64 { m.nextID++; return m.nextID }

func (m *memStorage) Truncate(ctx context.Context) error { m.truncated = true; return nil }

func (m *memStorage) CreateAuthor(ctx context.Context, a book.Author) (int64, error) {
	m.authors = append(m.authors, a)
	return m.id(), nil
}

func (m *memStorage) CreateGenre(ctx context.Context, g book.Genre) (int64, error) {
	m.genres = append(m.genres, g)
	return m.id(), nil
}

func (m *memStorage) CreateBook(ctx context.Context, p book.CreateBookPayload) (int64, error) {
	m.books = append(m.books, p)
	return m.id(), nil
}

func (m *memStorage) CreateCustomer(ctx context.Context, c book.Customer) (int64, error) {
	m.customers = append(m.customers, c)
	return m.id(), nil
}

func (m *memStorage) CreateOrder(ctx context.Context, o book.Order, items []book.OrderItem) (int64, error) {
	if m.orderErr != nil {
		return 0, m.orderErr
	}
	m.orders = append(m.orders, o)
	m.items = append(m.items, items)
	return m.id(), nil
}

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestRun_Counts(t *testing.T) {
	m := &memStorage{}
	opts := DefaultOptions()
	opts.Seed = 42
	opts.Now = now

	sum, err := Run(context.Background(), m, opts)
	require.NoError(t, err)

	assert.True(t, m.truncated)
	assert.Equal(t, 20, sum.Authors)
	assert.Equal(t, 10, sum.Genres)
	assert.Equal(t, 100, sum.Books)
	assert.Equal(t, 50, sum.Customers)
	assert.Equal(t, 100, sum.Orders)
	assert.Equal(t, Genres, lo.Map(m.genres, func(g book.Genre, _ int) string { return g.Name }))
}

func TestRun_OrderTotals(t *testing.T) {
	m := &memStorage{}
	opts := DefaultOptions()
	opts.Seed = 7
	opts.Now = now

	_, err := Run(context.Background(), m, opts)
	require.NoError(t, err)

	for i, o := range m.orders {
		items := m.items[i]
		require.GreaterOrEqual(t, len(items), 1)
		require.LessOrEqual(t, len(items), 5)

		var total int64
		for _, it := range items {
			assert.GreaterOrEqual(t, it.Quantity, int64(1))
			assert.LessOrEqual(t, it.Quantity, int64(5))
			unit := it.Price / it.Quantity
			assert.Zero(t, it.Price%it.Quantity)
			assert.GreaterOrEqual(t, unit, int64(10))
			assert.LessOrEqual(t, unit, int64(100))
			total += it.Price
		}
		assert.Equal(t, total, o.TotalPrice)
	}
}

func TestRun_BookRanges(t *testing.T) {
	m := &memStorage{}
	opts := DefaultOptions()
	opts.Seed = 3
	opts.Now = now

	_, err := Run(context.Background(), m, opts)
	require.NoError(t, err)

	for _, b := range m.books {
		assert.NotEmpty(t, b.Title)
		assert.GreaterOrEqual(t, b.Price, int64(10))
		assert.LessOrEqual(t, b.Price, int64(100))
		assert.GreaterOrEqual(t, b.Year, int64(1900))
		assert.LessOrEqual(t, b.Year, int64(2024))
		assert.False(t, b.CreatedAt.After(now))
		assert.False(t, b.CreatedAt.Before(now.AddDate(-1, 0, 0)))
	}
}

func TestRun_SameSeedSameData(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 99
	opts.Now = now

	a, b := &memStorage{}, &memStorage{}
	_, err := Run(context.Background(), a, opts)
	require.NoError(t, err)
	_, err = Run(context.Background(), b, opts)
	require.NoError(t, err)

	assert.Equal(t, a.books, b.books)
	assert.Equal(t, a.orders, b.orders)
}

func TestRun_OrderErrorStops(t *testing.T) {
	m := &memStorage{orderErr: errors.New("disk full")}
	opts := DefaultOptions()
	opts.Now = now

	_, err := Run(context.Background(), m, opts)
	require.ErrorIs(t, err, m.orderErr)
	assert.Empty(t, m.orders)
}

func TestRun_AgainstDatabase(t *testing.T) {
	storage := repo.GetStorage(":memory:")
	defer func() {
		if err := storage.Close(); err != nil {
			t.Logf("Error closing storage: %v", err)
		}
	}()
	ctx := context.Background()

	opts := Options{Authors: 3, Books: 12, Customers: 4, Orders: 6, Seed: 1, Now: now}
	_, err := Run(ctx, storage, opts)
	require.NoError(t, err)

	// A second run starts from an empty catalog.
	_, err = Run(ctx, storage, opts)
	require.NoError(t, err)

	books, err := storage.ListBooks(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, books, 12)

	genres, err := storage.GetGenresByName(ctx, "")
	require.NoError(t, err)
	assert.Len(t, genres, len(Genres))

	sales, err := storage.RecentSales(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, sales, 6)
	for _, s := range sales {
		assert.Positive(t, s.TotalPrice)
		assert.NotEmpty(t, s.CustomerEmail)
	}
}
