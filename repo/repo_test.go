package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/config"
	"github.com/htol/bookstore/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init("error")
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// newTestRepo returns a private in-memory database with the schema applied.
func newTestRepo(t testing.TB) *Repo {
	t.Helper()
	r := GetStorage(":memory:")
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Logf("Error closing storage: %v", err)
		}
	})
	return r
}

type fixture struct {
	authorID int64
	genreID  int64
}

func seedLookups(t testing.TB, r *Repo) fixture {
	t.Helper()
	ctx := context.Background()

	authorID, err := r.CreateAuthor(ctx, book.Author{Name: "F. Herbert", Bio: "wrote Dune", CreatedAt: baseTime, UpdatedAt: baseTime})
	require.NoError(t, err)
	genreID, err := r.CreateGenre(ctx, book.Genre{Name: "Fiction", CreatedAt: baseTime, UpdatedAt: baseTime})
	require.NoError(t, err)

	return fixture{authorID: authorID, genreID: genreID}
}

// addBook inserts a book created minutes after baseTime.
func addBook(t testing.TB, r *Repo, f fixture, title string, minutes int) int64 {
	t.Helper()
	at := baseTime.Add(time.Duration(minutes) * time.Minute)
	id, err := r.CreateBook(context.Background(), book.CreateBookPayload{
		Title:     title,
		AuthorID:  f.authorID,
		GenreID:   f.genreID,
		Price:     20,
		Stock:     5,
		Year:      1965,
		CreatedAt: at,
		UpdatedAt: at,
	})
	require.NoError(t, err)
	return id
}

func countBooks(t testing.TB, r *Repo) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.QueryRow("SELECT COUNT(*) FROM books").Scan(&n))
	return n
}

func TestOpen_PostgresPlaceholders(t *testing.T) {
	// sql.Open does not dial, so no server is needed.
	r, err := Open(config.DatabaseConfig{
		Driver: "postgres", Host: "localhost", Port: 5432,
		User: "bookstore", Name: "bookstore", SSLMode: "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	assert.Equal(t, "postgres", r.Driver())

	query, args, err := r.selectBooks().
		Where(squirrel.Like{"LOWER(books.title)": containsPattern("Dune")}).
		Limit(SearchLimit).
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "LOWER(books.title) LIKE $1")
	assert.NotContains(t, query, "?")
	assert.Equal(t, []any{"%dune%"}, args)
}

func TestOpen_SQLitePlaceholders(t *testing.T) {
	r := newTestRepo(t)

	query, _, err := r.selectBooks().Where(squirrel.Eq{"books.id": 1}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "books.id = ?")
}

func TestLowerFoldsUnicode(t *testing.T) {
	r := newTestRepo(t)

	var got string
	require.NoError(t, r.db.QueryRow("SELECT lower(?)", "ÜBER ЁЛКА Émile").Scan(&got))
	assert.Equal(t, "über ёлка émile", got)
}

func TestMigrate_Idempotent(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.Migrate(context.Background()))
}

func TestDrop(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Drop(ctx))
	_, err := r.ListBooks(ctx, 10)
	require.Error(t, err)

	require.NoError(t, r.Migrate(ctx))
	books, err := r.ListBooks(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, books)
}

func TestPing(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.Ping(context.Background()))
}

func TestForeignKeysEnforced(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.CreateBook(context.Background(), book.CreateBookPayload{
		Title:     "Orphan",
		AuthorID:  999,
		GenreID:   999,
		Price:     1,
		Stock:     1,
		Year:      2000,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	})
	require.Error(t, err)
	require.Equal(t, 0, countBooks(t, r))
}

func TestTruncate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedLookups(t, r)
	for i := 0; i < 3; i++ {
		addBook(t, r, f, fmt.Sprintf("Book %d", i), i)
	}

	require.NoError(t, r.Truncate(ctx))
	require.Equal(t, 0, countBooks(t, r))

	authors, err := r.GetAuthorsByName(ctx, "")
	require.NoError(t, err)
	require.Empty(t, authors)
}
