package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/logger"
)

// SearchLimit caps the number of rows SearchBooks returns.
const SearchLimit = 10

// containsPattern builds a case-insensitive LIKE pattern. The column side
// is lowered in SQL with the same folding.
func containsPattern(term string) string {
	return "%" + foldLower(term) + "%"
}

func (r *Repo) selectBooks() squirrel.SelectBuilder {
	return r.sq.
		Select(
			"books.id", "books.title", "books.price", "books.stock", "books.year",
			"books.author_id", "books.genre_id", "books.created_at", "books.updated_at",
			"authors.name", "genres.name",
		).
		From("books").
		Join("authors ON authors.id = books.author_id").
		Join("genres ON genres.id = books.genre_id")
}

func (r *Repo) queryBooks(ctx context.Context, q squirrel.SelectBuilder) ([]book.BookExtended, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build books query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	books := make([]book.BookExtended, 0)
	for rows.Next() {
		var b book.BookExtended
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Price, &b.Stock, &b.Year,
			&b.AuthorID, &b.GenreID, &b.CreatedAt, &b.UpdatedAt,
			&b.AuthorName, &b.GenreName,
		); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}

	return books, nil
}

// CreateBook inserts a book and returns its generated id.
func (r *Repo) CreateBook(ctx context.Context, p book.CreateBookPayload) (int64, error) {
	query, args, err := r.sq.
		Insert("books").
		Columns("title", "author_id", "genre_id", "price", "stock", "year", "created_at", "updated_at").
		Values(p.Title, p.AuthorID, p.GenreID, p.Price, p.Stock, p.Year, p.CreatedAt, p.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert book: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert book %q: %w", p.Title, err)
	}
	return id, nil
}

// UpdateBook writes the non-nil fields of p to the book with p.ID.
// A payload without id fails with ErrMissingID before any query runs.
// Updating an id that does not exist is not an error.
func (r *Repo) UpdateBook(ctx context.Context, p book.UpdateBookPayload) error {
	if p.ID == 0 {
		return ErrMissingID
	}

	set := map[string]any{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.AuthorID != nil {
		set["author_id"] = *p.AuthorID
	}
	if p.GenreID != nil {
		set["genre_id"] = *p.GenreID
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Stock != nil {
		set["stock"] = *p.Stock
	}
	if p.Year != nil {
		set["year"] = *p.Year
	}
	if p.UpdatedAt != nil {
		set["updated_at"] = *p.UpdatedAt
	}
	if len(set) == 0 {
		return nil
	}

	query, args, err := r.sq.Update("books").SetMap(set).Where(squirrel.Eq{"id": p.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update book: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update book %d: %w", p.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.Debug("Update matched no book", "book_id", p.ID)
	}
	return nil
}

// DeleteBook removes the book with id. Deleting a missing book succeeds.
func (r *Repo) DeleteBook(ctx context.Context, id int64) error {
	query, args, err := r.sq.Delete("books").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete book: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return nil
}

// SearchBooks matches term anywhere in the title, ignoring case, newest
// first and at most SearchLimit rows.
func (r *Repo) SearchBooks(ctx context.Context, term string) ([]book.BookExtended, error) {
	q := r.selectBooks().
		Where(squirrel.Like{"LOWER(books.title)": containsPattern(term)}).
		OrderBy("books.created_at DESC", "books.id DESC").
		Limit(SearchLimit)

	books, err := r.queryBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search books %q: %w", term, err)
	}
	return books, nil
}

// GetMissingBooks returns the newest book whose id is not in excludeIDs,
// or nothing when every book is excluded.
func (r *Repo) GetMissingBooks(ctx context.Context, excludeIDs []int64) ([]book.BookExtended, error) {
	q := r.selectBooks().
		Where(squirrel.NotEq{"books.id": excludeIDs}).
		OrderBy("books.created_at DESC", "books.id DESC").
		Limit(1)

	books, err := r.queryBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get missing books: %w", err)
	}
	return books, nil
}

// ListBooks returns the newest limit books.
func (r *Repo) ListBooks(ctx context.Context, limit int) ([]book.BookExtended, error) {
	q := r.selectBooks().
		OrderBy("books.created_at DESC", "books.id DESC").
		Limit(uint64(limit))

	books, err := r.queryBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (r *Repo) GetBookByID(ctx context.Context, id int64) (*book.BookExtended, error) {
	books, err := r.queryBooks(ctx, r.selectBooks().Where(squirrel.Eq{"books.id": id}))
	if err != nil {
		return nil, fmt.Errorf("get book by ID %d: %w", id, err)
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return &books[0], nil
}
