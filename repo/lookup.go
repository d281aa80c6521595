package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/htol/bookstore/book"
)

// GetAuthorsByName returns every author whose name contains name, ignoring case.
func (r *Repo) GetAuthorsByName(ctx context.Context, name string) ([]book.Author, error) {
	query, args, err := r.sq.
		Select("id", "name", "bio", "created_at", "updated_at").
		From("authors").
		Where(squirrel.Like{"LOWER(name)": containsPattern(name)}).
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build authors query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query authors by name %q: %w", name, err)
	}
	defer rows.Close()

	authors := make([]book.Author, 0)
	for rows.Next() {
		var a book.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors: %w", err)
	}

	return authors, nil
}

// GetGenresByName returns every genre whose name contains name, ignoring case.
func (r *Repo) GetGenresByName(ctx context.Context, name string) ([]book.Genre, error) {
	query, args, err := r.sq.
		Select("id", "name", "created_at", "updated_at").
		From("genres").
		Where(squirrel.Like{"LOWER(name)": containsPattern(name)}).
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build genres query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query genres by name %q: %w", name, err)
	}
	defer rows.Close()

	genres := make([]book.Genre, 0)
	for rows.Next() {
		var g book.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genres: %w", err)
	}

	return genres, nil
}
