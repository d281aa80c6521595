package dashboard

import (
	"context"

	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/suggest"
	"github.com/htol/bookstore/validator"
)

func refLabel(r book.Ref) string { return r.Name }

// BookForm is the create/edit dialog: plain inputs plus an author and a genre
// autocomplete. The form owns its fields; call Close when the dialog closes.
type BookForm struct {
	Title string
	Price int64
	Stock int64
	Year  int64

	Author *suggest.Field[book.Ref]
	Genre  *suggest.Field[book.Ref]

	// editing is the id of the book being edited, zero for a new book.
	editing int64
}

// NewBookForm returns an empty create dialog.
func NewBookForm(backend Backend, opts ...suggest.Option) *BookForm {
	return &BookForm{
		Author: suggest.New(backend.AuthorRefs, refLabel, opts...),
		Genre:  suggest.New(backend.GenreRefs, refLabel, opts...),
	}
}

// EditBookForm returns a dialog pre-populated from row, with author and
// genre already selected.
func EditBookForm(backend Backend, row book.BookExtended, opts ...suggest.Option) *BookForm {
	f := NewBookForm(backend, opts...)
	f.editing = row.ID
	f.Title = row.Title
	f.Price = row.Price
	f.Stock = row.Stock
	f.Year = row.Year
	f.Author.SetSelected(book.Ref{ID: row.AuthorID, Name: row.AuthorName})
	f.Genre.SetSelected(book.Ref{ID: row.GenreID, Name: row.GenreName})
	return f
}

// Editing returns the id of the edited book, or zero for a create dialog.
func (f *BookForm) Editing() int64 { return f.editing }

// Values collects the dialog into a validator form. An author or genre that
// was typed but not selected comes through with a zero id.
func (f *BookForm) Values() validator.BookForm {
	author, _ := f.Author.Selected()
	genre, _ := f.Genre.Selected()
	if author.ID == 0 {
		author.Name = f.Author.Term()
	}
	if genre.ID == 0 {
		genre.Name = f.Genre.Term()
	}
	return validator.BookForm{
		Title:  f.Title,
		Author: validator.SelectionOf(author),
		Genre:  validator.SelectionOf(genre),
		Price:  f.Price,
		Stock:  f.Stock,
		Year:   f.Year,
	}
}

// Validate runs the form rules without submitting.
func (f *BookForm) Validate() error {
	if f.editing != 0 {
		return validator.ValidateUpdateBook(f.editing, f.Values())
	}
	return validator.ValidateCreateBook(f.Values())
}

// Submit creates or updates the book through list and returns its id.
func (f *BookForm) Submit(ctx context.Context, list *BookList) (int64, error) {
	if f.editing != 0 {
		if err := list.Update(ctx, f.editing, f.Values()); err != nil {
			return 0, err
		}
		return f.editing, nil
	}
	return list.Create(ctx, f.Values())
}

// Close stops both autocomplete fields.
func (f *BookForm) Close() {
	f.Author.Close()
	f.Genre.Close()
}
