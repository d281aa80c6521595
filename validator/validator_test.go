package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() BookForm {
	return BookForm{
		Title:  "Dune",
		Author: Selection{ID: 1, Name: "F. Herbert"},
		Genre:  Selection{ID: 1, Name: "Fiction"},
		Price:  20,
		Stock:  5,
		Year:   1965,
	}
}

func TestValidateBookForm_Valid(t *testing.T) {
	require.NoError(t, ValidateBookForm(validForm()))
}

func TestValidateBookForm_FieldMessages(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BookForm)
		field  string
		msg    string
	}{
		{"empty title", func(f *BookForm) { f.Title = "" }, "title", "Title is required"},
		{"author typed not selected", func(f *BookForm) { f.Author.ID = 0 }, "author", "Author is required"},
		{"author without name", func(f *BookForm) { f.Author.Name = "" }, "author", "Author is required"},
		{"genre not selected", func(f *BookForm) { f.Genre = Selection{} }, "genre", "Genre is required"},
		{"zero price", func(f *BookForm) { f.Price = 0 }, "price", "Price is required"},
		{"negative stock", func(f *BookForm) { f.Stock = -3 }, "stock", "Stock is required"},
		{"old year", func(f *BookForm) { f.Year = 1949 }, "year", "Year is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			err := ValidateBookForm(f)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))

			var fe FieldErrors
			require.True(t, errors.As(err, &fe))
			assert.Len(t, fe, 1)
			assert.Equal(t, tt.msg, fe[tt.field])
		})
	}
}

func TestValidateBookForm_BoundariesAccepted(t *testing.T) {
	f := validForm()
	f.Price, f.Stock, f.Year = 1, 1, MinYear
	require.NoError(t, ValidateBookForm(f))
}

func TestValidateBookForm_ManyErrors(t *testing.T) {
	err := ValidateBookForm(BookForm{})
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe, 6)
	assert.Contains(t, fe.Error(), "title: Title is required")
}

func TestValidateUpdateBook(t *testing.T) {
	require.NoError(t, ValidateUpdateBook(7, validForm()))

	err := ValidateUpdateBook(0, validForm())
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID(1))
	assert.Error(t, ValidateID(0))
	assert.Error(t, ValidateID(-5))
}

func TestValidateNonEmpty(t *testing.T) {
	assert.NoError(t, ValidateNonEmpty("war"))
	assert.ErrorIs(t, ValidateNonEmpty("   "), ErrEmptyString)
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs("3, 1,,2")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	ids, err = ParseIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseIDs("1,abc")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = ParseIDs("12abc")
	assert.ErrorIs(t, err, ErrInvalid)
}
