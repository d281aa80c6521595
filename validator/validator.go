// Package validator provides input validation for the application
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/htol/bookstore/book"
)

var (
	// ErrInvalid is wrapped by FieldErrors so callers can test with errors.Is
	ErrInvalid = errors.New("invalid input")
	// ErrEmptyString is returned when a string parameter is empty
	ErrEmptyString = errors.New("string cannot be empty")
)

// MinYear is the earliest publication year a form accepts.
const MinYear = 1950

// Selection is an author or genre picked from a suggestion list. Typing a
// name without picking leaves ID at zero, which fails validation.
type Selection struct {
	ID   int64  `json:"id" validate:"gte=1"`
	Name string `json:"name" validate:"required"`
}

func (s Selection) Ref() book.Ref { return book.Ref{ID: s.ID, Name: s.Name} }

// SelectionOf converts a chosen lookup row into a form selection.
func SelectionOf(r book.Ref) Selection { return Selection{ID: r.ID, Name: r.Name} }

// BookForm holds the fields of the create and edit book dialogs.
type BookForm struct {
	Title  string    `json:"title" validate:"required"`
	Author Selection `json:"author"`
	Genre  Selection `json:"genre"`
	Price  int64     `json:"price" validate:"gte=1"`
	Stock  int64     `json:"stock" validate:"gte=1"`
	Year   int64     `json:"year" validate:"gte=1950"`
}

// CreateBookForm and UpdateBookForm share every rule.
type (
	CreateBookForm = BookForm
	UpdateBookForm = BookForm
)

// FieldErrors maps a form field to a human readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrInvalid }

var messages = map[string]string{
	"title":  "Title is required",
	"author": "Author is required",
	"genre":  "Genre is required",
	"price":  "Price is required",
	"stock":  "Stock is required",
	"year":   "Year is required",
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateBookForm checks f and returns FieldErrors when any rule fails.
// Author and genre failures are reported once per field, not per id/name.
func ValidateBookForm(f BookForm) error {
	err := instance().Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate book form: %w", err)
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		// Namespace is "BookForm.author.id"; the second segment is the form field.
		parts := strings.Split(fe.Namespace(), ".")
		field := fe.Field()
		if len(parts) > 1 {
			field = parts[1]
		}
		if _, seen := out[field]; seen {
			continue
		}
		msg, ok := messages[field]
		if !ok {
			msg = fmt.Sprintf("%s failed %q", field, fe.Tag())
		}
		out[field] = msg
	}
	return out
}

// ValidateCreateBook validates the create dialog.
func ValidateCreateBook(f CreateBookForm) error {
	return ValidateBookForm(f)
}

// ValidateUpdateBook validates the edit dialog and the id of the row it edits.
func ValidateUpdateBook(id int64, f UpdateBookForm) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return ValidateBookForm(f)
}

// ValidateNonEmpty validates that a string is not empty
func ValidateNonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyString
	}
	return nil
}

// ValidateID validates that an ID is positive
func ValidateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id %d (must be positive)", ErrInvalid, id)
	}
	return nil
}

// ParseIDs parses a comma separated list of positive ids, skipping blanks.
func ParseIDs(s string) ([]int64, error) {
	ids := make([]int64, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q", ErrInvalid, part)
		}
		if err := ValidateID(id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
