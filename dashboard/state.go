// Package dashboard holds the admin book list view-model. State only changes
// through Reduce, and BookList drives Reduce from backend calls.
package dashboard

import (
	"github.com/htol/bookstore/book"
	"github.com/samber/lo"
)

// State is what the book table shows.
type State struct {
	// Initial is the unfiltered page, restored when the search box is cleared.
	Initial []book.BookExtended
	// Rows are the visible rows: Initial, or search results when Query is set.
	Rows     []book.BookExtended
	Query    string
	PageSize int
}

// Searching reports whether Rows are search results.
func (s State) Searching() bool { return s.Query != "" }

// IDs returns the ids of the visible rows in order.
func (s State) IDs() []int64 {
	return lo.Map(s.Rows, func(b book.BookExtended, _ int) int64 { return b.ID })
}

type Action interface{ action() }

// Loaded replaces the initial page and shows it.
type Loaded struct{ Books []book.BookExtended }

// Searched shows results for Query. An empty Query shows the initial page.
type Searched struct {
	Query string
	Books []book.BookExtended
}

// Created puts a new book at the top.
type Created struct{ Book book.BookExtended }

// Updated replaces the row with the same id.
type Updated struct{ Book book.BookExtended }

// Deleted removes the row with ID.
type Deleted struct{ ID int64 }

// Backfilled appends rows fetched to refill the page after a delete.
type Backfilled struct{ Books []book.BookExtended }

func (Loaded) action()     {}
func (Searched) action()   {}
func (Created) action()    {}
func (Updated) action()    {}
func (Deleted) action()    {}
func (Backfilled) action() {}

func prepend(rows []book.BookExtended, b book.BookExtended, size int) []book.BookExtended {
	out := append([]book.BookExtended{b}, rows...)
	if size > 0 && len(out) > size {
		out = out[:size]
	}
	return out
}

func replace(rows []book.BookExtended, b book.BookExtended) []book.BookExtended {
	return lo.Map(rows, func(r book.BookExtended, _ int) book.BookExtended {
		if r.ID == b.ID {
			return b
		}
		return r
	})
}

func without(rows []book.BookExtended, id int64) []book.BookExtended {
	return lo.Reject(rows, func(r book.BookExtended, _ int) bool { return r.ID == id })
}

// appendNew appends the books whose ids are not yet present, up to size rows.
func appendNew(rows, books []book.BookExtended, size int) []book.BookExtended {
	out := append([]book.BookExtended(nil), rows...)
	for _, b := range books {
		if size > 0 && len(out) >= size {
			break
		}
		if lo.ContainsBy(out, func(r book.BookExtended) bool { return r.ID == b.ID }) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Reduce returns the state after a. It never modifies s.
// Mutations apply to the initial page too, so clearing a search shows them.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Loaded:
		s.Initial = append([]book.BookExtended(nil), a.Books...)
		s.Query = ""
		s.Rows = append([]book.BookExtended(nil), a.Books...)
	case Searched:
		s.Query = a.Query
		if a.Query == "" {
			s.Rows = append([]book.BookExtended(nil), s.Initial...)
		} else {
			s.Rows = append([]book.BookExtended(nil), a.Books...)
		}
	case Created:
		s.Initial = prepend(s.Initial, a.Book, s.PageSize)
		s.Rows = prepend(s.Rows, a.Book, s.PageSize)
	case Updated:
		s.Initial = replace(s.Initial, a.Book)
		s.Rows = replace(s.Rows, a.Book)
	case Deleted:
		s.Initial = without(s.Initial, a.ID)
		s.Rows = without(s.Rows, a.ID)
	case Backfilled:
		s.Rows = appendNew(s.Rows, a.Books, s.PageSize)
		if !s.Searching() {
			s.Initial = appendNew(s.Initial, a.Books, s.PageSize)
		}
	}
	return s
}
