// Package suggest implements a debounced autocomplete field: text typed into
// it triggers one lookup after the user pauses, and the caller picks one of
// the returned suggestions.
package suggest

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/htol/bookstore/logger"
)

const (
	DefaultDebounce  = 500 * time.Millisecond
	DefaultMinLength = 3
)

// ErrNoSuggestion is returned by Select for an index outside the list.
var ErrNoSuggestion = errors.New("no such suggestion")

// State is where a field is in its typing cycle. Focus is tracked separately.
type State int

const (
	Idle State = iota
	Typing
	Suggesting
	Selected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Typing:
		return "typing"
	case Suggesting:
		return "suggesting"
	case Selected:
		return "selected"
	}
	return "unknown"
}

// Lookup fetches suggestions for term.
type Lookup[T any] func(ctx context.Context, term string) ([]T, error)

type Option func(*options)

type options struct {
	debounce  time.Duration
	minLength int
	ctx       context.Context
}

// WithDebounce sets how long the field waits after the last keystroke.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithMinLength sets the shortest term, in runes, that triggers a lookup.
func WithMinLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minLength = n
		}
	}
}

// WithContext sets the parent context of every lookup.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Field is one autocomplete input. It is safe for concurrent use.
type Field[T any] struct {
	lookup Lookup[T]
	label  func(T) string
	opts   options

	mu       sync.Mutex
	term     string
	items    []T
	selected *T
	state    State
	focused  bool
	err      error
	gen      uint64
	timer    *time.Timer
	cancel   context.CancelFunc
	closed   bool

	updates chan struct{}
}

// New returns a field backed by lookup. label renders a suggestion as the
// text shown in the input once it is selected.
func New[T any](lookup Lookup[T], label func(T) string, opts ...Option) *Field[T] {
	o := options{
		debounce:  DefaultDebounce,
		minLength: DefaultMinLength,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Field[T]{
		lookup:  lookup,
		label:   label,
		opts:    o,
		updates: make(chan struct{}, 1),
	}
}

// Updates signals after every state change. Signals coalesce; read the
// field's accessors to see the current state.
func (f *Field[T]) Updates() <-chan struct{} {
	return f.updates
}

func (f *Field[T]) notify() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

// stopLocked cancels the armed timer and any lookup in flight, and bumps the
// generation so their results are dropped.
func (f *Field[T]) stopLocked() {
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Input records the text currently typed and re-arms the debounce timer.
// Typing discards an earlier selection.
func (f *Field[T]) Input(term string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.stopLocked()
	f.term = term
	f.selected = nil
	f.state = Typing
	gen := f.gen
	f.timer = time.AfterFunc(f.opts.debounce, func() { f.fire(gen) })
	f.mu.Unlock()

	f.notify()
}

func (f *Field[T]) fire(gen uint64) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.timer = nil
	term := f.term

	if utf8.RuneCountInString(term) < f.opts.minLength {
		f.items = nil
		f.state = Idle
		f.mu.Unlock()
		f.notify()
		return
	}

	ctx, cancel := context.WithCancel(f.opts.ctx)
	f.cancel = cancel
	f.mu.Unlock()

	items, err := f.lookup(ctx, term)
	cancel()

	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		logger.Debug("Dropped stale suggestions", "term", term)
		return
	}
	f.cancel = nil
	f.err = err
	switch {
	case err != nil:
		logger.Warn("Suggestion lookup failed", "term", term, "error", err)
	case len(items) > 0:
		f.items = items
	}
	if len(f.items) > 0 {
		f.state = Suggesting
	} else {
		f.state = Idle
	}
	f.mu.Unlock()

	f.notify()
}

// Select binds suggestion i, clears the list and cancels any pending lookup.
func (f *Field[T]) Select(i int) (T, error) {
	f.mu.Lock()
	if i < 0 || i >= len(f.items) {
		f.mu.Unlock()
		var zero T
		return zero, ErrNoSuggestion
	}
	v := f.items[i]
	f.stopLocked()
	f.selected = &v
	f.term = f.label(v)
	f.items = nil
	f.state = Selected
	f.mu.Unlock()

	f.notify()
	return v, nil
}

// SetSelected binds v without a lookup, as when an edit form is opened on
// an existing row.
func (f *Field[T]) SetSelected(v T) {
	f.mu.Lock()
	f.stopLocked()
	f.selected = &v
	f.term = f.label(v)
	f.items = nil
	f.state = Selected
	f.mu.Unlock()

	f.notify()
}

// Reset clears the field back to idle, keeping focus.
func (f *Field[T]) Reset() {
	f.mu.Lock()
	f.stopLocked()
	f.term = ""
	f.items = nil
	f.selected = nil
	f.err = nil
	f.state = Idle
	f.mu.Unlock()

	f.notify()
}

func (f *Field[T]) Focus() {
	f.mu.Lock()
	f.focused = true
	f.mu.Unlock()
	f.notify()
}

func (f *Field[T]) Blur() {
	f.mu.Lock()
	f.focused = false
	f.mu.Unlock()
	f.notify()
}

// Visible reports whether the suggestion list should be shown: the field is
// focused and has something to show.
func (f *Field[T]) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused && len(f.items) > 0
}

// Suggestions returns a copy of the current list.
func (f *Field[T]) Suggestions() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

// Selected returns the bound suggestion, if any.
func (f *Field[T]) Selected() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selected == nil {
		var zero T
		return zero, false
	}
	return *f.selected, true
}

func (f *Field[T]) Term() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.term
}

func (f *Field[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error of the last completed lookup.
func (f *Field[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close stops the timer and abandons any lookup in flight. Input after
// Close is ignored.
func (f *Field[T]) Close() {
	f.mu.Lock()
	f.stopLocked()
	f.closed = true
	f.mu.Unlock()
}
