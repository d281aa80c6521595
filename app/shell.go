package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/htol/bookstore/book"
	"github.com/htol/bookstore/dashboard"
	"github.com/htol/bookstore/service"
	"github.com/htol/bookstore/suggest"
	"github.com/htol/bookstore/validator"
	"github.com/samber/lo"
)

// suggestWait bounds how long the shell waits for an autocomplete lookup.
const suggestWait = 5 * time.Second

const shellHelp = `commands:
  list              reload the newest books
  search <term>     filter by title (empty term clears)
  add               create a book
  edit <id>         edit a book; empty input keeps the current value
  delete <id>       delete a book
  sales             show recent sales
  help              this text
  quit              leave the shell`

// shell is a line-oriented admin dashboard over the book list view-model.
type shell struct {
	svc  *service.Service
	list *dashboard.BookList
	opts []suggest.Option

	in  *bufio.Scanner
	out io.Writer
}

func newShell(svc *service.Service, pageSize int, in io.Reader, out io.Writer, opts ...suggest.Option) *shell {
	return &shell{
		svc:  svc,
		list: dashboard.NewBookList(svc, pageSize),
		opts: opts,
		in:   bufio.NewScanner(in),
		out:  out,
	}
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// readLine prompts and returns the next input line. ok is false at EOF.
func (s *shell) readLine(prompt string) (line string, ok bool) {
	s.printf("%s", prompt)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *shell) Run(ctx context.Context) error {
	if err := s.list.Refresh(ctx); err != nil {
		return err
	}
	s.printRows()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, ok := s.readLine("> ")
		if !ok {
			return s.in.Err()
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		var err error
		switch cmd {
		case "":
			continue
		case "list", "refresh":
			if err = s.list.Refresh(ctx); err == nil {
				s.printRows()
			}
		case "search":
			if err = s.list.Search(ctx, arg); err == nil {
				s.printRows()
			}
		case "add":
			err = s.add(ctx)
		case "edit":
			err = s.edit(ctx, arg)
		case "delete":
			err = s.delete(ctx, arg)
		case "sales":
			err = s.sales(ctx)
		case "help":
			s.printf("%s\n", shellHelp)
		case "quit", "exit":
			return nil
		default:
			s.printf("unknown command %q, try help\n", cmd)
		}
		if err != nil {
			s.printError(err)
		}
	}
}

func (s *shell) printError(err error) {
	var fields validator.FieldErrors
	if errors.As(err, &fields) {
		s.printf("invalid book:\n")
		keys := lo.Keys(fields)
		sort.Strings(keys)
		for _, k := range keys {
			s.printf("  %s: %s\n", k, fields[k])
		}
		return
	}
	s.printf("error: %v\n", err)
}

func (s *shell) printRows() {
	st := s.list.State()
	if st.Searching() {
		s.printf("search %q: %d result(s)\n", st.Query, len(st.Rows))
	}
	if len(st.Rows) == 0 {
		s.printf("no books\n")
		return
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tPRICE\tSTOCK\tYEAR")
	for _, b := range st.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n",
			b.ID, b.Title, b.AuthorName, b.GenreName, b.Price, b.Stock, b.Year)
	}
	tw.Flush()
}

func (s *shell) add(ctx context.Context) error {
	form := dashboard.NewBookForm(s.svc, s.withContext(ctx)...)
	defer form.Close()

	if !s.fill(ctx, form) {
		return nil
	}
	id, err := form.Submit(ctx, s.list)
	if err != nil {
		return err
	}
	s.printf("created book %d\n", id)
	s.printRows()
	return nil
}

func (s *shell) edit(ctx context.Context, arg string) error {
	id, err := parseShellID(arg)
	if err != nil {
		return err
	}
	row, ok := s.list.Row(id)
	if !ok {
		return fmt.Errorf("book %d is not on the current page", id)
	}

	form := dashboard.EditBookForm(s.svc, row, s.withContext(ctx)...)
	defer form.Close()

	if !s.fill(ctx, form) {
		return nil
	}
	if _, err := form.Submit(ctx, s.list); err != nil {
		return err
	}
	s.printf("updated book %d\n", id)
	s.printRows()
	return nil
}

func (s *shell) delete(ctx context.Context, arg string) error {
	id, err := parseShellID(arg)
	if err != nil {
		return err
	}
	if err := s.list.Delete(ctx, id); err != nil {
		return err
	}
	s.printf("deleted book %d\n", id)
	s.printRows()
	return nil
}

func (s *shell) sales(ctx context.Context) error {
	sales, err := s.svc.RecentSales(ctx, 0)
	if err != nil {
		return err
	}
	if len(sales) == 0 {
		s.printf("no sales\n")
		return nil
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tCUSTOMER\tEMAIL\tTOTAL\tDATE")
	for _, o := range sales {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			o.ID, o.CustomerName, o.CustomerEmail, o.TotalPrice, o.CreatedAt.Format(time.DateOnly))
	}
	tw.Flush()
	return nil
}

func (s *shell) withContext(ctx context.Context) []suggest.Option {
	return append(append([]suggest.Option(nil), s.opts...), suggest.WithContext(ctx))
}

// fill walks the dialog fields in order. It returns false if input ran out.
func (s *shell) fill(ctx context.Context, form *dashboard.BookForm) bool {
	title, ok := s.readLine(fmt.Sprintf("Title [%s]: ", form.Title))
	if !ok {
		return false
	}
	if title != "" {
		form.Title = title
	}

	if !s.pick(ctx, "Author", form.Author) || !s.pick(ctx, "Genre", form.Genre) {
		return false
	}

	for _, n := range []struct {
		label string
		dst   *int64
	}{
		{"Price", &form.Price},
		{"Stock", &form.Stock},
		{"Year", &form.Year},
	} {
		line, ok := s.readLine(fmt.Sprintf("%s [%d]: ", n.label, *n.dst))
		if !ok {
			return false
		}
		if line == "" {
			continue
		}
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			s.printf("%s: not a number, using 0\n", n.label)
			v = 0
		}
		*n.dst = v
	}
	return true
}

// pick types into an autocomplete field, waits for suggestions and asks the
// user to choose one. Empty input keeps the current selection.
func (s *shell) pick(ctx context.Context, label string, field *suggest.Field[book.Ref]) bool {
	field.Focus()
	defer field.Blur()

	term, ok := s.readLine(fmt.Sprintf("%s [%s]: ", label, field.Term()))
	if !ok {
		return false
	}
	if term == "" {
		return true
	}

	field.Input(term)
	s.awaitSuggestions(ctx, field)

	items := field.Suggestions()
	if len(items) == 0 {
		s.printf("no %s matches %q\n", strings.ToLower(label), term)
		return true
	}
	for i, name := range lo.Map(items, func(r book.Ref, _ int) string { return r.Name }) {
		s.printf("  %d) %s\n", i+1, name)
	}

	choice, ok := s.readLine(fmt.Sprintf("Pick %s [1-%d]: ", strings.ToLower(label), len(items)))
	if !ok {
		return false
	}
	n, err := strconv.Atoi(choice)
	if err != nil {
		s.printf("no %s selected\n", strings.ToLower(label))
		return true
	}
	if _, err := field.Select(n - 1); err != nil {
		s.printf("no %s selected\n", strings.ToLower(label))
	}
	return true
}

func (s *shell) awaitSuggestions(ctx context.Context, field *suggest.Field[book.Ref]) {
	timeout := time.NewTimer(suggestWait)
	defer timeout.Stop()

	for field.State() == suggest.Typing {
		select {
		case <-field.Updates():
		case <-timeout.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

func parseShellID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a book id", validator.ErrInvalid, arg)
	}
	return id, validator.ValidateID(id)
}
