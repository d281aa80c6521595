package book

import "time"

type Author struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Genre struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	AuthorID  int64     `json:"author_id"`
	GenreID   int64     `json:"genre_id"`
	Price     int64     `json:"price"`
	Stock     int64     `json:"stock"`
	Year      int64     `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookExtended is a Book joined with its author's and genre's names.
// It is only ever read, never written back.
type BookExtended struct {
	Book
	AuthorName string `json:"authorName"`
	GenreName  string `json:"genreName"`
}

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	TotalPrice int64     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	BookID    int64     `json:"book_id"`
	Quantity  int64     `json:"quantity"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderWithCustomer is a recent sale: an order plus who placed it.
type OrderWithCustomer struct {
	Order
	CustomerName  string `json:"name"`
	CustomerEmail string `json:"email"`
}

// CreateBookPayload holds the columns written by an insert.
type CreateBookPayload struct {
	Title     string    `json:"title"`
	AuthorID  int64     `json:"author_id"`
	GenreID   int64     `json:"genre_id"`
	Price     int64     `json:"price"`
	Stock     int64     `json:"stock"`
	Year      int64     `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateBookPayload is a partial update. Nil fields are left untouched.
type UpdateBookPayload struct {
	ID        int64      `json:"id,omitempty"`
	Title     *string    `json:"title,omitempty"`
	AuthorID  *int64     `json:"author_id,omitempty"`
	GenreID   *int64     `json:"genre_id,omitempty"`
	Price     *int64     `json:"price,omitempty"`
	Stock     *int64     `json:"stock,omitempty"`
	Year      *int64     `json:"year,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Ref is an id/name pair picked from a lookup, e.g. a selected author.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (a Author) Ref() Ref { return Ref{ID: a.ID, Name: a.Name} }

func (g Genre) Ref() Ref { return Ref{ID: g.ID, Name: g.Name} }
