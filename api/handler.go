package api

import (
	"net/http"

	"github.com/htol/bookstore/middleware"
	"github.com/htol/bookstore/service"
)

// NewHandler creates and returns the main HTTP handler (router) for the application
func NewHandler(svc *service.Service) http.Handler {
	mux := http.NewServeMux()

	// Books
	mux.Handle("GET /api/books", listBooksHandler(svc))
	mux.Handle("GET /api/books/search", searchBooksHandler(svc))
	mux.Handle("GET /api/books/missing", missingBooksHandler(svc))
	mux.Handle("GET /api/books/{id}", getBookHandler(svc))
	mux.Handle("POST /api/books", createBookHandler(svc))
	mux.Handle("PATCH /api/books/{id}", updateBookHandler(svc))
	mux.Handle("DELETE /api/books/{id}", deleteBookHandler(svc))

	// Lookups
	mux.Handle("GET /api/authors", getAuthorsHandler(svc))
	mux.Handle("GET /api/genres", getGenresHandler(svc))

	mux.Handle("GET /api/dashboard", dashboardHandler(svc))
	mux.HandleFunc("GET /health", healthCheckHandler(svc))

	// Apply middleware chain
	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Recovery,
		middleware.Logger,
		middleware.CORS,
	)

	return chain(mux)
}
