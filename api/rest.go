package api

import (
	"net/http"
	"strconv"

	"github.com/htol/bookstore/service"
	"github.com/htol/bookstore/validator"
)

func listBooksHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > service.MaxPageSize {
				respondWithValidationError(w, r, "'limit' must be between 1 and 100", err)
				return
			}
			limit = n
		}

		books, err := svc.ListBooks(r.Context(), limit)
		if err != nil {
			respondWithServiceError(w, r, "Failed to list books", err)
			return
		}
		writeJSON(w, r, http.StatusOK, books)
	})
}

func searchBooksHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if err := validator.ValidateNonEmpty(q); err != nil {
			respondWithValidationError(w, r, "missing 'q' query parameter", err)
			return
		}

		books, err := svc.SearchBooks(r.Context(), q)
		if err != nil {
			respondWithServiceError(w, r, "Failed to search books", err)
			return
		}
		writeJSON(w, r, http.StatusOK, books)
	})
}

func missingBooksHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids, err := validator.ParseIDs(r.URL.Query().Get("exclude"))
		if err != nil {
			respondWithValidationError(w, r, "invalid 'exclude' query parameter", err)
			return
		}

		books, err := svc.GetMissingBooks(r.Context(), ids)
		if err != nil {
			respondWithServiceError(w, r, "Failed to get missing books", err)
			return
		}
		writeJSON(w, r, http.StatusOK, books)
	})
}

func getBookHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithValidationError(w, r, "invalid book ID", err)
			return
		}

		b, err := svc.GetBook(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, r, "Failed to get book", err)
			return
		}
		writeJSON(w, r, http.StatusOK, b)
	})
}

func createBookHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var form validator.CreateBookForm
		if err := decodeJSON(w, r, &form); err != nil {
			respondWithValidationError(w, r, "invalid request body", err)
			return
		}

		id, err := svc.CreateBook(r.Context(), form)
		if err != nil {
			respondWithServiceError(w, r, "Failed to create book", err)
			return
		}
		writeJSON(w, r, http.StatusCreated, map[string]int64{"id": id})
	})
}

func updateBookHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithValidationError(w, r, "invalid book ID", err)
			return
		}

		var form validator.UpdateBookForm
		if err := decodeJSON(w, r, &form); err != nil {
			respondWithValidationError(w, r, "invalid request body", err)
			return
		}

		if err := svc.UpdateBook(r.Context(), id, form); err != nil {
			respondWithServiceError(w, r, "Failed to update book", err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
	})
}

func deleteBookHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondWithValidationError(w, r, "invalid book ID", err)
			return
		}

		if err := svc.DeleteBook(r.Context(), id); err != nil {
			respondWithServiceError(w, r, "Failed to delete book", err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
	})
}

func getAuthorsHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authors, err := svc.GetAuthorsByName(r.Context(), r.URL.Query().Get("name"))
		if err != nil {
			respondWithServiceError(w, r, "Failed to get authors", err)
			return
		}
		writeJSON(w, r, http.StatusOK, authors)
	})
}

func getGenresHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		genres, err := svc.GetGenresByName(r.Context(), r.URL.Query().Get("name"))
		if err != nil {
			respondWithServiceError(w, r, "Failed to get genres", err)
			return
		}
		writeJSON(w, r, http.StatusOK, genres)
	})
}

func dashboardHandler(svc *service.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Dashboard(r.Context())
		if err != nil {
			respondWithServiceError(w, r, "Failed to load dashboard", err)
			return
		}
		writeJSON(w, r, http.StatusOK, d)
	})
}

func healthCheckHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Check service health (database connection via service layer)
		if err := svc.Ping(r.Context()); err != nil {
			respondWithError(w, r, "service unavailable", err, http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	}
}
