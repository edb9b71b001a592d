package handler

import (
	"log"
	"net/http"
)

// Error represents a handler error that knows its HTTP status.
type Error interface {
	error
	Status() int
}

// StatusError represents an error with an associated HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

// Error allows StatusError to satisfy the error interface.
func (se StatusError) Error() string {
	return se.Err.Error()
}

// Status returns our HTTP status code.
func (se StatusError) Status() int {
	return se.Code
}

// Unwrap exposes the wrapped error.
func (se StatusError) Unwrap() error {
	return se.Err
}

// Handler takes a configured Env and a function matching
// our useful signature.
type Handler struct {
	Env interface{}
	H   func(e interface{}, w http.ResponseWriter, r *http.Request) error
}

// ServeHTTP allows Handler to satisfy the http.Handler interface.
func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.H(h.Env, w, r)
	if err == nil {
		return
	}
	switch e := err.(type) {
	case Error:
		log.Printf("HTTP %d - %s", e.Status(), e)
		http.Error(w, e.Error(), e.Status())
	default:
		log.Printf("HTTP 500 - %s", e)
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
	}
}
