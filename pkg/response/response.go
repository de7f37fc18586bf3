package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/orm"
)

type envelope struct {
	Status  int         `json:"status"`
	Code    apperr.Code `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// Message sends a 200 with only a message, for state changes that return
// nothing.
func Message(w http.ResponseWriter, msg string) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Message: msg})
}

// NoContent sends a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response without a machine code.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Status: status, Message: message})
}

// Fail renders err through the apperr taxonomy. Internal errors keep their
// cause out of the body.
func Fail(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	status := e.Status()
	body := envelope{Status: status, Code: e.Code, Message: e.Message}
	if len(e.Fields) > 0 {
		body.Errors = e.Fields
	}
	write(w, status, body)
}

// ValidationError sends a 422 with field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Fail(w, apperr.Invalid("Validation failed", errs))
}

// Paginated sends a 200 response with data and pagination metadata.
func Paginated(w http.ResponseWriter, data interface{}, pagination orm.Pagination) {
	body := map[string]interface{}{
		"items":      data,
		"pagination": pagination,
	}
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: body})
}

func Unauthorized(w http.ResponseWriter) {
	Fail(w, apperr.New(apperr.Unauthorized, "Unauthorized"))
}

func Forbidden(w http.ResponseWriter) {
	Fail(w, apperr.New(apperr.Forbidden, "Forbidden"))
}

func NotFound(w http.ResponseWriter) {
	Fail(w, apperr.New(apperr.NotFound, "Not found"))
}
