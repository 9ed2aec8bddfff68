package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"InvoiceRoom/pkg/apierror"
)

// Response represents a standard API response.
type Response struct {
	Success bool  `json:"success"`
	Data    any   `json:"data,omitempty"`
	Meta    *Meta `json:"meta,omitempty"`
}

// Meta carries list metadata.
type Meta struct {
	Total int64 `json:"total"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// JSONWithTotal sends a list response with the total count.
func JSONWithTotal(w http.ResponseWriter, statusCode int, data any, total int64) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data, Meta: &Meta{Total: total}})
}

// Error sends an error response.
func Error(w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		apiErr = apierror.InternalError("an unexpected error occurred")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	_, _ = w.Write(apiErr.ToJSON())
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created sends a 201 Created response with the created resource.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// OK sends a 200 OK response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}
