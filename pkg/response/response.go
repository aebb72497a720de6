// Package response writes the JSON bodies the API speaks.
//
// Success responses carry the payload directly, matching the wire contract
// clients already depend on. Error responses are always {"message": "..."};
// the guard layer in particular must emit the exact "unauthorized access" and
// "forbidden access" bodies regardless of which sub-condition failed.
package response

import (
	"encoding/json"
	"net/http"
)

type errBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Success sends a 200 with the payload.
func Success(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

// Created sends a 201 with the payload.
func Created(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusCreated, v)
}

// Error sends a JSON error body with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errBody{Message: message})
}

// ValidationError sends a 422 with field-level error details.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, errBody{Message: "validation failed", Errors: errs})
}

// Unauthorized sends the guard's single 401 body. All authentication
// failures (missing header, bad signature, expiry) collapse into it.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "unauthorized access")
}

// Forbidden sends the guard's 403 body.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "forbidden access")
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "not found")
}
