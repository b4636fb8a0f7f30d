// Package jsonutil provides helper functions for JSON API responses.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes caps request bodies read by Decode.
const DefaultMaxBodyBytes = 4 << 20

var (
	// ErrEmptyBody is returned by Decode when the request has no body.
	ErrEmptyBody = errors.New("request body is empty")
	// ErrBodyTooLarge is returned by Decode when the body exceeds the limit.
	ErrBodyTooLarge = errors.New("request body too large")
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created JSON response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error writes {"error": message} with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

// TooManyRequests writes a 429 error response.
func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, message)
}

// InternalError writes a 500 error response. Do not expose internal
// details; log the actual error separately.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// ValidationError writes a 400 response listing every problem:
// {"error": "validation failed", "problems": [...]}.
func ValidationError(w http.ResponseWriter, problems any) {
	JSON(w, http.StatusBadRequest, map[string]any{
		"error":    "validation failed",
		"problems": problems,
	})
}

// Decode reads one JSON value from the request body into v. Bodies over
// DefaultMaxBodyBytes and trailing data are rejected.
func Decode(r *http.Request, v any) error {
	return DecodeLimit(r, v, DefaultMaxBodyBytes)
}

// DecodeLimit is Decode with an explicit body size limit.
func DecodeLimit(r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxBytes)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return fmt.Errorf("field %q must be %s", typeErr.Field, typeErr.Type)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("request body is truncated JSON")
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
