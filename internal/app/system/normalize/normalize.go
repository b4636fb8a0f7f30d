// Package normalize provides helper functions for consistent string normalization
// across the application. Use these helpers instead of scattered strings.ToLower
// and strings.TrimSpace calls to ensure consistent behavior.
package normalize

import "strings"

// Email normalizes an email address by trimming whitespace and converting to lowercase.
// This is the canonical way to normalize emails before storage or comparison.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Phone trims a phone number and collapses internal runs of whitespace to a
// single space. Digits and punctuation are left alone.
func Phone(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Slug normalizes a course or category slug supplied by a client
// (query parameter or form field). Stored slugs are never rewritten.
func Slug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam normalizes a query parameter by trimming whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
