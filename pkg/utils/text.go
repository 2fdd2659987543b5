package utils

import (
	"strings"
	"unicode"
)

// NormalizeQuery lowercases a free-text query, trims it and collapses inner
// whitespace so "  Para   CETAMOL " and "paracetamol" style input match alike.
func NormalizeQuery(q string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(q), unicode.IsSpace), " ")
}

// MatchesAny reports whether the normalized query is a substring of any field,
// compared case-insensitively. An empty query matches everything.
func MatchesAny(normalizedQuery string, fields ...string) bool {
	if normalizedQuery == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), normalizedQuery) {
			return true
		}
	}
	return false
}

// Paginate returns the window [offset, offset+limit) of items. A limit of
// zero or less means no limit.
func Paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
