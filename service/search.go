package service

import (
	"strings"

	"github.com/use-agent/emotedex/models"
)

// Normalize lowercases s and drops every character outside [a-z0-9], so
// "Golden-Goat" and "golden goat" both become "goldengoat".
func Normalize(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Terms splits a query on whitespace and normalizes each term.
func Terms(query string) []string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, Normalize(f))
	}
	return terms
}

// Matches reports whether every term is a substring of the normalized name.
// No terms match everything.
func Matches(name string, terms []string) bool {
	n := Normalize(name)
	for _, t := range terms {
		if !strings.Contains(n, t) {
			return false
		}
	}
	return true
}

// Filter returns the tiles matching query, in input order.
func Filter(tiles []models.Tile, query string) []models.Tile {
	terms := Terms(query)
	out := make([]models.Tile, 0, len(tiles))
	for _, t := range tiles {
		if Matches(t.Name, terms) {
			out = append(out, t)
		}
	}
	return out
}
