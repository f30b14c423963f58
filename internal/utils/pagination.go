// Package utils holds small helpers shared by the HTTP and service layers.
package utils

import (
	"strconv"
	"strings"
)

// Page-size bounds used by the list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// not a valid integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParsePage reads raw page and page_size query values. Missing or malformed
// values fall back to page 1 and DefaultPageSize; the size is then clamped
// to [1, MaxPageSize].
func ParsePage(page, size string) (int, int) {
	p := AtoiDefault(strings.TrimSpace(page), 1)
	if p < 1 {
		p = 1
	}
	s := AtoiDefault(strings.TrimSpace(size), DefaultPageSize)
	switch {
	case s < 1:
		s = 1
	case s > MaxPageSize:
		s = MaxPageSize
	}
	return p, s
}

// Offset is the number of rows skipped before page (1-based).
func Offset(page, size int) int {
	if page < 1 || size < 1 {
		return 0
	}
	return (page - 1) * size
}

// TotalPages is ceil(total/size); zero when there is nothing to show.
func TotalPages(total int64, size int) int {
	if total <= 0 || size < 1 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
