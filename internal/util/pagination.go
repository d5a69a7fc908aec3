package util

import "strconv"

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Calculate normalizes page and size and returns the slice window for them.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	from = (page - 1) * size
	return from, size
}

// Pages is the number of pages of size needed to hold total items, at least 1.
func Pages(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
