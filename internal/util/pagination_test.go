package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page, size int
		wantFrom   int
		wantLimit  int
	}{
		{name: "defaults", page: 0, size: 0, wantFrom: 0, wantLimit: DefaultPageSize},
		{name: "second page", page: 2, size: 5, wantFrom: 5, wantLimit: 5},
		{name: "capped size", page: 1, size: 500, wantFrom: 0, wantLimit: MaxPageSize},
		{name: "negative page", page: -3, size: 10, wantFrom: 0, wantLimit: 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			from, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestPages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Pages(0, 12))
	assert.Equal(t, 1, Pages(12, 12))
	assert.Equal(t, 2, Pages(13, 12))
	assert.Equal(t, 3, Pages(25, 0))
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, ParseIntDefault("3", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
}
