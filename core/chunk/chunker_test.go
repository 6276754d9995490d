package chunk

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewDefaultsBudget(t *testing.T) {
	if got := New(0).Budget; got != DefaultBudget {
		t.Errorf("New(0).Budget = %d, want %d", got, DefaultBudget)
	}
	if got := New(50).Budget; got != 50 {
		t.Errorf("New(50).Budget = %d, want 50", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "short input untouched", in: "hello", limit: 10, want: "hello"},
		{name: "exact length untouched", in: "hello", limit: 5, want: "hello"},
		{name: "cut at limit", in: "hello world", limit: 5, want: "hello"},
		{name: "zero limit", in: "hello", limit: 0, want: ""},
		{name: "does not split rune", in: "ab€cd", limit: 3, want: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.limit)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestFitNeverRejects(t *testing.T) {
	c := New(100)
	markup, text := c.Fit(strings.Repeat("<p>", 5_000), strings.Repeat("x", 10_000))
	if len(markup) != 75 || len(text) != 25 {
		t.Errorf("Fit lengths = %d, %d; want 75, 25", len(markup), len(text))
	}

	markup, text = c.Fit("<p>hi</p>", "hi")
	if markup != "<p>hi</p>" || text != "hi" {
		t.Errorf("short input changed: %q %q", markup, text)
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name   string
		budget int
		sizes  []int
		want   [][]int
	}{
		{name: "empty", budget: 10, sizes: nil, want: nil},
		{name: "all fit in one", budget: 10, sizes: []int{3, 3, 4}, want: [][]int{{0, 1, 2}}},
		{name: "split on overflow", budget: 10, sizes: []int{6, 6, 3}, want: [][]int{{0}, {1, 2}}},
		{name: "oversized item alone", budget: 10, sizes: []int{50, 1}, want: [][]int{{0}, {1}}},
		{name: "order preserved", budget: 5, sizes: []int{5, 5, 5}, want: [][]int{{0}, {1}, {2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.budget).Chunk(tt.sizes)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Chunk(%v) = %v, want %v", tt.sizes, got, tt.want)
			}
		})
	}
}
