// Package chunk keeps classifier payloads inside a character budget.
// Oversized text is truncated, never rejected, and batches of sections are
// packed so that each batch fits the budget.
package chunk

import "unicode/utf8"

// DefaultBudget is used when a Chunker is created with a non-positive budget.
const DefaultBudget = 12000

// Chunker packs section payloads into budget-sized groups.
type Chunker struct {
	Budget int // maximum characters per classifier payload
}

// New creates a Chunker with the given budget.
// Defaults to DefaultBudget if budget <= 0.
func New(budget int) *Chunker {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Chunker{Budget: budget}
}

// Truncate cuts s to at most limit characters without splitting a UTF-8 rune.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Fit truncates a section's markup and plain text so that together they stay
// within the budget. Text gets a quarter of it, markup the rest.
func (c *Chunker) Fit(markup, text string) (string, string) {
	textLimit := c.Budget / 4
	return Truncate(markup, c.Budget-textLimit), Truncate(text, textLimit)
}

// Chunk groups item sizes into contiguous batches whose total stays within
// the budget. Each item counts at most Budget characters (it will be
// truncated), so every batch holds at least one item and order is preserved.
// The result holds item indexes.
func (c *Chunker) Chunk(sizes []int) [][]int {
	if len(sizes) == 0 {
		return nil
	}

	var batches [][]int
	var current []int
	used := 0
	for i, size := range sizes {
		if size > c.Budget {
			size = c.Budget
		}
		if len(current) > 0 && used+size > c.Budget {
			batches = append(batches, current)
			current, used = nil, 0
		}
		current = append(current, i)
		used += size
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
