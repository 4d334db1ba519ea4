// Package transcript reassembles per-segment transcription results into one
// ordered document.
package transcript

import (
	"fmt"
	"sort"
	"strings"
)

// Fragment is the transcription result for one segment, keyed by the
// segment's ordinal in the chunk plan.
type Fragment struct {
	Index int
	Text  string
}

// Assembler collects fragments in any arrival order and joins them by
// ordinal. Not safe for concurrent use.
type Assembler struct {
	expected  int
	fragments map[int]string
}

// NewAssembler prepares assembly for the given number of segments.
func NewAssembler(expected int) *Assembler {
	return &Assembler{expected: expected, fragments: make(map[int]string, expected)}
}

// Add records one fragment. An out-of-range or duplicate ordinal is a
// programming error upstream and is reported rather than silently dropped.
func (a *Assembler) Add(frag Fragment) error {
	if frag.Index < 0 || frag.Index >= a.expected {
		return fmt.Errorf("fragment ordinal %d outside plan of %d segments", frag.Index, a.expected)
	}
	if _, dup := a.fragments[frag.Index]; dup {
		return fmt.Errorf("duplicate fragment for ordinal %d", frag.Index)
	}
	a.fragments[frag.Index] = frag.Text
	return nil
}

// Complete reports whether every planned ordinal has a fragment.
func (a *Assembler) Complete() bool {
	return len(a.fragments) == a.expected
}

// Assemble joins the collected fragments in ordinal order, separated by blank
// lines, skipping segments that produced no text. The empty result means the
// whole recording contained no speech. Missing ordinals are an error.
func (a *Assembler) Assemble() (string, error) {
	if !a.Complete() {
		missing := make([]int, 0)
		for i := 0; i < a.expected; i++ {
			if _, ok := a.fragments[i]; !ok {
				missing = append(missing, i)
			}
		}
		sort.Ints(missing)
		return "", fmt.Errorf("missing fragments for ordinals %v", missing)
	}

	parts := make([]string, 0, a.expected)
	for i := 0; i < a.expected; i++ {
		if text := strings.TrimSpace(a.fragments[i]); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
