package types

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Variant identifies which kind of grid challenge is on screen.
type Variant string

const (
	// VariantSelection is the static 3x3 grid, clicked once.
	VariantSelection Variant = "selection"
	// VariantDynamic is the 3x3 grid whose tiles regenerate after each click.
	VariantDynamic Variant = "dynamic"
	// VariantSquares is the 4x4 overlapping-object grid.
	VariantSquares Variant = "squares"
)

// GridSize returns the cells-per-side of the variant's tile grid.
func (v Variant) GridSize() int {
	if v == VariantSquares {
		return 4
	}
	return 3
}

// TargetClass is the object class id the detection model was trained with.
type TargetClass int

// TargetUnknown is the sentinel for instruction text that matches no known
// term. Callers reload the challenge instead of attempting to solve.
const TargetUnknown TargetClass = 1000

// targetTerms maps instruction keywords to detector class ids. The ids are
// fixed by the detection model's label order and must not be renumbered.
var targetTerms = map[string]TargetClass{
	"bicycle":    1,
	"car":        2,
	"motorcycle": 3,
	"bus":        5,
	"boat":       8,
	"traffic":    9,
	"hydrant":    10,
}

// ClassifyTarget matches instruction text against the known term table.
// Matching is case-insensitive substring search; unmatched text yields
// TargetUnknown rather than an error, since instruction wording drifts.
func ClassifyTarget(text string) TargetClass {
	lower := strings.ToLower(text)
	for term, class := range targetTerms {
		if strings.Contains(lower, term) {
			return class
		}
	}
	return TargetUnknown
}

// Challenge is one classified instance of the grid puzzle. It is immutable
// once created; a reload discards it and classifies a fresh one.
type Challenge struct {
	ID       uuid.UUID
	Target   TargetClass
	Variant  Variant
	GridSize int
}

// NewChallenge creates a challenge for the classified target and variant.
func NewChallenge(target TargetClass, variant Variant) *Challenge {
	return &Challenge{
		ID:       uuid.New(),
		Target:   target,
		Variant:  variant,
		GridSize: variant.GridSize(),
	}
}

// Recognized reports whether the challenge's target matched a known term.
func (c *Challenge) Recognized() bool {
	return c.Target != TargetUnknown
}

// TileSet is a set of 1-based, row-major tile indices into the grid.
type TileSet map[int]struct{}

// NewTileSet builds a set from the given indices, collapsing duplicates.
func NewTileSet(indices ...int) TileSet {
	s := make(TileSet, len(indices))
	for _, i := range indices {
		s.Add(i)
	}
	return s
}

// Add inserts a tile index into the set.
func (s TileSet) Add(index int) {
	s[index] = struct{}{}
}

// Contains reports whether the set holds the given index.
func (s TileSet) Contains(index int) bool {
	_, ok := s[index]
	return ok
}

// Len returns the number of distinct tiles in the set.
func (s TileSet) Len() int {
	return len(s)
}

// Sorted returns the tile indices in ascending order. Clicking iterates
// this order so interaction stays deterministic.
func (s TileSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
