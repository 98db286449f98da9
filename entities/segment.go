package entities

import (
	"fmt"
	"sort"

	"audiobook-worker/constant"
)

// StructuralSegment is one ordered unit of the analyzed text.
type StructuralSegment struct {
	Order           int                  `json:"order"`
	Type            constant.SegmentType `json:"type"`
	Speaker         string               `json:"speaker"`
	Text            string               `json:"text"`
	Emotion         string               `json:"emotion"`
	Tone            string               `json:"tone"`
	ExpressionGuide string               `json:"expression_guide"`
}

// ValidateSegmentOrder checks that the order values form an unbroken 1..N run
// with no duplicates. The analysis collaborator is expected to honor this but
// does not guarantee it.
func ValidateSegmentOrder(segments []StructuralSegment) error {
	orders := make([]int, len(segments))
	for i, s := range segments {
		orders[i] = s.Order
	}
	sort.Ints(orders)
	for i, n := range orders {
		if n != i+1 {
			return fmt.Errorf("segment order sequence broken: expected %d at rank %d, got %d", i+1, i+1, n)
		}
	}
	return nil
}

// SortSegments returns a copy sorted by ascending order value.
func SortSegments(segments []StructuralSegment) []StructuralSegment {
	sorted := make([]StructuralSegment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return sorted
}

// HasNarration reports whether any segment is spoken by the reserved Narrator.
func HasNarration(segments []StructuralSegment) bool {
	for _, s := range segments {
		if s.Type == constant.SegmentNarration || s.Speaker == constant.SpeakerNarrator {
			return true
		}
	}
	return false
}
