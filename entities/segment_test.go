package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiobook-worker/constant"
	"audiobook-worker/entities"
)

func segs(orders ...int) []entities.StructuralSegment {
	out := make([]entities.StructuralSegment, len(orders))
	for i, n := range orders {
		out[i] = entities.StructuralSegment{Order: n, Type: constant.SegmentDialogue, Speaker: "Alice", Text: "hi"}
	}
	return out
}

func TestValidateSegmentOrder(t *testing.T) {
	t.Parallel()

	require.NoError(t, entities.ValidateSegmentOrder(segs(1, 2, 3)))
	require.NoError(t, entities.ValidateSegmentOrder(segs(3, 1, 2)))
	require.NoError(t, entities.ValidateSegmentOrder(nil))

	require.Error(t, entities.ValidateSegmentOrder(segs(1, 3)))
	require.Error(t, entities.ValidateSegmentOrder(segs(1, 2, 2)))
	require.Error(t, entities.ValidateSegmentOrder(segs(0, 1)))
	require.Error(t, entities.ValidateSegmentOrder(segs(2, 3)))
}

func TestSortSegments(t *testing.T) {
	t.Parallel()

	sorted := entities.SortSegments(segs(3, 1, 2))
	assert.Equal(t, 1, sorted[0].Order)
	assert.Equal(t, 2, sorted[1].Order)
	assert.Equal(t, 3, sorted[2].Order)
}

func TestHasNarration(t *testing.T) {
	t.Parallel()

	dialogueOnly := segs(1, 2)
	assert.False(t, entities.HasNarration(dialogueOnly))

	withNarration := append(segs(1), entities.StructuralSegment{
		Order: 2, Type: constant.SegmentNarration, Speaker: constant.SpeakerNarrator, Text: "she said",
	})
	assert.True(t, entities.HasNarration(withNarration))
}
