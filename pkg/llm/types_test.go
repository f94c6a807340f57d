package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeObjectPlainObject(t *testing.T) {
	object, err := DecodeObject(`{"clarity_score": 7, "writing_suggestions": []}`)
	require.NoError(t, err)
	require.Equal(t, 7.0, object["clarity_score"])
}

func TestDecodeObjectUnwrapsSingleElementList(t *testing.T) {
	object, err := DecodeObject(`[{"clarity_score": 5}]`)
	require.NoError(t, err)
	require.Equal(t, 5.0, object["clarity_score"])
}

func TestDecodeObjectRejectsOtherShapes(t *testing.T) {
	_, err := DecodeObject(`"just a string"`)
	require.Error(t, err)

	_, err = DecodeObject(`[1, 2, 3]`)
	require.Error(t, err)

	_, err = DecodeObject(`not json at all`)
	require.Error(t, err)
}

func TestMockProviderRoutesByInstruction(t *testing.T) {
	provider := MockProvider{}
	ctx := context.Background()

	corr, err := provider.GenerateJSON(ctx, "You are the Correctness Agent.", "grade these")
	require.NoError(t, err)
	require.Contains(t, corr, "q_scores")

	qa, err := provider.GenerateJSON(ctx, "You are the Feedback QA Agent.", "check this")
	require.NoError(t, err)
	require.Contains(t, qa, "quality_score")

	synth, err := provider.GenerateJSON(ctx, "You are the Feedback Synthesizer.", "combine")
	require.NoError(t, err)
	require.Contains(t, synth, "final_feedback")
	require.Contains(t, synth, "concept_scores")
}
