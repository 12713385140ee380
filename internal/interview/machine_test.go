package interview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceFollowsStrictOrder(t *testing.T) {
	current := StatusCTCFinalized
	for _, step := range onboardingSteps {
		require.Equal(t, step.From, current)
		next, err := advance(current, step.Event)
		require.NoError(t, err)
		require.Equal(t, step.To, next)
		current = next
	}
	require.Equal(t, StatusThirdEval, current)
}

func TestAdvanceRejectsOutOfOrderEvents(t *testing.T) {
	_, err := advance(StatusCTCFinalized, EventJoined)
	require.ErrorIs(t, err, ErrSkipped)

	_, err = advance(StatusThirdEval, EventThirdEval)
	require.ErrorIs(t, err, ErrSkipped)
}

func TestAdvanceRejectsStatusOutsidePipeline(t *testing.T) {
	_, err := advance(StatusPending, EventFollowUpDone)
	require.ErrorIs(t, err, ErrSkipped)
}
