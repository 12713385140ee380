package resignation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceFollowsStrictOrder(t *testing.T) {
	current := StatusApproved
	for _, step := range exitSteps {
		require.Equal(t, step.From, current)
		next, err := advance(current, step.Event)
		require.NoError(t, err)
		require.Equal(t, step.To, next)
		current = next
	}
	require.Equal(t, StatusFinalApproval, current)
}

func TestAdvanceRejectsOutOfOrderEvents(t *testing.T) {
	_, err := advance(StatusApproved, EventFnF)
	require.ErrorIs(t, err, ErrSkipped)

	_, err = advance(StatusFinalApproval, EventFinalApproval)
	require.ErrorIs(t, err, ErrSkipped)
}

func TestAdvanceRejectsStatusOutsidePipeline(t *testing.T) {
	_, err := advance(StatusPending, EventExitInterview)
	require.ErrorIs(t, err, ErrSkipped)

	_, err = advance(StatusRejected, EventExitInterview)
	require.ErrorIs(t, err, ErrSkipped)
}
