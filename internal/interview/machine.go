package interview

import (
	"fmt"

	"github.com/anggasct/fluo"
)

// Events advancing the onboarding machine, one per milestone.
const (
	EventFollowUpDone   = "follow_up_done"
	EventJoined         = "candidate_joined"
	EventAppointment    = "appointment_given"
	EventBiometric      = "biometric_done"
	EventInduction      = "induction_training_done"
	EventPFDone         = "pf_account_done"
	EventFirstEval      = "first_evaluation_done"
	EventSecondEval     = "second_evaluation_done"
	EventThirdEval      = "third_evaluation_done"
)

// milestoneStep binds a predecessor status to the event that leaves
// it and the timestamp column written by the transition.
type milestoneStep struct {
	From   Status
	To     Status
	Event  string
	Column string
}

// onboardingSteps lists the strict forward order of the pipeline from
// CTC finalization onward. Each status is left by exactly one event.
var onboardingSteps = []milestoneStep{
	{From: StatusCTCFinalized, To: StatusFollowUpDone, Event: EventFollowUpDone, Column: "follow_at"},
	{From: StatusFollowUpDone, To: StatusJoined, Event: EventJoined, Column: "join_at"},
	{From: StatusJoined, To: StatusAppointment, Event: EventAppointment, Column: "apolet_at"},
	{From: StatusAppointment, To: StatusBiometric, Event: EventBiometric, Column: "bio_at"},
	{From: StatusBiometric, To: StatusInduction, Event: EventInduction, Column: "indtra_at"},
	{From: StatusInduction, To: StatusPFDone, Event: EventPFDone, Column: "pf_at"},
	{From: StatusPFDone, To: StatusFirstEval, Event: EventFirstEval, Column: "fmonth_at"},
	{From: StatusFirstEval, To: StatusSecondEval, Event: EventSecondEval, Column: "tmonth_at"},
	{From: StatusSecondEval, To: StatusThirdEval, Event: EventThirdEval, Column: "smonth_at"},
}

var onboardingDefinition = buildOnboardingMachine()

func buildOnboardingMachine() fluo.MachineDefinition {
	b := fluo.NewMachine()
	b.State(string(StatusCTCFinalized)).Initial()
	for _, step := range onboardingSteps {
		b.State(string(step.From)).To(string(step.To)).On(step.Event)
	}
	b.State(string(StatusThirdEval))
	return b.Build()
}

// advance validates one pipeline transition against the machine
// definition. It reports the resulting status, or an ErrSkipped when
// the current status cannot process the event.
func advance(current Status, event string) (Status, error) {
	m := onboardingDefinition.CreateInstance()
	if err := m.Start(); err != nil {
		return "", err
	}
	if err := m.SetState(string(current)); err != nil {
		return "", fmt.Errorf("%w: status %q is not in the onboarding pipeline", ErrSkipped, current)
	}
	result := m.HandleEvent(event, nil)
	if result.Error != nil {
		return "", result.Error
	}
	if !result.Processed || !result.StateChanged {
		reason := result.RejectionReason
		if reason == "" {
			reason = fmt.Sprintf("status %q does not accept %s", current, event)
		}
		return "", fmt.Errorf("%w: %s", ErrSkipped, reason)
	}
	return Status(result.CurrentState), nil
}
