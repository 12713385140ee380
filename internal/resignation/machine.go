package resignation

import (
	"fmt"

	"github.com/anggasct/fluo"
)

// Events advancing the exit-formalities machine.
const (
	EventExitInterview = "exit_interview_done"
	EventNoDue         = "no_due_done"
	EventReleaving     = "releaving_done"
	EventFnF           = "fnf_done"
	EventFinalApproval = "final_approval"
)

type taskStep struct {
	From   Status
	To     Status
	Event  string
	Column string
}

// exitSteps lists the strict forward order of the formalities after
// HOD approval.
var exitSteps = []taskStep{
	{From: StatusApproved, To: StatusExitInterview, Event: EventExitInterview, Column: "exint_at"},
	{From: StatusExitInterview, To: StatusNoDue, Event: EventNoDue, Column: "nodue_at"},
	{From: StatusNoDue, To: StatusReleaving, Event: EventReleaving, Column: "rel_at"},
	{From: StatusReleaving, To: StatusFnF, Event: EventFnF, Column: "fnf_at"},
	{From: StatusFnF, To: StatusFinalApproval, Event: EventFinalApproval, Column: "finapp_at"},
}

var exitDefinition = buildExitMachine()

func buildExitMachine() fluo.MachineDefinition {
	b := fluo.NewMachine()
	b.State(string(StatusApproved)).Initial()
	for _, step := range exitSteps {
		b.State(string(step.From)).To(string(step.To)).On(step.Event)
	}
	b.State(string(StatusFinalApproval))
	return b.Build()
}

// advance validates one exit-formality transition against the machine
// definition.
func advance(current Status, event string) (Status, error) {
	m := exitDefinition.CreateInstance()
	if err := m.Start(); err != nil {
		return "", err
	}
	if err := m.SetState(string(current)); err != nil {
		return "", fmt.Errorf("%w: status %q is not in the exit pipeline", ErrSkipped, current)
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
