package interview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Insert(ctx context.Context, c Candidate) (int64, error)
	Get(ctx context.Context, interID int64) (Candidate, error)
	List(ctx context.Context, filter Filter) ([]Candidate, error)
	Update(ctx context.Context, c Candidate) error
	Delete(ctx context.Context, interID int64) error
	ApplyFeedback(ctx context.Context, interID int64, from, decision Status, feedback string, joinDate *time.Time, desGiven *int64) (bool, error)
	ApplyCTC(ctx context.Context, interID int64, from Status, c Candidate) (bool, error)
	ApplyMilestone(ctx context.Context, interID int64, from, to Status, column string, at time.Time, followRemark string) (bool, error)
}

// NotifierPort dispatches fire-and-forget mail. Failures are logged
// and never surfaced to the caller.
type NotifierPort interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the interview-to-joining pipeline.
type Service struct {
	repo     RepositoryPort
	notifier NotifierPort
	audit    AuditPort
	logger   *slog.Logger
	baseURL  string
}

// NewService builds Service. baseURL is the public address used in
// notification links.
func NewService(repo RepositoryPort, notifier NotifierPort, audit AuditPort, logger *slog.Logger, baseURL string) *Service {
	return &Service{repo: repo, notifier: notifier, audit: audit, logger: logger, baseURL: baseURL}
}

// Create registers a candidate and notifies the interviewer with a
// feedback link when one is routed.
func (s *Service) Create(ctx context.Context, input CreateInput) (Candidate, error) {
	if input.CandName == "" {
		return Candidate{}, fmt.Errorf("%w: cand_name is required", ErrValidation)
	}
	id, err := s.repo.Insert(ctx, Candidate{
		CandName:   input.CandName,
		CandEmail:  input.CandEmail,
		Position:   input.Position,
		Department: input.Department,
		InterEmail: input.InterEmail,
		CTCEmail:   input.CTCEmail,
		Status:     StatusPending,
		CreatedBy:  input.CreatedBy,
	})
	if err != nil {
		return Candidate{}, err
	}
	if input.InterEmail != "" {
		s.notify(ctx, input.InterEmail,
			fmt.Sprintf("Interview feedback requested: %s", input.CandName),
			fmt.Sprintf("Feedback is awaited for candidate %s (%s).\nSubmit it at %s/api/submit-feedback/%d", input.CandName, input.Position, s.baseURL, id))
	}
	s.recordAudit(ctx, "interview:create", id, nil)
	return s.repo.Get(ctx, id)
}

// UpdateInput carries identity fields for updating a candidate.
type UpdateInput struct {
	CandName   string
	CandEmail  string
	Position   string
	Department string
	InterEmail string
	CTCEmail   string
}

// Update rewrites candidate identity fields. Pipeline state is not
// touched here.
func (s *Service) Update(ctx context.Context, interID int64, input UpdateInput) (Candidate, error) {
	if input.CandName == "" {
		return Candidate{}, fmt.Errorf("%w: cand_name is required", ErrValidation)
	}
	existing, err := s.repo.Get(ctx, interID)
	if err != nil {
		return Candidate{}, err
	}
	existing.CandName = input.CandName
	existing.CandEmail = input.CandEmail
	existing.Position = input.Position
	existing.Department = input.Department
	existing.InterEmail = input.InterEmail
	existing.CTCEmail = input.CTCEmail
	if err := s.repo.Update(ctx, existing); err != nil {
		return Candidate{}, err
	}
	s.recordAudit(ctx, "interview:update", interID, nil)
	return s.repo.Get(ctx, interID)
}

// SubmitFeedback records the interviewer decision. A Selected decision
// triggers the CTC entry notification.
func (s *Service) SubmitFeedback(ctx context.Context, interID int64, input FeedbackInput) (Candidate, error) {
	if !DecisionValid(input.Decision) {
		return Candidate{}, fmt.Errorf("%w: decision must be Selected, Rejected, On Hold or Choose", ErrValidation)
	}
	candidate, err := s.repo.Get(ctx, interID)
	if err != nil {
		return Candidate{}, err
	}
	if candidate.Status != StatusPending {
		return Candidate{}, fmt.Errorf("%w: feedback already recorded for status %q", ErrSkipped, candidate.Status)
	}
	applied, err := s.repo.ApplyFeedback(ctx, interID, StatusPending, input.Decision, input.Feedback, input.JoinDate, input.DesGiven)
	if err != nil {
		return Candidate{}, err
	}
	if !applied {
		return Candidate{}, ErrConflict
	}
	if input.Decision == StatusSelected && candidate.CTCEmail != "" {
		s.notify(ctx, candidate.CTCEmail,
			fmt.Sprintf("CTC entry requested: %s", candidate.CandName),
			fmt.Sprintf("Candidate %s has been selected. Finalize CTC at %s/api/hr-ctc/%d", candidate.CandName, s.baseURL, interID))
	}
	s.recordAudit(ctx, "interview:feedback", interID, map[string]any{"decision": input.Decision})
	return s.repo.Get(ctx, interID)
}

func atHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

func computeTATs(join time.Time) (c Candidate) {
	set := func(t time.Time) *time.Time { return &t }
	c.TatFollow = set(atHour(join.AddDate(0, 0, -5), 10))
	c.TatJoin = set(atHour(join, 8))
	c.TatApolet = set(atHour(join.AddDate(0, 0, 1), 16))
	c.TatBio = set(atHour(join.AddDate(0, 0, 1), 16))
	c.TatIndtra = set(atHour(join.AddDate(0, 0, 3), 0))
	c.TatPF = set(atHour(join.AddDate(0, 0, 4), 0))
	c.TatFMonth = set(atHour(join.AddDate(0, 0, 30), 0))
	c.TatTMonth = set(atHour(join.AddDate(0, 0, 90), 0))
	c.TatSMonth = set(atHour(join.AddDate(0, 0, 180), 0))
	return c
}

// FinalizeCTC moves a Selected candidate to CTC Finalized and derives
// every forward deadline from the join date. Any other status yields a
// skipped outcome.
func (s *Service) FinalizeCTC(ctx context.Context, interID int64, input CTCInput) (Candidate, error) {
	candidate, err := s.repo.Get(ctx, interID)
	if err != nil {
		return Candidate{}, err
	}
	if candidate.Status != StatusSelected {
		return Candidate{}, fmt.Errorf("%w: CTC finalization requires status %q, record is %q", ErrSkipped, StatusSelected, candidate.Status)
	}
	if candidate.JoinDate == nil {
		return Candidate{}, fmt.Errorf("%w: join date was not recorded with the interview feedback", ErrValidation)
	}
	update := computeTATs(*candidate.JoinDate)
	update.CTCValue = input.CTCValue
	update.HRRemarks = input.HRRemarks

	applied, err := s.repo.ApplyCTC(ctx, interID, StatusSelected, update)
	if err != nil {
		return Candidate{}, err
	}
	if !applied {
		return Candidate{}, ErrConflict
	}
	s.recordAudit(ctx, "interview:ctc_finalized", interID, map[string]any{"ctc_value": input.CTCValue})
	return s.repo.Get(ctx, interID)
}

func (input MilestoneInput) valueFor(column string) *time.Time {
	switch column {
	case "follow_at":
		return input.FollowAt
	case "join_at":
		return input.JoinAt
	case "apolet_at":
		return input.ApoletAt
	case "bio_at":
		return input.BioAt
	case "indtra_at":
		return input.IndtraAt
	case "pf_at":
		return input.PFAt
	case "fmonth_at":
		return input.FMonthAt
	case "tmonth_at":
		return input.TMonthAt
	case "smonth_at":
		return input.SMonthAt
	}
	return nil
}

// AdvanceMilestone applies the single onboarding step matching the
// record's current status. The step executes only when the expected
// timestamp is supplied; otherwise the call is a no-op outcome.
func (s *Service) AdvanceMilestone(ctx context.Context, interID int64, input MilestoneInput) (Candidate, error) {
	candidate, err := s.repo.Get(ctx, interID)
	if err != nil {
		return Candidate{}, err
	}
	var step milestoneStep
	found := false
	for _, candidateStep := range onboardingSteps {
		if candidateStep.From == candidate.Status {
			step = candidateStep
			found = true
			break
		}
	}
	if !found {
		return Candidate{}, fmt.Errorf("%w: status %q has no pending onboarding step", ErrSkipped, candidate.Status)
	}
	at := input.valueFor(step.Column)
	if at == nil {
		return Candidate{}, fmt.Errorf("%w: %s not supplied for status %q", ErrSkipped, step.Column, candidate.Status)
	}
	next, err := advance(candidate.Status, step.Event)
	if err != nil {
		return Candidate{}, err
	}
	applied, err := s.repo.ApplyMilestone(ctx, interID, candidate.Status, next, step.Column, *at, input.FollowRemark)
	if err != nil {
		return Candidate{}, err
	}
	if !applied {
		return Candidate{}, ErrConflict
	}
	s.recordAudit(ctx, "interview:milestone", interID, map[string]any{"status": next})
	return s.repo.Get(ctx, interID)
}

// Get loads one candidate.
func (s *Service) Get(ctx context.Context, interID int64) (Candidate, error) {
	return s.repo.Get(ctx, interID)
}

// List returns filtered candidates.
func (s *Service) List(ctx context.Context, filter Filter) ([]Candidate, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a candidate.
func (s *Service) Delete(ctx context.Context, interID int64) error {
	if err := s.repo.Delete(ctx, interID); err != nil {
		return err
	}
	s.recordAudit(ctx, "interview:delete", interID, nil)
	return nil
}

func (s *Service) notify(ctx context.Context, to, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, to, subject, body); err != nil && s.logger != nil {
		s.logger.Warn("notification dispatch failed", slog.String("to", to), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, interID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "interview_to_joining",
		EntityID: fmt.Sprintf("%d", interID),
		Meta:     meta,
	})
}
