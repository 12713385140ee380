package resignation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

const approvalTatHours = 48

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Insert(ctx context.Context, res Resignation) (int64, error)
	Get(ctx context.Context, resID int64) (Resignation, error)
	List(ctx context.Context, filter Filter) ([]Resignation, error)
	Delete(ctx context.Context, resID int64) error
	ApplyApproval(ctx context.Context, resID int64, decision Status, releavingDate *time.Time, remarks, hrEmail string) (bool, error)
	ApplyTask(ctx context.Context, resID int64, from, to Status, column string, at time.Time, input TaskInput) (bool, error)
	EmployeeByCode(ctx context.Context, code string) (Employee, error)
	HRManager(ctx context.Context) (Employee, error)
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

// Service coordinates the resignation-to-relieving pipeline.
type Service struct {
	repo     RepositoryPort
	notifier NotifierPort
	audit    AuditPort
	logger   *slog.Logger
	baseURL  string
	now      func() time.Time
}

// NewService builds Service. baseURL is the public address used in
// notification links.
func NewService(repo RepositoryPort, notifier NotifierPort, audit AuditPort, logger *slog.Logger, baseURL string) *Service {
	return &Service{repo: repo, notifier: notifier, audit: audit, logger: logger, baseURL: baseURL, now: time.Now}
}

// Submit files a resignation for an existing employee and notifies the
// HOD with an approval link.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Resignation, error) {
	if input.EmpCode == "" {
		return Resignation{}, fmt.Errorf("%w: emp_code is required", ErrValidation)
	}
	if input.ResignationDate.IsZero() {
		return Resignation{}, fmt.Errorf("%w: resignation_date is required", ErrValidation)
	}
	employee, err := s.repo.EmployeeByCode(ctx, input.EmpCode)
	if err != nil {
		return Resignation{}, err
	}
	tatApp := s.now().Add(approvalTatHours * time.Hour)
	id, err := s.repo.Insert(ctx, Resignation{
		EmpCode:         employee.EmpCode,
		EmpName:         employee.EmpName,
		DeptName:        employee.DeptName,
		DesName:         employee.DesName,
		HODName:         input.HODName,
		HODEmail:        input.HODEmail,
		ResignationDate: input.ResignationDate,
		Reason:          input.Reason,
		Remarks:         input.Remarks,
		Status:          StatusPending,
		TatApp:          &tatApp,
	})
	if err != nil {
		return Resignation{}, err
	}
	if input.HODEmail != "" {
		s.notify(ctx, input.HODEmail,
			fmt.Sprintf("Resignation approval requested: %s", employee.EmpName),
			fmt.Sprintf("%s (%s, %s) has submitted a resignation dated %s.\nRecord your decision at %s/api/resignations/%d/approval",
				employee.EmpName, employee.DesName, employee.DeptName, input.ResignationDate.Format("2006-01-02"), s.baseURL, id))
	}
	s.recordAudit(ctx, "resignation:submit", id, nil)
	return s.repo.Get(ctx, id)
}

// Approve records the HOD decision on a Pending resignation. An
// Approved decision requires a relieving date and routes the record to
// HR for exit formalities.
func (s *Service) Approve(ctx context.Context, resID int64, input ApprovalInput) (Resignation, error) {
	if !DecisionValid(input.Decision) {
		return Resignation{}, fmt.Errorf("%w: decision must be Approved or Rejected", ErrValidation)
	}
	res, err := s.repo.Get(ctx, resID)
	if err != nil {
		return Resignation{}, err
	}
	if res.Status != StatusPending {
		return Resignation{}, fmt.Errorf("%w: decision already recorded for status %q", ErrSkipped, res.Status)
	}
	if input.Decision == StatusApproved && input.ReleavingDate == nil {
		return Resignation{}, fmt.Errorf("%w: releaving_date is required when approving", ErrValidation)
	}

	var hr Employee
	if input.Decision == StatusApproved {
		hr, err = s.repo.HRManager(ctx)
		if err != nil && s.logger != nil {
			// Exit formalities proceed even with nobody to notify.
			s.logger.Warn("no active HR manager found for resignation routing", slog.Int64("res_id", resID), slog.Any("error", err))
		}
	}

	applied, err := s.repo.ApplyApproval(ctx, resID, input.Decision, input.ReleavingDate, input.Remarks, hr.EmpEmail)
	if err != nil {
		return Resignation{}, err
	}
	if !applied {
		return Resignation{}, ErrConflict
	}
	if input.Decision == StatusApproved && hr.EmpEmail != "" {
		s.notify(ctx, hr.EmpEmail,
			fmt.Sprintf("Exit formalities due: %s", res.EmpName),
			fmt.Sprintf("The resignation of %s (%s) was approved with relieving date %s.\nTrack the formalities at %s/api/resignation-tasks/%d",
				res.EmpName, res.EmpCode, input.ReleavingDate.Format("2006-01-02"), s.baseURL, resID))
	}
	s.recordAudit(ctx, "resignation:approval", resID, map[string]any{"decision": input.Decision})
	return s.repo.Get(ctx, resID)
}

func (input TaskInput) valueFor(column string) *time.Time {
	switch column {
	case "exint_at":
		return input.ExintAt
	case "nodue_at":
		return input.NodueAt
	case "rel_at":
		return input.RelAt
	case "fnf_at":
		return input.FnfAt
	case "finapp_at":
		return input.FinappAt
	}
	return nil
}

// AdvanceTask applies the single exit-formality step matching the
// record's current status. The step executes only when the expected
// timestamp is supplied; otherwise the call is a no-op outcome.
func (s *Service) AdvanceTask(ctx context.Context, resID int64, input TaskInput) (Resignation, error) {
	res, err := s.repo.Get(ctx, resID)
	if err != nil {
		return Resignation{}, err
	}
	var step taskStep
	found := false
	for _, candidate := range exitSteps {
		if candidate.From == res.Status {
			step = candidate
			found = true
			break
		}
	}
	if !found {
		return Resignation{}, fmt.Errorf("%w: status %q has no pending exit formality", ErrSkipped, res.Status)
	}
	at := input.valueFor(step.Column)
	if at == nil {
		return Resignation{}, fmt.Errorf("%w: %s not supplied for status %q", ErrSkipped, step.Column, res.Status)
	}
	next, err := advance(res.Status, step.Event)
	if err != nil {
		return Resignation{}, err
	}
	applied, err := s.repo.ApplyTask(ctx, resID, res.Status, next, step.Column, *at, input)
	if err != nil {
		return Resignation{}, err
	}
	if !applied {
		return Resignation{}, ErrConflict
	}
	s.recordAudit(ctx, "resignation:task", resID, map[string]any{"status": next})
	return s.repo.Get(ctx, resID)
}

// Get loads one resignation.
func (s *Service) Get(ctx context.Context, resID int64) (Resignation, error) {
	return s.repo.Get(ctx, resID)
}

// List returns filtered resignations.
func (s *Service) List(ctx context.Context, filter Filter) ([]Resignation, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a resignation.
func (s *Service) Delete(ctx context.Context, resID int64) error {
	if err := s.repo.Delete(ctx, resID); err != nil {
		return err
	}
	s.recordAudit(ctx, "resignation:delete", resID, nil)
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

func (s *Service) recordAudit(ctx context.Context, action string, resID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "resignation_master",
		EntityID: fmt.Sprintf("%d", resID),
		Meta:     meta,
	})
}
