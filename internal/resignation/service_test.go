package resignation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryResignationRepo struct {
	nextID       int64
	resignations map[int64]Resignation
	employees    map[string]Employee
	hrManager    *Employee
	// forces CAS misses to simulate a lost race
	failApply bool
}

func newMemoryResignationRepo() *memoryResignationRepo {
	return &memoryResignationRepo{
		nextID:       1,
		resignations: map[int64]Resignation{},
		employees: map[string]Employee{
			"EMP-7": {EmpID: 7, EmpCode: "EMP-7", EmpName: "Kiran Shah", EmpEmail: "kiran@meridian.local", DeptName: "Production", DesName: "Supervisor"},
		},
		hrManager: &Employee{EmpID: 2, EmpCode: "EMP-2", EmpName: "Meera Joshi", EmpEmail: "meera.hr@meridian.local", DeptName: "HR & Admin", DesName: "Manager"},
	}
}

func (m *memoryResignationRepo) Insert(_ context.Context, res Resignation) (int64, error) {
	res.ResID = m.nextID
	m.nextID++
	res.CreatedAt = time.Now()
	m.resignations[res.ResID] = res
	return res.ResID, nil
}

func (m *memoryResignationRepo) Get(_ context.Context, resID int64) (Resignation, error) {
	res, ok := m.resignations[resID]
	if !ok {
		return Resignation{}, ErrNotFound
	}
	return res, nil
}

func (m *memoryResignationRepo) List(_ context.Context, filter Filter) ([]Resignation, error) {
	out := []Resignation{}
	for _, res := range m.resignations {
		if filter.Status != "" && res.Status != filter.Status {
			continue
		}
		if filter.EmpCode != "" && res.EmpCode != filter.EmpCode {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (m *memoryResignationRepo) Delete(_ context.Context, resID int64) error {
	if _, ok := m.resignations[resID]; !ok {
		return ErrNotFound
	}
	delete(m.resignations, resID)
	return nil
}

func (m *memoryResignationRepo) ApplyApproval(_ context.Context, resID int64, decision Status, releavingDate *time.Time, remarks, hrEmail string) (bool, error) {
	if m.failApply {
		return false, nil
	}
	res, ok := m.resignations[resID]
	if !ok || res.Status != StatusPending {
		return false, nil
	}
	now := time.Now()
	res.Status = decision
	res.ReleavingDate = releavingDate
	if remarks != "" {
		res.Remarks = remarks
	}
	res.HREmail = hrEmail
	res.AppAt = &now
	m.resignations[resID] = res
	return true, nil
}

func (m *memoryResignationRepo) ApplyTask(_ context.Context, resID int64, from, to Status, column string, at time.Time, input TaskInput) (bool, error) {
	if m.failApply {
		return false, nil
	}
	res, ok := m.resignations[resID]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	stamp := at
	switch column {
	case "exint_at":
		res.ExintAt = &stamp
	case "nodue_at":
		res.NodueAt = &stamp
	case "rel_at":
		res.RelAt = &stamp
	case "fnf_at":
		res.FnfAt = &stamp
		res.CheqNo = input.CheqNo
		res.CheqAmt = input.CheqAmt
	case "finapp_at":
		res.FinappAt = &stamp
		res.HRRemark = input.HRRemark
	}
	m.resignations[resID] = res
	return true, nil
}

func (m *memoryResignationRepo) EmployeeByCode(_ context.Context, code string) (Employee, error) {
	e, ok := m.employees[code]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryResignationRepo) HRManager(_ context.Context) (Employee, error) {
	if m.hrManager == nil {
		return Employee{}, ErrNotFound
	}
	return *m.hrManager, nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type stubNotifier struct {
	sent []sentMail
}

func (s *stubNotifier) Send(_ context.Context, to, subject, body string) error {
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type stubAudit struct {
	logs []shared.AuditLog
}

func (s *stubAudit) Record(_ context.Context, log shared.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func newResignationService(repo *memoryResignationRepo, notifier *stubNotifier) *Service {
	return NewService(repo, notifier, &stubAudit{}, nil, "http://erp.local")
}

func stamp(t time.Time) *time.Time { return &t }

func TestSubmitNotifiesHOD(t *testing.T) {
	repo := newMemoryResignationRepo()
	notifier := &stubNotifier{}
	svc := newResignationService(repo, notifier)
	svc.now = func() time.Time { return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC) }

	res, err := svc.Submit(context.Background(), SubmitInput{
		EmpCode:         "EMP-7",
		ResignationDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Reason:          "relocation",
		HODName:         "Vivek Rane",
		HODEmail:        "vivek@meridian.local",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, res.Status)
	require.Equal(t, "Kiran Shah", res.EmpName)
	require.Equal(t, "Production", res.DeptName)
	require.NotNil(t, res.TatApp)
	require.Equal(t, time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC), *res.TatApp)

	require.Len(t, notifier.sent, 1)
	require.Equal(t, "vivek@meridian.local", notifier.sent[0].To)
	require.Contains(t, notifier.sent[0].Body, "/resignations/1/approval")
}

func TestSubmitRequiresKnownEmployee(t *testing.T) {
	repo := newMemoryResignationRepo()
	svc := newResignationService(repo, &stubNotifier{})

	_, err := svc.Submit(context.Background(), SubmitInput{
		EmpCode:         "GHOST",
		ResignationDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApproveRequiresReleavingDate(t *testing.T) {
	repo := newMemoryResignationRepo()
	svc := newResignationService(repo, &stubNotifier{})
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{EmpCode: "EMP-7", ResignationDate: time.Now()})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, res.ResID, ApprovalInput{Decision: Status("Maybe")})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Approve(ctx, res.ResID, ApprovalInput{Decision: StatusApproved})
	require.ErrorIs(t, err, ErrValidation)

	// the record stays Pending after both rejected attempts
	current, err := svc.Get(ctx, res.ResID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, current.Status)
}

func TestApproveRoutesToHR(t *testing.T) {
	repo := newMemoryResignationRepo()
	notifier := &stubNotifier{}
	svc := newResignationService(repo, notifier)
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{EmpCode: "EMP-7", ResignationDate: time.Now()})
	require.NoError(t, err)

	releaving := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	approved, err := svc.Approve(ctx, res.ResID, ApprovalInput{Decision: StatusApproved, ReleavingDate: &releaving})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, releaving, *approved.ReleavingDate)
	require.NotNil(t, approved.AppAt)
	require.Equal(t, "meera.hr@meridian.local", approved.HREmail)

	require.Len(t, notifier.sent, 1)
	require.Equal(t, "meera.hr@meridian.local", notifier.sent[0].To)
	require.Contains(t, notifier.sent[0].Body, "/resignation-tasks/1")

	_, err = svc.Approve(ctx, res.ResID, ApprovalInput{Decision: StatusRejected})
	require.ErrorIs(t, err, ErrSkipped)
}

func TestApproveToleratesMissingHRManager(t *testing.T) {
	repo := newMemoryResignationRepo()
	repo.hrManager = nil
	notifier := &stubNotifier{}
	svc := newResignationService(repo, notifier)
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{EmpCode: "EMP-7", ResignationDate: time.Now()})
	require.NoError(t, err)

	releaving := time.Now().AddDate(0, 1, 0)
	approved, err := svc.Approve(ctx, res.ResID, ApprovalInput{Decision: StatusApproved, ReleavingDate: &releaving})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Empty(t, approved.HREmail)
	require.Empty(t, notifier.sent)
}

func TestRejectedNeedsNoReleavingDate(t *testing.T) {
	repo := newMemoryResignationRepo()
	svc := newResignationService(repo, &stubNotifier{})
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{EmpCode: "EMP-7", ResignationDate: time.Now()})
	require.NoError(t, err)

	rejected, err := svc.Approve(ctx, res.ResID, ApprovalInput{Decision: StatusRejected, Remarks: "retained"})
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Nil(t, rejected.ReleavingDate)
	require.Equal(t, "retained", rejected.Remarks)
}

func TestTaskSequenceWalksExitFormalities(t *testing.T) {
	repo := newMemoryResignationRepo()
	svc := newResignationService(repo, &stubNotifier{})
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{EmpCode: "EMP-7", ResignationDate: time.Now()})
	require.NoError(t, err)
	releaving := time.Now().AddDate(0, 1, 0)
	_, err = svc.Approve(ctx, res.ResID, ApprovalInput{Decision: StatusApproved, ReleavingDate: &releaving})
	require.NoError(t, err)

	now := time.Date(2026, 4, 20, 11, 0, 0, 0, time.UTC)

	exint, err := svc.AdvanceTask(ctx, res.ResID, TaskInput{ExintAt: stamp(now)})
	require.NoError(t, err)
	require.Equal(t, StatusExitInterview, exint.Status)
	require.Equal(t, now, *exint.ExintAt)

	nodue, err := svc.AdvanceTask(ctx, res.ResID, TaskInput{NodueAt: stamp(now.Add(time.Hour))})
	require.NoError(t, err)
	require.Equal(t, StatusNoDue, nodue.Status)

	rel, err := svc.AdvanceTask(ctx, res.ResID, TaskInput{RelAt: stamp(now.Add(2 * time.Hour))})
	require.NoError(t, err)
	require.Equal(t, StatusReleaving, rel.Status)

	fnf, err := svc.AdvanceTask(ctx, res.ResID, TaskInput{FnfAt: stamp(now.Add(3 * time.Hour)), CheqNo: "CHQ-991", CheqAmt: 54250})
	require.NoError(t, err)
	require.Equal(t, StatusFnF, fnf.Status)
	require.Equal(t, "CHQ-991", fnf.CheqNo)
	require.Equal(t, 54250.0, fnf.CheqAmt)

	final, err := svc.AdvanceTask(ctx, res.ResID, TaskInput{FinappAt: stamp(now.Add(4 * time.Hour)), HRRemark: "cleared"})
	require.NoError(t, err)
	require.Equal(t, StatusFinalApproval, final.Status)
	require.Equal(t, "cleared", final.HRRemark)

	// terminal status has no further step
	_, err = svc.AdvanceTask(ctx, res.ResID, TaskInput{FinappAt: stamp(now)})
	require.ErrorIs(t, err, ErrSkipped)
}

func TestTaskRequiresMatchingTimestamp(t *testing.T) {
	repo := newMemoryResignationRepo()
	svc := newResignationService(repo, &stubNotifier{})
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{EmpCode: "EMP-7", ResignationDate: time.Now()})
	require.NoError(t, err)
	releaving := time.Now().AddDate(0, 1, 0)
	_, err = svc.Approve(ctx, res.ResID, ApprovalInput{Decision: StatusApproved, ReleavingDate: &releaving})
	require.NoError(t, err)

	// Approved expects exint_at, not fnf_at
	_, err = svc.AdvanceTask(ctx, res.ResID, TaskInput{FnfAt: stamp(time.Now())})
	require.ErrorIs(t, err, ErrSkipped)

	current, err := svc.Get(ctx, res.ResID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, current.Status)
}

func TestTaskRefusedBeforeApproval(t *testing.T) {
	repo := newMemoryResignationRepo()
	svc := newResignationService(repo, &stubNotifier{})
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{EmpCode: "EMP-7", ResignationDate: time.Now()})
	require.NoError(t, err)

	_, err = svc.AdvanceTask(ctx, res.ResID, TaskInput{ExintAt: stamp(time.Now())})
	require.ErrorIs(t, err, ErrSkipped)
}

func TestTaskConflictOnLostRace(t *testing.T) {
	repo := newMemoryResignationRepo()
	svc := newResignationService(repo, &stubNotifier{})
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{EmpCode: "EMP-7", ResignationDate: time.Now()})
	require.NoError(t, err)
	releaving := time.Now().AddDate(0, 1, 0)
	_, err = svc.Approve(ctx, res.ResID, ApprovalInput{Decision: StatusApproved, ReleavingDate: &releaving})
	require.NoError(t, err)

	repo.failApply = true
	_, err = svc.AdvanceTask(ctx, res.ResID, TaskInput{ExintAt: stamp(time.Now())})
	require.ErrorIs(t, err, ErrConflict)
}
