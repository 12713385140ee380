package interview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryInterviewRepo struct {
	nextID     int64
	candidates map[int64]Candidate
	// forces CAS misses to simulate a lost race
	failApply bool
}

func newMemoryInterviewRepo() *memoryInterviewRepo {
	return &memoryInterviewRepo{nextID: 1, candidates: map[int64]Candidate{}}
}

func (m *memoryInterviewRepo) Insert(_ context.Context, c Candidate) (int64, error) {
	c.InterID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now()
	m.candidates[c.InterID] = c
	return c.InterID, nil
}

func (m *memoryInterviewRepo) Get(_ context.Context, interID int64) (Candidate, error) {
	c, ok := m.candidates[interID]
	if !ok {
		return Candidate{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryInterviewRepo) List(_ context.Context, filter Filter) ([]Candidate, error) {
	out := []Candidate{}
	for _, c := range m.candidates {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryInterviewRepo) Update(_ context.Context, c Candidate) error {
	if _, ok := m.candidates[c.InterID]; !ok {
		return ErrNotFound
	}
	m.candidates[c.InterID] = c
	return nil
}

func (m *memoryInterviewRepo) Delete(_ context.Context, interID int64) error {
	if _, ok := m.candidates[interID]; !ok {
		return ErrNotFound
	}
	delete(m.candidates, interID)
	return nil
}

func (m *memoryInterviewRepo) ApplyFeedback(_ context.Context, interID int64, from, decision Status, feedback string, joinDate *time.Time, desGiven *int64) (bool, error) {
	if m.failApply {
		return false, nil
	}
	c, ok := m.candidates[interID]
	if !ok || c.Status != from {
		return false, nil
	}
	now := time.Now()
	c.Status = decision
	c.Feedback = feedback
	c.JoinDate = joinDate
	c.DesGiven = desGiven
	c.ObserAt = &now
	m.candidates[interID] = c
	return true, nil
}

func (m *memoryInterviewRepo) ApplyCTC(_ context.Context, interID int64, from Status, update Candidate) (bool, error) {
	if m.failApply {
		return false, nil
	}
	c, ok := m.candidates[interID]
	if !ok || c.Status != from {
		return false, nil
	}
	now := time.Now()
	c.Status = StatusCTCFinalized
	c.CTCValue = update.CTCValue
	c.HRRemarks = update.HRRemarks
	c.CTCAt = &now
	c.TatFollow = update.TatFollow
	c.TatJoin = update.TatJoin
	c.TatApolet = update.TatApolet
	c.TatBio = update.TatBio
	c.TatIndtra = update.TatIndtra
	c.TatPF = update.TatPF
	c.TatFMonth = update.TatFMonth
	c.TatTMonth = update.TatTMonth
	c.TatSMonth = update.TatSMonth
	m.candidates[interID] = c
	return true, nil
}

func (m *memoryInterviewRepo) ApplyMilestone(_ context.Context, interID int64, from, to Status, column string, at time.Time, followRemark string) (bool, error) {
	if m.failApply {
		return false, nil
	}
	c, ok := m.candidates[interID]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	stamp := at
	switch column {
	case "follow_at":
		c.FollowAt = &stamp
		c.FollowRemark = followRemark
	case "join_at":
		c.JoinAt = &stamp
	case "apolet_at":
		c.ApoletAt = &stamp
	case "bio_at":
		c.BioAt = &stamp
	case "indtra_at":
		c.IndtraAt = &stamp
	case "pf_at":
		c.PFAt = &stamp
	case "fmonth_at":
		c.FMonthAt = &stamp
	case "tmonth_at":
		c.TMonthAt = &stamp
	case "smonth_at":
		c.SMonthAt = &stamp
	}
	m.candidates[interID] = c
	return true, nil
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

func newInterviewService(repo *memoryInterviewRepo, notifier *stubNotifier) *Service {
	return NewService(repo, notifier, &stubAudit{}, nil, "http://erp.local")
}

func TestCreateNotifiesInterviewer(t *testing.T) {
	repo := newMemoryInterviewRepo()
	notifier := &stubNotifier{}
	svc := newInterviewService(repo, notifier)

	candidate, err := svc.Create(context.Background(), CreateInput{
		CandName:   "Priya Nair",
		Position:   "Line Engineer",
		InterEmail: "panel@meridian.local",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, candidate.Status)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "panel@meridian.local", notifier.sent[0].To)
	require.Contains(t, notifier.sent[0].Body, "/submit-feedback/1")
}

func TestSubmitFeedback(t *testing.T) {
	repo := newMemoryInterviewRepo()
	notifier := &stubNotifier{}
	svc := newInterviewService(repo, notifier)
	ctx := context.Background()

	candidate, err := svc.Create(ctx, CreateInput{CandName: "Priya Nair", CTCEmail: "hr@meridian.local"})
	require.NoError(t, err)

	_, err = svc.SubmitFeedback(ctx, candidate.InterID, FeedbackInput{Decision: Status("Hired")})
	require.ErrorIs(t, err, ErrValidation)

	join := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	decided, err := svc.SubmitFeedback(ctx, candidate.InterID, FeedbackInput{Feedback: "strong", Decision: StatusSelected, JoinDate: stamp(join)})
	require.NoError(t, err)
	require.Equal(t, StatusSelected, decided.Status)
	require.NotNil(t, decided.ObserAt)
	require.NotNil(t, decided.JoinDate)

	// selection triggers the CTC entry notification
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "hr@meridian.local", notifier.sent[0].To)
	require.Contains(t, notifier.sent[0].Body, "/hr-ctc/")

	_, err = svc.SubmitFeedback(ctx, candidate.InterID, FeedbackInput{Decision: StatusRejected})
	require.ErrorIs(t, err, ErrSkipped)
}

func TestFinalizeCTCRequiresSelected(t *testing.T) {
	repo := newMemoryInterviewRepo()
	svc := newInterviewService(repo, &stubNotifier{})
	ctx := context.Background()

	candidate, err := svc.Create(ctx, CreateInput{CandName: "Priya Nair"})
	require.NoError(t, err)

	_, err = svc.FinalizeCTC(ctx, candidate.InterID, CTCInput{CTCValue: 900000})
	require.ErrorIs(t, err, ErrSkipped)
}

func TestFinalizeCTCRequiresStoredJoinDate(t *testing.T) {
	repo := newMemoryInterviewRepo()
	svc := newInterviewService(repo, &stubNotifier{})
	ctx := context.Background()

	candidate, err := svc.Create(ctx, CreateInput{CandName: "Priya Nair"})
	require.NoError(t, err)
	_, err = svc.SubmitFeedback(ctx, candidate.InterID, FeedbackInput{Decision: StatusSelected})
	require.NoError(t, err)

	// feedback came in without a join date; CTC cannot derive deadlines
	_, err = svc.FinalizeCTC(ctx, candidate.InterID, CTCInput{CTCValue: 900000})
	require.ErrorIs(t, err, ErrValidation)

	unchanged, err := svc.Get(ctx, candidate.InterID)
	require.NoError(t, err)
	require.Equal(t, StatusSelected, unchanged.Status)
}

func TestFinalizeCTCDerivesOrderedDeadlines(t *testing.T) {
	repo := newMemoryInterviewRepo()
	svc := newInterviewService(repo, &stubNotifier{})
	ctx := context.Background()

	candidate, err := svc.Create(ctx, CreateInput{CandName: "Priya Nair"})
	require.NoError(t, err)
	join := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	desGiven := int64(4)
	_, err = svc.SubmitFeedback(ctx, candidate.InterID, FeedbackInput{Decision: StatusSelected, JoinDate: stamp(join), DesGiven: &desGiven})
	require.NoError(t, err)

	finalized, err := svc.FinalizeCTC(ctx, candidate.InterID, CTCInput{CTCValue: 900000, HRRemarks: "band B"})
	require.NoError(t, err)
	require.Equal(t, StatusCTCFinalized, finalized.Status)
	require.Equal(t, 900000.0, finalized.CTCValue)

	require.Equal(t, time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC), *finalized.TatFollow)
	require.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), *finalized.TatJoin)
	require.Equal(t, *finalized.TatApolet, *finalized.TatBio)

	ordered := []*time.Time{finalized.TatFollow, finalized.TatJoin, finalized.TatApolet, finalized.TatIndtra, finalized.TatPF, finalized.TatFMonth, finalized.TatTMonth, finalized.TatSMonth}
	for i := 1; i < len(ordered); i++ {
		require.NotNil(t, ordered[i])
		require.True(t, ordered[i-1].Before(*ordered[i]), "deadline %d must precede deadline %d", i-1, i)
	}

	_, err = svc.FinalizeCTC(ctx, candidate.InterID, CTCInput{CTCValue: 900000})
	require.ErrorIs(t, err, ErrSkipped)
}

func stamp(t time.Time) *time.Time { return &t }

func TestMilestoneSequenceWalksWholePipeline(t *testing.T) {
	repo := newMemoryInterviewRepo()
	svc := newInterviewService(repo, &stubNotifier{})
	ctx := context.Background()

	candidate, err := svc.Create(ctx, CreateInput{CandName: "Priya Nair"})
	require.NoError(t, err)
	join := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err = svc.SubmitFeedback(ctx, candidate.InterID, FeedbackInput{Decision: StatusSelected, JoinDate: stamp(join)})
	require.NoError(t, err)
	_, err = svc.FinalizeCTC(ctx, candidate.InterID, CTCInput{CTCValue: 1})
	require.NoError(t, err)

	now := time.Now()
	steps := []struct {
		input MilestoneInput
		want  Status
	}{
		{MilestoneInput{FollowAt: stamp(now), FollowRemark: "called"}, StatusFollowUpDone},
		{MilestoneInput{JoinAt: stamp(now)}, StatusJoined},
		{MilestoneInput{ApoletAt: stamp(now)}, StatusAppointment},
		{MilestoneInput{BioAt: stamp(now)}, StatusBiometric},
		{MilestoneInput{IndtraAt: stamp(now)}, StatusInduction},
		{MilestoneInput{PFAt: stamp(now)}, StatusPFDone},
		{MilestoneInput{FMonthAt: stamp(now)}, StatusFirstEval},
		{MilestoneInput{TMonthAt: stamp(now)}, StatusSecondEval},
		{MilestoneInput{SMonthAt: stamp(now)}, StatusThirdEval},
	}
	for _, step := range steps {
		advanced, err := svc.AdvanceMilestone(ctx, candidate.InterID, step.input)
		require.NoError(t, err)
		require.Equal(t, step.want, advanced.Status)
	}

	final, err := svc.Get(ctx, candidate.InterID)
	require.NoError(t, err)
	require.Equal(t, "called", final.FollowRemark)
	require.NotNil(t, final.FollowAt)
	require.NotNil(t, final.SMonthAt)

	// terminal state has no further step
	_, err = svc.AdvanceMilestone(ctx, candidate.InterID, MilestoneInput{SMonthAt: stamp(now)})
	require.ErrorIs(t, err, ErrSkipped)
}

func TestMilestoneRequiresMatchingTimestamp(t *testing.T) {
	repo := newMemoryInterviewRepo()
	svc := newInterviewService(repo, &stubNotifier{})
	ctx := context.Background()

	candidate, err := svc.Create(ctx, CreateInput{CandName: "Priya Nair"})
	require.NoError(t, err)
	_, err = svc.SubmitFeedback(ctx, candidate.InterID, FeedbackInput{Decision: StatusSelected, JoinDate: stamp(time.Now())})
	require.NoError(t, err)
	_, err = svc.FinalizeCTC(ctx, candidate.InterID, CTCInput{CTCValue: 1})
	require.NoError(t, err)

	// wrong timestamp for the pending step declines silently
	_, err = svc.AdvanceMilestone(ctx, candidate.InterID, MilestoneInput{JoinAt: stamp(time.Now())})
	require.ErrorIs(t, err, ErrSkipped)

	unchanged, err := svc.Get(ctx, candidate.InterID)
	require.NoError(t, err)
	require.Equal(t, StatusCTCFinalized, unchanged.Status)
}

func TestMilestoneConflictOnLostRace(t *testing.T) {
	repo := newMemoryInterviewRepo()
	svc := newInterviewService(repo, &stubNotifier{})
	ctx := context.Background()

	candidate, err := svc.Create(ctx, CreateInput{CandName: "Priya Nair"})
	require.NoError(t, err)
	_, err = svc.SubmitFeedback(ctx, candidate.InterID, FeedbackInput{Decision: StatusSelected, JoinDate: stamp(time.Now())})
	require.NoError(t, err)
	_, err = svc.FinalizeCTC(ctx, candidate.InterID, CTCInput{CTCValue: 1})
	require.NoError(t, err)

	repo.failApply = true
	_, err = svc.AdvanceMilestone(ctx, candidate.InterID, MilestoneInput{FollowAt: stamp(time.Now())})
	require.ErrorIs(t, err, ErrConflict)
}
