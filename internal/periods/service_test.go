package periods

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryPeriodRepo struct {
	nextID  int64
	periods map[int64]Period
	// counts db hits for cache assertions
	currentCalls int
}

func newMemoryPeriodRepo() *memoryPeriodRepo {
	return &memoryPeriodRepo{nextID: 1, periods: map[int64]Period{}}
}

func (m *memoryPeriodRepo) Get(_ context.Context, periodID int64) (Period, error) {
	p, ok := m.periods[periodID]
	if !ok {
		return Period{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryPeriodRepo) List(_ context.Context, _ Filter) ([]Period, error) {
	out := []Period{}
	for _, p := range m.periods {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryPeriodRepo) Insert(_ context.Context, p Period) (int64, error) {
	p.PeriodID = m.nextID
	m.nextID++
	m.periods[p.PeriodID] = p
	return p.PeriodID, nil
}

func (m *memoryPeriodRepo) Update(_ context.Context, p Period) error {
	if _, ok := m.periods[p.PeriodID]; !ok {
		return ErrNotFound
	}
	m.periods[p.PeriodID] = p
	return nil
}

func (m *memoryPeriodRepo) Delete(_ context.Context, periodID int64) error {
	if _, ok := m.periods[periodID]; !ok {
		return ErrNotFound
	}
	delete(m.periods, periodID)
	return nil
}

func (m *memoryPeriodRepo) CodeExists(_ context.Context, code string, excludeID int64) (bool, error) {
	for _, p := range m.periods {
		if p.PeriodCode == code && p.PeriodID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryPeriodRepo) RangeOverlaps(_ context.Context, start, end time.Time, excludeID int64) (bool, error) {
	for _, p := range m.periods {
		if p.PeriodID == excludeID {
			continue
		}
		if !start.After(p.EndDate) && !end.Before(p.StartDate) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryPeriodRepo) FindOpenForPosting(_ context.Context, date time.Time) (Period, error) {
	for _, p := range m.periods {
		if p.Status == StatusOpen && p.AllowPosting && p.Contains(date) {
			return p, nil
		}
	}
	return Period{}, ErrNotFound
}

func (m *memoryPeriodRepo) Current(_ context.Context, today time.Time) (Period, error) {
	m.currentCalls++
	for _, p := range m.periods {
		if p.Status == StatusOpen && p.Contains(today) {
			return p, nil
		}
	}
	return Period{}, ErrNotFound
}

type stubAudit struct {
	logs []shared.AuditLog
}

func (s *stubAudit) Record(_ context.Context, log shared.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func januaryInput() CreateInput {
	return CreateInput{
		PeriodCode:   "2026-01",
		PeriodName:   "January 2026",
		StartDate:    date("2026-01-01"),
		EndDate:      date("2026-01-31"),
		FiscalYear:   2026,
		PeriodMonth:  1,
		AllowPosting: true,
	}
}

func TestCreatePeriodValidation(t *testing.T) {
	svc := NewService(newMemoryPeriodRepo(), &stubAudit{}, nil, nil)
	ctx := context.Background()

	input := januaryInput()
	input.EndDate = input.StartDate
	_, err := svc.Create(ctx, input)
	require.ErrorIs(t, err, ErrValidation)

	input = januaryInput()
	input.PeriodMonth = 13
	_, err = svc.Create(ctx, input)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreatePeriodRejectsOverlapAndDuplicateCode(t *testing.T) {
	repo := newMemoryPeriodRepo()
	svc := NewService(repo, &stubAudit{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, januaryInput())
	require.NoError(t, err)

	dup := januaryInput()
	dup.StartDate = date("2026-02-01")
	dup.EndDate = date("2026-02-28")
	dup.PeriodMonth = 2
	_, err = svc.Create(ctx, dup)
	require.ErrorIs(t, err, ErrDuplicateCode)

	overlap := januaryInput()
	overlap.PeriodCode = "2026-01B"
	overlap.StartDate = date("2026-01-15")
	overlap.EndDate = date("2026-02-15")
	_, err = svc.Create(ctx, overlap)
	require.ErrorIs(t, err, ErrOverlap)
}

func TestUpdatePeriodExcludesSelfFromChecks(t *testing.T) {
	repo := newMemoryPeriodRepo()
	svc := NewService(repo, &stubAudit{}, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, januaryInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.PeriodID, UpdateInput{
		PeriodCode:   created.PeriodCode,
		PeriodName:   "January (revised)",
		StartDate:    created.StartDate,
		EndDate:      created.EndDate,
		FiscalYear:   created.FiscalYear,
		PeriodMonth:  created.PeriodMonth,
		AllowPosting: false,
	})
	require.NoError(t, err)
	require.Equal(t, "January (revised)", updated.PeriodName)
	require.False(t, updated.AllowPosting)
}

func TestResolvePostingPeriodGate(t *testing.T) {
	repo := newMemoryPeriodRepo()
	svc := NewService(repo, &stubAudit{}, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, januaryInput())
	require.NoError(t, err)

	period, err := svc.ResolvePostingPeriod(ctx, date("2026-01-10"))
	require.NoError(t, err)
	require.Equal(t, created.PeriodID, period.PeriodID)

	_, err = svc.ResolvePostingPeriod(ctx, date("2026-03-10"))
	require.ErrorIs(t, err, ErrPostingClosed)

	_, err = svc.SetStatus(ctx, created.PeriodID, StatusClosed, "tester")
	require.NoError(t, err)
	_, err = svc.ResolvePostingPeriod(ctx, date("2026-01-10"))
	require.ErrorIs(t, err, ErrPostingClosed)
}

func TestCurrentUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryPeriodRepo()
	svc := NewService(repo, &stubAudit{}, client, nil)
	svc.now = func() time.Time { return date("2026-01-10") }
	ctx := context.Background()

	created, err := svc.Create(ctx, januaryInput())
	require.NoError(t, err)

	first, err := svc.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, created.PeriodID, first.PeriodID)
	require.Equal(t, 1, repo.currentCalls)

	second, err := svc.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, created.PeriodID, second.PeriodID)
	require.Equal(t, 1, repo.currentCalls, "second read should come from cache")

	// any write invalidates the cached period
	_, err = svc.SetStatus(ctx, created.PeriodID, StatusClosed, "tester")
	require.NoError(t, err)
	_, err = svc.Current(ctx)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 2, repo.currentCalls)
}
