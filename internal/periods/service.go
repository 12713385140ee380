package periods

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

const (
	currentPeriodKey = "meridian:periods:current"
	currentPeriodTTL = 30 * time.Second
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Get(ctx context.Context, periodID int64) (Period, error)
	List(ctx context.Context, filter Filter) ([]Period, error)
	Insert(ctx context.Context, p Period) (int64, error)
	Update(ctx context.Context, p Period) error
	Delete(ctx context.Context, periodID int64) error
	CodeExists(ctx context.Context, code string, excludeID int64) (bool, error)
	RangeOverlaps(ctx context.Context, start, end time.Time, excludeID int64) (bool, error)
	FindOpenForPosting(ctx context.Context, date time.Time) (Period, error)
	Current(ctx context.Context, today time.Time) (Period, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates posting period management and the posting gate.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	cache  *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. The redis client is optional; without it
// current-period lookups always hit the database.
func NewService(repo RepositoryPort, audit AuditPort, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, logger: logger, now: time.Now}
}

func (s *Service) validate(code, name string, start, end time.Time, month int, status Status) error {
	if code == "" || name == "" {
		return fmt.Errorf("%w: period_code and period_name are required", ErrValidation)
	}
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrValidation)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end_date must be after start_date", ErrValidation)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: period_month must be between 1 and 12", ErrValidation)
	}
	if status != "" && !status.Valid() {
		return fmt.Errorf("%w: unknown period_status %q", ErrValidation, status)
	}
	return nil
}

// Create registers a new posting period.
func (s *Service) Create(ctx context.Context, input CreateInput) (Period, error) {
	if err := s.validate(input.PeriodCode, input.PeriodName, input.StartDate, input.EndDate, input.PeriodMonth, input.Status); err != nil {
		return Period{}, err
	}
	taken, err := s.repo.CodeExists(ctx, input.PeriodCode, 0)
	if err != nil {
		return Period{}, err
	}
	if taken {
		return Period{}, fmt.Errorf("%w: %s", ErrDuplicateCode, input.PeriodCode)
	}
	overlaps, err := s.repo.RangeOverlaps(ctx, input.StartDate, input.EndDate, 0)
	if err != nil {
		return Period{}, err
	}
	if overlaps {
		return Period{}, ErrOverlap
	}

	status := input.Status
	if status == "" {
		status = StatusOpen
	}
	period := Period{
		PeriodCode:               input.PeriodCode,
		PeriodName:               input.PeriodName,
		StartDate:                input.StartDate,
		EndDate:                  input.EndDate,
		FiscalYear:               input.FiscalYear,
		PeriodMonth:              input.PeriodMonth,
		Status:                   status,
		AllowPosting:             input.AllowPosting,
		AllowGoodsReceipt:        input.AllowGoodsReceipt,
		AllowGoodsIssue:          input.AllowGoodsIssue,
		AllowInvoiceVerification: input.AllowInvoiceVerification,
		CreatedBy:                input.CreatedBy,
	}
	id, err := s.repo.Insert(ctx, period)
	if err != nil {
		return Period{}, err
	}
	s.invalidateCurrent(ctx)
	s.recordAudit(ctx, "periods:create", id, map[string]any{"period_code": period.PeriodCode})
	return s.repo.Get(ctx, id)
}

// Update rewrites a posting period.
func (s *Service) Update(ctx context.Context, periodID int64, input UpdateInput) (Period, error) {
	existing, err := s.repo.Get(ctx, periodID)
	if err != nil {
		return Period{}, err
	}
	if err := s.validate(input.PeriodCode, input.PeriodName, input.StartDate, input.EndDate, input.PeriodMonth, input.Status); err != nil {
		return Period{}, err
	}
	taken, err := s.repo.CodeExists(ctx, input.PeriodCode, periodID)
	if err != nil {
		return Period{}, err
	}
	if taken {
		return Period{}, fmt.Errorf("%w: %s", ErrDuplicateCode, input.PeriodCode)
	}
	overlaps, err := s.repo.RangeOverlaps(ctx, input.StartDate, input.EndDate, periodID)
	if err != nil {
		return Period{}, err
	}
	if overlaps {
		return Period{}, ErrOverlap
	}

	existing.PeriodCode = input.PeriodCode
	existing.PeriodName = input.PeriodName
	existing.StartDate = input.StartDate
	existing.EndDate = input.EndDate
	existing.FiscalYear = input.FiscalYear
	existing.PeriodMonth = input.PeriodMonth
	if input.Status != "" {
		existing.Status = input.Status
	}
	existing.AllowPosting = input.AllowPosting
	existing.AllowGoodsReceipt = input.AllowGoodsReceipt
	existing.AllowGoodsIssue = input.AllowGoodsIssue
	existing.AllowInvoiceVerification = input.AllowInvoiceVerification
	existing.UpdatedBy = input.UpdatedBy
	if err := s.repo.Update(ctx, existing); err != nil {
		return Period{}, err
	}
	s.invalidateCurrent(ctx)
	s.recordAudit(ctx, "periods:update", periodID, map[string]any{"period_code": existing.PeriodCode})
	return s.repo.Get(ctx, periodID)
}

// SetStatus flips the lifecycle state of a period.
func (s *Service) SetStatus(ctx context.Context, periodID int64, status Status, updatedBy string) (Period, error) {
	if !status.Valid() {
		return Period{}, fmt.Errorf("%w: unknown period_status %q", ErrValidation, status)
	}
	existing, err := s.repo.Get(ctx, periodID)
	if err != nil {
		return Period{}, err
	}
	existing.Status = status
	existing.UpdatedBy = updatedBy
	if err := s.repo.Update(ctx, existing); err != nil {
		return Period{}, err
	}
	s.invalidateCurrent(ctx)
	s.recordAudit(ctx, "periods:set_status", periodID, map[string]any{"period_status": status})
	return s.repo.Get(ctx, periodID)
}

// Delete removes a period.
func (s *Service) Delete(ctx context.Context, periodID int64) error {
	if err := s.repo.Delete(ctx, periodID); err != nil {
		return err
	}
	s.invalidateCurrent(ctx)
	s.recordAudit(ctx, "periods:delete", periodID, nil)
	return nil
}

// Get loads one period.
func (s *Service) Get(ctx context.Context, periodID int64) (Period, error) {
	return s.repo.Get(ctx, periodID)
}

// List returns filtered periods.
func (s *Service) List(ctx context.Context, filter Filter) ([]Period, error) {
	return s.repo.List(ctx, filter)
}

// ResolvePostingPeriod returns the open period that allows posting and
// covers the date, or ErrPostingClosed. Document-posting flows call
// this before writing anything.
func (s *Service) ResolvePostingPeriod(ctx context.Context, date time.Time) (Period, error) {
	period, err := s.repo.FindOpenForPosting(ctx, date)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Period{}, fmt.Errorf("%w: %s", ErrPostingClosed, date.Format("2006-01-02"))
		}
		return Period{}, err
	}
	return period, nil
}

// Current resolves the open period covering today, caching the result
// briefly so the lookup does not hammer the database on every posting.
func (s *Service) Current(ctx context.Context) (Period, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, currentPeriodKey).Bytes(); err == nil {
			var cached Period
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}
	period, err := s.repo.Current(ctx, s.now())
	if err != nil {
		return Period{}, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(period); err == nil {
			if err := s.cache.Set(ctx, currentPeriodKey, raw, currentPeriodTTL).Err(); err != nil && s.logger != nil {
				s.logger.Warn("cache current period", slog.Any("error", err))
			}
		}
	}
	return period, nil
}

func (s *Service) invalidateCurrent(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, currentPeriodKey).Err(); err != nil && s.logger != nil {
		s.logger.Warn("invalidate current period cache", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, periodID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "posting_periods",
		EntityID: fmt.Sprintf("%d", periodID),
		Meta:     meta,
	})
}
