package periods

import (
	"errors"
	"time"
)

// Status enumerates posting period lifecycle states.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
	StatusFuture Status = "Future"
)

// Valid reports whether the status is a known state.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusFuture:
		return true
	}
	return false
}

// Period is a posting period with per-document-class posting flags.
type Period struct {
	PeriodID                 int64     `json:"period_id"`
	PeriodCode               string    `json:"period_code"`
	PeriodName               string    `json:"period_name"`
	StartDate                time.Time `json:"start_date"`
	EndDate                  time.Time `json:"end_date"`
	FiscalYear               int       `json:"fiscal_year"`
	PeriodMonth              int       `json:"period_month"`
	Status                   Status    `json:"period_status"`
	AllowPosting             bool      `json:"allow_posting"`
	AllowGoodsReceipt        bool      `json:"allow_goods_receipt"`
	AllowGoodsIssue          bool      `json:"allow_goods_issue"`
	AllowInvoiceVerification bool      `json:"allow_invoice_verification"`
	CreatedBy                string    `json:"created_by,omitempty"`
	UpdatedBy                string    `json:"updated_by,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// Contains reports whether the date falls inside the period range,
// inclusive on both ends. Comparison is by calendar date.
func (p Period) Contains(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	start := p.StartDate.Truncate(24 * time.Hour)
	end := p.EndDate.Truncate(24 * time.Hour)
	return !day.Before(start) && !day.After(end)
}

// CreateInput carries fields for creating a period.
type CreateInput struct {
	PeriodCode               string
	PeriodName               string
	StartDate                time.Time
	EndDate                  time.Time
	FiscalYear               int
	PeriodMonth              int
	Status                   Status
	AllowPosting             bool
	AllowGoodsReceipt        bool
	AllowGoodsIssue          bool
	AllowInvoiceVerification bool
	CreatedBy                string
}

// UpdateInput carries fields for updating a period.
type UpdateInput struct {
	PeriodCode               string
	PeriodName               string
	StartDate                time.Time
	EndDate                  time.Time
	FiscalYear               int
	PeriodMonth              int
	Status                   Status
	AllowPosting             bool
	AllowGoodsReceipt        bool
	AllowGoodsIssue          bool
	AllowInvoiceVerification bool
	UpdatedBy                string
}

// Filter narrows period listings.
type Filter struct {
	FiscalYear int
	Status     Status
	Limit      int
	Offset     int
}

var (
	// ErrNotFound indicates a missing period.
	ErrNotFound = errors.New("periods: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("periods: invalid input")
	// ErrOverlap indicates the date range collides with another period.
	ErrOverlap = errors.New("periods: date range overlaps an existing period")
	// ErrDuplicateCode indicates the period code is already taken.
	ErrDuplicateCode = errors.New("periods: period code already exists")
	// ErrPostingClosed indicates no open period allows posting for a date.
	ErrPostingClosed = errors.New("periods: posting not allowed for date")
)
