package interview

import (
	"errors"
	"time"
)

// Status is the pipeline cursor for a candidate. It is the single
// source of truth for where in the onboarding sequence a record is.
type Status string

const (
	StatusPending      Status = "Pending"
	StatusSelected     Status = "Selected"
	StatusRejected     Status = "Rejected"
	StatusOnHold       Status = "On Hold"
	StatusChoose       Status = "Choose"
	StatusCTCFinalized Status = "CTC Finalized"
	StatusFollowUpDone Status = "FollowUP Done"
	StatusJoined       Status = "Candidate Joined"
	StatusAppointment  Status = "Appointment Given"
	StatusBiometric    Status = "BioMetric Done"
	StatusInduction    Status = "Induction/Training Done"
	StatusPFDone       Status = "PF Account Done"
	StatusFirstEval    Status = "First Eva. Done"
	StatusSecondEval   Status = "Second Eva. Done"
	StatusThirdEval    Status = "Third Eva. Done"
)

// DecisionValid reports whether the status is an interviewer decision.
func DecisionValid(s Status) bool {
	switch s {
	case StatusSelected, StatusRejected, StatusOnHold, StatusChoose:
		return true
	}
	return false
}

// Candidate is one interview-to-joining record. Optional fields accrete
// over the pipeline's lifetime; every milestone timestamp is written
// exactly once at its transition.
type Candidate struct {
	InterID    int64  `json:"inter_id"`
	CandName   string `json:"cand_name"`
	CandEmail  string `json:"cand_email,omitempty"`
	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
	InterEmail string `json:"inter_email,omitempty"`
	CTCEmail   string `json:"ctc_email,omitempty"`

	Feedback     string     `json:"feedback,omitempty"`
	Status       Status     `json:"status"`
	ObserAt      *time.Time `json:"obser_at,omitempty"`
	JoinDate     *time.Time `json:"join_date,omitempty"`
	DesGiven     *int64     `json:"des_given,omitempty"`
	DesGivenName string     `json:"des_given_name,omitempty"`

	CTCValue  float64    `json:"ctc_value,omitempty"`
	HRRemarks string     `json:"hr_remarks,omitempty"`
	CTCAt     *time.Time `json:"ctc_at,omitempty"`

	FollowRemark string     `json:"follow_remark,omitempty"`
	FollowAt     *time.Time `json:"follow_at,omitempty"`
	JoinAt       *time.Time `json:"join_at,omitempty"`
	ApoletAt     *time.Time `json:"apolet_at,omitempty"`
	BioAt        *time.Time `json:"bio_at,omitempty"`
	IndtraAt     *time.Time `json:"indtra_at,omitempty"`
	PFAt         *time.Time `json:"pf_at,omitempty"`
	FMonthAt     *time.Time `json:"fmonth_at,omitempty"`
	TMonthAt     *time.Time `json:"tmonth_at,omitempty"`
	SMonthAt     *time.Time `json:"smonth_at,omitempty"`

	TatFollow *time.Time `json:"tat_follow,omitempty"`
	TatJoin   *time.Time `json:"tat_join,omitempty"`
	TatApolet *time.Time `json:"tat_apolet,omitempty"`
	TatBio    *time.Time `json:"tat_bio,omitempty"`
	TatIndtra *time.Time `json:"tat_indtra,omitempty"`
	TatPF     *time.Time `json:"tat_pf,omitempty"`
	TatFMonth *time.Time `json:"tat_fmonth,omitempty"`
	TatTMonth *time.Time `json:"tat_tmonth,omitempty"`
	TatSMonth *time.Time `json:"tat_smonth,omitempty"`

	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput carries fields for registering a candidate.
type CreateInput struct {
	CandName   string
	CandEmail  string
	Position   string
	Department string
	InterEmail string
	CTCEmail   string
	CreatedBy  string
}

// FeedbackInput carries the interviewer decision. Join date and the
// offered designation are captured here; a Selected candidate cannot
// reach CTC finalization without the join date on record.
type FeedbackInput struct {
	Feedback string
	Decision Status
	JoinDate *time.Time
	DesGiven *int64
}

// CTCInput carries the HR CTC finalization. Deadlines derive from the
// join date already stored on the record.
type CTCInput struct {
	CTCValue  float64
	HRRemarks string
}

// MilestoneInput carries at most one milestone timestamp; the step
// that matches the record's current status consumes it.
type MilestoneInput struct {
	FollowAt     *time.Time
	FollowRemark string
	JoinAt       *time.Time
	ApoletAt     *time.Time
	BioAt        *time.Time
	IndtraAt     *time.Time
	PFAt         *time.Time
	FMonthAt     *time.Time
	TMonthAt     *time.Time
	SMonthAt     *time.Time
}

// Filter narrows candidate listings.
type Filter struct {
	Status Status
	Limit  int
	Offset int
}

var (
	// ErrNotFound indicates a missing candidate.
	ErrNotFound = errors.New("interview: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("interview: invalid input")
	// ErrConflict indicates a concurrent transition won the race.
	ErrConflict = errors.New("interview: conflicting update")
	// ErrSkipped marks a no-op pipeline call; handlers report it as an
	// outcome, not a failure.
	ErrSkipped = errors.New("interview: no action needed")
)
