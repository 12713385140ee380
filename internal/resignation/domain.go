package resignation

import (
	"errors"
	"time"
)

// Status is the pipeline cursor for a resignation record.
type Status string

const (
	StatusPending       Status = "Pending"
	StatusApproved      Status = "Approved"
	StatusRejected      Status = "Rejected"
	StatusExitInterview Status = "Exit Interview Done"
	StatusNoDue         Status = "No Due Done"
	StatusReleaving     Status = "Releaving Done"
	StatusFnF           Status = "F&F Done"
	StatusFinalApproval Status = "Final Approval"
)

// DecisionValid reports whether the status is a HOD decision.
func DecisionValid(s Status) bool {
	return s == StatusApproved || s == StatusRejected
}

// Resignation is one resignation event with milestone timestamps
// written once at each transition.
type Resignation struct {
	ResID    int64  `json:"res_id"`
	EmpCode  string `json:"emp_code"`
	EmpName  string `json:"emp_name"`
	DeptName string `json:"dept_name,omitempty"`
	DesName  string `json:"des_name,omitempty"`
	HODName  string `json:"hod_name,omitempty"`
	HODEmail string `json:"hod_email,omitempty"`

	ResignationDate time.Time `json:"resignation_date"`
	Reason          string    `json:"reason,omitempty"`
	Remarks         string    `json:"remarks,omitempty"`
	Status          Status    `json:"status"`

	TatApp        *time.Time `json:"tat_app,omitempty"`
	ReleavingDate *time.Time `json:"releaving_date,omitempty"`
	HREmail       string     `json:"hr_email,omitempty"`

	AppAt    *time.Time `json:"app_at,omitempty"`
	ExintAt  *time.Time `json:"exint_at,omitempty"`
	NodueAt  *time.Time `json:"nodue_at,omitempty"`
	RelAt    *time.Time `json:"rel_at,omitempty"`
	FnfAt    *time.Time `json:"fnf_at,omitempty"`
	CheqNo   string     `json:"cheqno,omitempty"`
	CheqAmt  float64    `json:"cheqamt,omitempty"`
	FinappAt *time.Time `json:"finapp_at,omitempty"`
	HRRemark string     `json:"hr_remark,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitInput carries fields for filing a resignation.
type SubmitInput struct {
	EmpCode         string
	ResignationDate time.Time
	Reason          string
	Remarks         string
	HODName         string
	HODEmail        string
}

// ApprovalInput carries the HOD decision.
type ApprovalInput struct {
	Decision      Status
	ReleavingDate *time.Time
	Remarks       string
}

// TaskInput carries at most one exit-formality timestamp; the step
// matching the record's current status consumes it.
type TaskInput struct {
	ExintAt  *time.Time
	NodueAt  *time.Time
	RelAt    *time.Time
	FnfAt    *time.Time
	CheqNo   string
	CheqAmt  float64
	FinappAt *time.Time
	HRRemark string
}

// Employee is identity resolved from the employee master.
type Employee struct {
	EmpID    int64
	EmpCode  string
	EmpName  string
	EmpEmail string
	DeptName string
	DesName  string
}

// Filter narrows resignation listings.
type Filter struct {
	Status  Status
	EmpCode string
	Limit   int
	Offset  int
}

var (
	// ErrNotFound indicates a missing record or employee.
	ErrNotFound = errors.New("resignation: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("resignation: invalid input")
	// ErrConflict indicates a concurrent transition won the race.
	ErrConflict = errors.New("resignation: conflicting update")
	// ErrSkipped marks a no-op pipeline call; handlers report it as an
	// outcome, not a failure.
	ErrSkipped = errors.New("resignation: no action needed")
)
