package procurement

import (
	"errors"
	"time"
)

// PRStatus enumerates purchase requisition states. The status endpoint
// accepts any member without ordering; only conversion flips documents
// to PRStatusConverted.
type PRStatus string

const (
	PRStatusPending   PRStatus = "Pending"
	PRStatusApproved  PRStatus = "Approved"
	PRStatusRejected  PRStatus = "Rejected"
	PRStatusConverted PRStatus = "Converted to PO"
)

// Valid reports whether the status is a known state.
func (s PRStatus) Valid() bool {
	switch s {
	case PRStatusPending, PRStatusApproved, PRStatusRejected, PRStatusConverted:
		return true
	}
	return false
}

// POStatus enumerates purchase order states.
type POStatus string

const (
	POStatusOpen   POStatus = "Open"
	POStatusClosed POStatus = "Closed"
)

// Valid reports whether the status is a known state.
func (s POStatus) Valid() bool {
	return s == POStatusOpen || s == POStatusClosed
}

// PRHeader is a purchase requisition document.
type PRHeader struct {
	ReqID     int64     `json:"req_id"`
	ReqNo     string    `json:"req_no"`
	PostPer   string    `json:"post_per"`
	EmpCode   string    `json:"emp_code"`
	EmpName   string    `json:"emp_name"`
	EmpDept   string    `json:"emp_dept"`
	PostDate  time.Time `json:"post_dt"`
	ValidDate time.Time `json:"valid_dt"`
	DocDate   time.Time `json:"doc_dt"`
	Status    PRStatus  `json:"req_status"`
	Priority  string    `json:"priority,omitempty"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Rows      []PRRow   `json:"rows"`
}

// PRRow is one requisition line. Item identity and current stock are
// snapshotted at creation time, not live references.
type PRRow struct {
	ReqRowID     int64     `json:"req_row_id"`
	ReqID        int64     `json:"req_id"`
	LineNo       int       `json:"line_no"`
	ItemID       int64     `json:"it_id"`
	ItemCode     string    `json:"it_code"`
	ItemName     string    `json:"it_name"`
	ItemDetails  string    `json:"it_details,omitempty"`
	ItemHSN      string    `json:"it_hsn,omitempty"`
	NeedDate     time.Time `json:"need_date"`
	CurrentStock float64   `json:"current_stock"`
	ReqQty       float64   `json:"req_qty"`
	CreatedBy    string    `json:"created_by,omitempty"`
}

// PRRowInput is a requisition line as submitted.
type PRRowInput struct {
	LineNo   int
	ItemID   int64
	NeedDate time.Time
	ReqQty   float64
}

// CreatePRInput carries fields for creating a requisition.
type CreatePRInput struct {
	EmpCode   string
	PostDate  time.Time
	DocDate   time.Time
	Priority  string
	Remarks   string
	CreatedBy string
	Rows      []PRRowInput
}

// POHeader is a purchase order document with computed totals.
type POHeader struct {
	POID        int64     `json:"po_id"`
	PONo        string    `json:"po_no"`
	PostPer     string    `json:"post_per"`
	PostDate    time.Time `json:"post_dt"`
	DocDate     time.Time `json:"doc_dt"`
	BPCode      string    `json:"bpcode"`
	BPName      string    `json:"bpname"`
	EmpCode     string    `json:"emp_code,omitempty"`
	EmpName     string    `json:"emp_name,omitempty"`
	DeptID      int64     `json:"dept_id,omitempty"`
	Subtotal    float64   `json:"subtotal"`
	DiscountAmt float64   `json:"discount_amt"`
	TaxAmt      float64   `json:"tax_amt"`
	TotalAmt    float64   `json:"total_amt"`
	Status      POStatus  `json:"po_status"`
	Remarks     string    `json:"remarks,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	Rows        []PORow   `json:"rows"`
}

// PORow is one order line. PRReqID, PRLineNo and PRNo back-reference
// the source requisition line when the order came from a conversion.
type PORow struct {
	PORowID         int64     `json:"po_row_id"`
	POID            int64     `json:"po_id"`
	LineNo          int       `json:"line_no"`
	ItemID          int64     `json:"it_id"`
	ItemCode        string    `json:"it_code"`
	ItemName        string    `json:"it_name"`
	ItemDetails     string    `json:"it_details,omitempty"`
	HSNCode         string    `json:"hsn_code,omitempty"`
	UOMID           int64     `json:"uom_id,omitempty"`
	ReqQty          float64   `json:"req_qty"`
	NeedDate        time.Time `json:"need_date"`
	UnitPrice       float64   `json:"unit_price"`
	DiscountPercent float64   `json:"discount_percent"`
	DiscountAmt     float64   `json:"discount_amt"`
	TaxCode         string    `json:"tax_code,omitempty"`
	TaxRate         float64   `json:"tax_rate"`
	TaxAmt          float64   `json:"tax_amt"`
	LineTotal       float64   `json:"line_total"`
	WarehouseID     int64     `json:"whs_id,omitempty"`
	PRReqID         int64     `json:"pr_req_id,omitempty"`
	PRLineNo        int       `json:"pr_line_no,omitempty"`
	PRNo            string    `json:"pr_no,omitempty"`
	CreatedBy       string    `json:"created_by,omitempty"`
}

// PORowInput is an order line as submitted.
type PORowInput struct {
	LineNo          int
	ItemID          int64
	UOMID           int64
	ReqQty          float64
	NeedDate        time.Time
	UnitPrice       float64
	DiscountPercent float64
	TaxCode         string
	WarehouseID     int64
}

// CreatePOInput carries fields for creating an order directly.
type CreatePOInput struct {
	BPCode    string
	EmpCode   string
	PostDate  time.Time
	DocDate   time.Time
	Remarks   string
	CreatedBy string
	Rows      []PORowInput
}

// ConvertInput carries fields for converting approved requisitions
// into one order.
type ConvertInput struct {
	ReqIDs    []int64
	BPCode    string
	PostDate  time.Time
	DocDate   time.Time
	CreatedBy string
}

// ApprovedPRSummary is a listing row for requisitions awaiting
// conversion.
type ApprovedPRSummary struct {
	ReqID     int64     `json:"req_id"`
	ReqNo     string    `json:"req_no"`
	EmpName   string    `json:"emp_name"`
	PostDate  time.Time `json:"post_dt"`
	ItemCount int       `json:"item_count"`
	TotalQty  float64   `json:"total_qty"`
}

// Employee is requester identity resolved from the employee master.
type Employee struct {
	EmpCode  string
	EmpName  string
	DeptID   int64
	DeptName string
}

// Vendor is a supplier business partner.
type Vendor struct {
	BPCode string `json:"bpcode"`
	BPName string `json:"bpname"`
}

// Item is the identity snapshot taken from the item master.
type Item struct {
	ItemID      int64
	ItemCode    string
	ItemName    string
	ItemDetails string
	ItemHSN     string
}

// TaxCode is an active tax definition.
type TaxCode struct {
	Code string
	Rate float64
}

// PRFilter narrows requisition listings.
type PRFilter struct {
	Status  PRStatus
	EmpCode string
	Limit   int
	Offset  int
}

// POFilter narrows order listings.
type POFilter struct {
	Status POStatus
	BPCode string
	Limit  int
	Offset int
}

var (
	// ErrNotFound indicates a missing document or referenced entity.
	ErrNotFound = errors.New("procurement: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("procurement: invalid input")
	// ErrPOClosed indicates a closed order refused a mutation.
	ErrPOClosed = errors.New("procurement: purchase order is closed")
)
