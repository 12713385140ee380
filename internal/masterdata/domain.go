package masterdata

import "errors"

// Vendor is a business partner of the vendor type.
type Vendor struct {
	BPID   int64  `json:"bp_id"`
	BPCode string `json:"bpcode"`
	BPName string `json:"bpname"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	GSTIN  string `json:"gstin,omitempty"`
}

// TaxCode is an active tax definition.
type TaxCode struct {
	TaxID   int64   `json:"tax_id"`
	TaxCode string  `json:"tax_code"`
	TaxName string  `json:"tax_name"`
	TaxRate float64 `json:"tax_rate"`
}

// Warehouse is a stock location.
type Warehouse struct {
	WhsID   int64  `json:"whs_id"`
	WhsCode string `json:"whs_code"`
	WhsName string `json:"whs_name"`
}

// UOM is a unit of measure.
type UOM struct {
	UomID   int64  `json:"uom_id"`
	UomCode string `json:"uom_code"`
	UomName string `json:"uom_name"`
}

// Item is an inventory item master row.
type Item struct {
	ItID   int64  `json:"it_id"`
	ItCode string `json:"it_code"`
	ItName string `json:"it_name"`
	UomID  *int64 `json:"uom_id,omitempty"`
}

// Employee is an employee master row with resolved department and
// designation names.
type Employee struct {
	EmpID    int64  `json:"emp_id"`
	EmpCode  string `json:"emp_code"`
	EmpName  string `json:"emp_name"`
	EmpEmail string `json:"emp_email,omitempty"`
	DeptName string `json:"dept_name,omitempty"`
	DesName  string `json:"des_name,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ErrNotFound indicates a missing master record.
var ErrNotFound = errors.New("masterdata: not found")
