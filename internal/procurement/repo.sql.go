package procurement

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists procurement documents in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	EmployeeByCode(ctx context.Context, code string) (Employee, error)
	ItemByID(ctx context.Context, itemID int64) (Item, error)
	VendorByCode(ctx context.Context, code string) (Vendor, error)
	TaxByCode(ctx context.Context, code string) (TaxCode, error)
	UOMExists(ctx context.Context, uomID int64) (bool, error)
	WarehouseExists(ctx context.Context, warehouseID int64) (bool, error)

	InsertPRHeader(ctx context.Context, header PRHeader) (int64, error)
	InsertPRRows(ctx context.Context, reqID int64, rows []PRRow) error
	DeletePRRows(ctx context.Context, reqID int64) error
	UpdatePRHeader(ctx context.Context, header PRHeader) error
	UpdatePRStatus(ctx context.Context, reqID int64, status PRStatus, updatedBy string) error
	DeletePR(ctx context.Context, reqID int64) error
	ApprovedPRWithRows(ctx context.Context, reqID int64) (PRHeader, error)

	InsertPOHeader(ctx context.Context, header POHeader) (int64, error)
	InsertPORows(ctx context.Context, poID int64, rows []PORow) error
	DeletePORows(ctx context.Context, poID int64) error
	UpdatePOHeader(ctx context.Context, header POHeader) error
	UpdatePOStatus(ctx context.Context, poID int64, status POStatus, updatedBy string) error
	DeletePO(ctx context.Context, poID int64) error
	POHeaderForUpdate(ctx context.Context, poID int64) (POHeader, error)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("procurement repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const prHeaderColumns = `req_id, req_no, COALESCE(post_per,''), COALESCE(emp_code,''), COALESCE(emp_name,''), COALESCE(emp_dept,''), post_dt, valid_dt, doc_dt, req_status, COALESCE(priority,''), COALESCE(remarks,''), COALESCE(created_by,''), created_at, COALESCE(updated_by,''), updated_at`

func scanPRHeader(row pgx.Row) (PRHeader, error) {
	var h PRHeader
	err := row.Scan(&h.ReqID, &h.ReqNo, &h.PostPer, &h.EmpCode, &h.EmpName, &h.EmpDept, &h.PostDate, &h.ValidDate, &h.DocDate, &h.Status, &h.Priority, &h.Remarks, &h.CreatedBy, &h.CreatedAt, &h.UpdatedBy, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PRHeader{}, ErrNotFound
		}
		return PRHeader{}, err
	}
	return h, nil
}

func prRows(ctx context.Context, q queryer, reqID int64) ([]PRRow, error) {
	rows, err := q.Query(ctx, `SELECT req_row_id, req_id, line_no, it_id, COALESCE(it_code,''), COALESCE(it_name,''), COALESCE(it_details,''), COALESCE(it_hsn,''), need_date, current_stock, req_qty, COALESCE(created_by,'')
FROM pur_req_row WHERE req_id=$1 ORDER BY line_no`, reqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PRRow{}
	for rows.Next() {
		var row PRRow
		if err := rows.Scan(&row.ReqRowID, &row.ReqID, &row.LineNo, &row.ItemID, &row.ItemCode, &row.ItemName, &row.ItemDetails, &row.ItemHSN, &row.NeedDate, &row.CurrentStock, &row.ReqQty, &row.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetPR loads a requisition with its rows.
func (r *Repository) GetPR(ctx context.Context, reqID int64) (PRHeader, error) {
	header, err := scanPRHeader(r.pool.QueryRow(ctx, `SELECT `+prHeaderColumns+` FROM pur_req_header WHERE req_id=$1`, reqID))
	if err != nil {
		return PRHeader{}, err
	}
	header.Rows, err = prRows(ctx, r.pool, reqID)
	return header, err
}

// ListPRs returns requisition headers newest first without rows.
func (r *Repository) ListPRs(ctx context.Context, filter PRFilter) ([]PRHeader, error) {
	query := `SELECT ` + prHeaderColumns + ` FROM pur_req_header WHERE 1=1`
	args := []any{}
	argNum := 1
	if filter.Status != "" {
		query += " AND req_status = $" + itoa(argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if filter.EmpCode != "" {
		query += " AND emp_code = $" + itoa(argNum)
		args = append(args, filter.EmpCode)
		argNum++
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += " ORDER BY req_id DESC LIMIT $" + itoa(argNum) + " OFFSET $" + itoa(argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PRHeader{}
	for rows.Next() {
		h, err := scanPRHeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListApprovedPRs returns approved requisitions with row aggregates,
// the picking list for conversion.
func (r *Repository) ListApprovedPRs(ctx context.Context) ([]ApprovedPRSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT h.req_id, h.req_no, COALESCE(h.emp_name,''), h.post_dt, COUNT(r.req_row_id), COALESCE(SUM(r.req_qty),0)
FROM pur_req_header h
LEFT JOIN pur_req_row r ON h.req_id = r.req_id
WHERE h.req_status=$1
GROUP BY h.req_id, h.req_no, h.emp_name, h.post_dt
ORDER BY h.req_id DESC`, string(PRStatusApproved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ApprovedPRSummary{}
	for rows.Next() {
		var s ApprovedPRSummary
		if err := rows.Scan(&s.ReqID, &s.ReqNo, &s.EmpName, &s.PostDate, &s.ItemCount, &s.TotalQty); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const poHeaderColumns = `po_id, po_no, COALESCE(post_per,''), post_dt, doc_dt, bpcode, COALESCE(bpname,''), COALESCE(emp_code,''), COALESCE(emp_name,''), COALESCE(dept_id,0), subtotal, discount_amt, tax_amt, total_amt, po_status, COALESCE(remarks,''), COALESCE(created_by,''), created_at, COALESCE(updated_by,''), updated_at`

func scanPOHeader(row pgx.Row) (POHeader, error) {
	var h POHeader
	err := row.Scan(&h.POID, &h.PONo, &h.PostPer, &h.PostDate, &h.DocDate, &h.BPCode, &h.BPName, &h.EmpCode, &h.EmpName, &h.DeptID, &h.Subtotal, &h.DiscountAmt, &h.TaxAmt, &h.TotalAmt, &h.Status, &h.Remarks, &h.CreatedBy, &h.CreatedAt, &h.UpdatedBy, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return POHeader{}, ErrNotFound
		}
		return POHeader{}, err
	}
	return h, nil
}

func poRows(ctx context.Context, q queryer, poID int64) ([]PORow, error) {
	rows, err := q.Query(ctx, `SELECT po_row_id, po_id, line_no, it_id, COALESCE(it_code,''), COALESCE(it_name,''), COALESCE(it_details,''), COALESCE(hsn_code,''), COALESCE(uom_id,0), req_qty, need_date, unit_price, discount_percent, discount_amt, COALESCE(tax_code,''), tax_rate, tax_amt, line_total, COALESCE(whs_id,0), COALESCE(pr_req_id,0), COALESCE(pr_line_no,0), COALESCE(pr_no,''), COALESCE(created_by,'')
FROM pur_ord_row WHERE po_id=$1 ORDER BY line_no`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PORow{}
	for rows.Next() {
		var row PORow
		if err := rows.Scan(&row.PORowID, &row.POID, &row.LineNo, &row.ItemID, &row.ItemCode, &row.ItemName, &row.ItemDetails, &row.HSNCode, &row.UOMID, &row.ReqQty, &row.NeedDate, &row.UnitPrice, &row.DiscountPercent, &row.DiscountAmt, &row.TaxCode, &row.TaxRate, &row.TaxAmt, &row.LineTotal, &row.WarehouseID, &row.PRReqID, &row.PRLineNo, &row.PRNo, &row.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetPO loads an order with its rows.
func (r *Repository) GetPO(ctx context.Context, poID int64) (POHeader, error) {
	header, err := scanPOHeader(r.pool.QueryRow(ctx, `SELECT `+poHeaderColumns+` FROM pur_ord_header WHERE po_id=$1`, poID))
	if err != nil {
		return POHeader{}, err
	}
	header.Rows, err = poRows(ctx, r.pool, poID)
	return header, err
}

// ListPOs returns order headers newest first without rows.
func (r *Repository) ListPOs(ctx context.Context, filter POFilter) ([]POHeader, error) {
	query := `SELECT ` + poHeaderColumns + ` FROM pur_ord_header WHERE 1=1`
	args := []any{}
	argNum := 1
	if filter.Status != "" {
		query += " AND po_status = $" + itoa(argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if filter.BPCode != "" {
		query += " AND bpcode = $" + itoa(argNum)
		args = append(args, filter.BPCode)
		argNum++
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += " ORDER BY po_id DESC LIMIT $" + itoa(argNum) + " OFFSET $" + itoa(argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []POHeader{}
	for rows.Next() {
		h, err := scanPOHeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// EmployeeByCode resolves a requester from the employee master.
func (r *Repository) EmployeeByCode(ctx context.Context, code string) (Employee, error) {
	return employeeByCode(ctx, r.pool, code)
}

func (r *txRepository) EmployeeByCode(ctx context.Context, code string) (Employee, error) {
	return employeeByCode(ctx, r.tx, code)
}

func employeeByCode(ctx context.Context, q queryer, code string) (Employee, error) {
	var e Employee
	err := q.QueryRow(ctx, `SELECT e.emp_code, e.emp_name, COALESCE(e.dept_id,0), COALESCE(d.dept_name,'')
FROM employee_master e
LEFT JOIN department d ON e.dept_id = d.dept_id
WHERE e.emp_code=$1`, code).Scan(&e.EmpCode, &e.EmpName, &e.DeptID, &e.DeptName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, err
	}
	return e, nil
}

func (r *txRepository) ItemByID(ctx context.Context, itemID int64) (Item, error) {
	var item Item
	err := r.tx.QueryRow(ctx, `SELECT it_id, COALESCE(it_code,''), COALESCE(it_name,''), COALESCE(it_details,''), COALESCE(it_hsn,'') FROM item_master WHERE it_id=$1`, itemID).
		Scan(&item.ItemID, &item.ItemCode, &item.ItemName, &item.ItemDetails, &item.ItemHSN)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// VendorByCode resolves a supplier business partner.
func (r *Repository) VendorByCode(ctx context.Context, code string) (Vendor, error) {
	return vendorByCode(ctx, r.pool, code)
}

func (r *txRepository) VendorByCode(ctx context.Context, code string) (Vendor, error) {
	return vendorByCode(ctx, r.tx, code)
}

func vendorByCode(ctx context.Context, q queryer, code string) (Vendor, error) {
	var v Vendor
	err := q.QueryRow(ctx, `SELECT bpcode, COALESCE(bpname,'') FROM business_master WHERE bpcode=$1 AND bptype_id=2`, code).Scan(&v.BPCode, &v.BPName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vendor{}, ErrNotFound
		}
		return Vendor{}, err
	}
	return v, nil
}

func (r *txRepository) TaxByCode(ctx context.Context, code string) (TaxCode, error) {
	var t TaxCode
	err := r.tx.QueryRow(ctx, `SELECT tax_code, COALESCE(tax_rate,0) FROM tax_master WHERE tax_code=$1 AND is_active=TRUE`, code).Scan(&t.Code, &t.Rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TaxCode{}, ErrNotFound
		}
		return TaxCode{}, err
	}
	return t, nil
}

func (r *txRepository) UOMExists(ctx context.Context, uomID int64) (bool, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT uom_id FROM uom WHERE uom_id=$1`, uomID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *txRepository) WarehouseExists(ctx context.Context, warehouseID int64) (bool, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT whs_id FROM whs WHERE whs_id=$1`, warehouseID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *txRepository) InsertPRHeader(ctx context.Context, h PRHeader) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO pur_req_header (req_no, post_per, emp_code, emp_name, emp_dept, post_dt, valid_dt, doc_dt, req_status, priority, remarks, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW()) RETURNING req_id`,
		h.ReqNo, nullString(h.PostPer), h.EmpCode, h.EmpName, nullString(h.EmpDept), h.PostDate, h.ValidDate, h.DocDate, string(h.Status), nullString(h.Priority), nullString(h.Remarks), nullString(h.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertPRRows(ctx context.Context, reqID int64, rows []PRRow) error {
	for _, row := range rows {
		_, err := r.tx.Exec(ctx, `INSERT INTO pur_req_row (req_id, line_no, it_id, it_code, it_name, it_details, it_hsn, need_date, current_stock, req_qty, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			reqID, row.LineNo, row.ItemID, row.ItemCode, row.ItemName, nullString(row.ItemDetails), nullString(row.ItemHSN), row.NeedDate, row.CurrentStock, row.ReqQty, nullString(row.CreatedBy))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeletePRRows(ctx context.Context, reqID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM pur_req_row WHERE req_id=$1`, reqID)
	return err
}

func (r *txRepository) UpdatePRHeader(ctx context.Context, h PRHeader) error {
	tag, err := r.tx.Exec(ctx, `UPDATE pur_req_header SET post_per=$2, emp_code=$3, emp_name=$4, emp_dept=$5, post_dt=$6, valid_dt=$7, doc_dt=$8, priority=$9, remarks=$10, updated_by=$11, updated_at=NOW()
WHERE req_id=$1`,
		h.ReqID, nullString(h.PostPer), h.EmpCode, h.EmpName, nullString(h.EmpDept), h.PostDate, h.ValidDate, h.DocDate, nullString(h.Priority), nullString(h.Remarks), nullString(h.UpdatedBy))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdatePRStatus(ctx context.Context, reqID int64, status PRStatus, updatedBy string) error {
	tag, err := r.tx.Exec(ctx, `UPDATE pur_req_header SET req_status=$2, updated_by=$3, updated_at=NOW() WHERE req_id=$1`, reqID, string(status), nullString(updatedBy))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeletePR(ctx context.Context, reqID int64) error {
	if err := r.DeletePRRows(ctx, reqID); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM pur_req_header WHERE req_id=$1`, reqID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApprovedPRWithRows loads an approved requisition with rows, locking
// the header row for the duration of the transaction. A requisition
// that is missing or not approved yields ErrNotFound.
func (r *txRepository) ApprovedPRWithRows(ctx context.Context, reqID int64) (PRHeader, error) {
	header, err := scanPRHeader(r.tx.QueryRow(ctx, `SELECT `+prHeaderColumns+` FROM pur_req_header WHERE req_id=$1 AND req_status=$2 FOR UPDATE`, reqID, string(PRStatusApproved)))
	if err != nil {
		return PRHeader{}, err
	}
	header.Rows, err = prRows(ctx, r.tx, reqID)
	return header, err
}

func (r *txRepository) InsertPOHeader(ctx context.Context, h POHeader) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO pur_ord_header (po_no, post_per, post_dt, doc_dt, bpcode, bpname, emp_code, emp_name, dept_id, subtotal, discount_amt, tax_amt, total_amt, po_status, remarks, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW()) RETURNING po_id`,
		h.PONo, nullString(h.PostPer), h.PostDate, h.DocDate, h.BPCode, h.BPName, nullString(h.EmpCode), nullString(h.EmpName), nullInt(h.DeptID), h.Subtotal, h.DiscountAmt, h.TaxAmt, h.TotalAmt, string(h.Status), nullString(h.Remarks), nullString(h.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertPORows(ctx context.Context, poID int64, rows []PORow) error {
	for _, row := range rows {
		_, err := r.tx.Exec(ctx, `INSERT INTO pur_ord_row (po_id, line_no, it_id, it_code, it_name, it_details, hsn_code, uom_id, req_qty, need_date, unit_price, discount_percent, discount_amt, tax_code, tax_rate, tax_amt, line_total, whs_id, pr_req_id, pr_line_no, pr_no, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
			poID, row.LineNo, row.ItemID, row.ItemCode, row.ItemName, nullString(row.ItemDetails), nullString(row.HSNCode), nullInt(row.UOMID), row.ReqQty, row.NeedDate, row.UnitPrice, row.DiscountPercent, row.DiscountAmt, nullString(row.TaxCode), row.TaxRate, row.TaxAmt, row.LineTotal, nullInt(row.WarehouseID), nullInt(row.PRReqID), nullIntSmall(row.PRLineNo), nullString(row.PRNo), nullString(row.CreatedBy))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeletePORows(ctx context.Context, poID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM pur_ord_row WHERE po_id=$1`, poID)
	return err
}

func (r *txRepository) UpdatePOHeader(ctx context.Context, h POHeader) error {
	tag, err := r.tx.Exec(ctx, `UPDATE pur_ord_header SET post_per=$2, post_dt=$3, doc_dt=$4, bpcode=$5, bpname=$6, emp_code=$7, emp_name=$8, dept_id=$9, subtotal=$10, discount_amt=$11, tax_amt=$12, total_amt=$13, remarks=$14, updated_by=$15, updated_at=NOW()
WHERE po_id=$1`,
		h.POID, nullString(h.PostPer), h.PostDate, h.DocDate, h.BPCode, h.BPName, nullString(h.EmpCode), nullString(h.EmpName), nullInt(h.DeptID), h.Subtotal, h.DiscountAmt, h.TaxAmt, h.TotalAmt, nullString(h.Remarks), nullString(h.UpdatedBy))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdatePOStatus(ctx context.Context, poID int64, status POStatus, updatedBy string) error {
	tag, err := r.tx.Exec(ctx, `UPDATE pur_ord_header SET po_status=$2, updated_by=$3, updated_at=NOW() WHERE po_id=$1`, poID, string(status), nullString(updatedBy))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeletePO(ctx context.Context, poID int64) error {
	if err := r.DeletePORows(ctx, poID); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM pur_ord_header WHERE po_id=$1`, poID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// POHeaderForUpdate loads an order header with a row lock so the
// closed-status guard holds for the rest of the transaction.
func (r *txRepository) POHeaderForUpdate(ctx context.Context, poID int64) (POHeader, error) {
	return scanPOHeader(r.tx.QueryRow(ctx, `SELECT `+poHeaderColumns+` FROM pur_ord_header WHERE po_id=$1 FOR UPDATE`, poID))
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullIntSmall(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
