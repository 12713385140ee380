package masterdata

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// vendorPartnerType is the business partner type id for vendors.
const vendorPartnerType = 2

// Repository serves read-only master lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func collect[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Vendors lists business partners of the vendor type.
func (r *Repository) Vendors(ctx context.Context) ([]Vendor, error) {
	rows, err := r.pool.Query(ctx, `SELECT bp_id, bpcode, bpname, COALESCE(city,''), COALESCE(state,''), COALESCE(gstin,'')
FROM business_master WHERE bptype_id=$1 ORDER BY bpname`, vendorPartnerType)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows) (Vendor, error) {
		var v Vendor
		err := rows.Scan(&v.BPID, &v.BPCode, &v.BPName, &v.City, &v.State, &v.GSTIN)
		return v, err
	})
}

// TaxCodes lists active tax definitions.
func (r *Repository) TaxCodes(ctx context.Context) ([]TaxCode, error) {
	rows, err := r.pool.Query(ctx, `SELECT tax_id, tax_code, tax_name, tax_rate
FROM tax_master WHERE is_active=TRUE ORDER BY tax_code`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows) (TaxCode, error) {
		var t TaxCode
		err := rows.Scan(&t.TaxID, &t.TaxCode, &t.TaxName, &t.TaxRate)
		return t, err
	})
}

// Warehouses lists stock locations.
func (r *Repository) Warehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT whs_id, whs_code, whs_name FROM whs ORDER BY whs_code`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows) (Warehouse, error) {
		var w Warehouse
		err := rows.Scan(&w.WhsID, &w.WhsCode, &w.WhsName)
		return w, err
	})
}

// UOMs lists units of measure.
func (r *Repository) UOMs(ctx context.Context) ([]UOM, error) {
	rows, err := r.pool.Query(ctx, `SELECT uom_id, uom_code, uom_name FROM uom ORDER BY uom_code`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows) (UOM, error) {
		var u UOM
		err := rows.Scan(&u.UomID, &u.UomCode, &u.UomName)
		return u, err
	})
}

// Items lists inventory items, optionally filtered by a name or code
// substring.
func (r *Repository) Items(ctx context.Context, search string) ([]Item, error) {
	query := `SELECT it_id, it_code, it_name, uom_id FROM item_master`
	args := []any{}
	if search != "" {
		query += ` WHERE it_code ILIKE '%' || $1 || '%' OR it_name ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY it_code`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows) (Item, error) {
		var i Item
		err := rows.Scan(&i.ItID, &i.ItCode, &i.ItName, &i.UomID)
		return i, err
	})
}

// Employees lists employees with resolved department and designation
// names.
func (r *Repository) Employees(ctx context.Context, status string) ([]Employee, error) {
	query := `SELECT e.emp_id, e.emp_code, e.emp_name, COALESCE(e.emp_email,''), COALESCE(d.dept_name,''), COALESCE(g.des_name,''), COALESCE(e.status,'')
FROM employee_master e
LEFT JOIN department d ON e.dept_id = d.dept_id
LEFT JOIN designation g ON e.des_id = g.des_id`
	args := []any{}
	if status != "" {
		query += ` WHERE e.status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY e.emp_code`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows) (Employee, error) {
		var e Employee
		err := rows.Scan(&e.EmpID, &e.EmpCode, &e.EmpName, &e.EmpEmail, &e.DeptName, &e.DesName, &e.Status)
		return e, err
	})
}
