package resignation

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists resignations in PostgreSQL. Pipeline transitions
// are compare-and-swap updates on the status column.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const resignationColumns = `res_id, emp_code, emp_name, COALESCE(dept_name,''), COALESCE(des_name,''), COALESCE(hod_name,''), COALESCE(hod_email,''),
resignation_date, COALESCE(reason,''), COALESCE(remarks,''), status,
tat_app, releaving_date, COALESCE(hr_email,''),
app_at, exint_at, nodue_at, rel_at, fnf_at, COALESCE(cheqno,''), COALESCE(cheqamt,0), finapp_at, COALESCE(hr_remark,''),
created_at, updated_at`

func scanResignation(row pgx.Row) (Resignation, error) {
	var r Resignation
	err := row.Scan(&r.ResID, &r.EmpCode, &r.EmpName, &r.DeptName, &r.DesName, &r.HODName, &r.HODEmail,
		&r.ResignationDate, &r.Reason, &r.Remarks, &r.Status,
		&r.TatApp, &r.ReleavingDate, &r.HREmail,
		&r.AppAt, &r.ExintAt, &r.NodueAt, &r.RelAt, &r.FnfAt, &r.CheqNo, &r.CheqAmt, &r.FinappAt, &r.HRRemark,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resignation{}, ErrNotFound
		}
		return Resignation{}, err
	}
	return r, nil
}

// Insert stores a new resignation and returns its id.
func (r *Repository) Insert(ctx context.Context, res Resignation) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO resignation_master (emp_code, emp_name, dept_name, des_name, hod_name, hod_email, resignation_date, reason, remarks, status, tat_app, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW()) RETURNING res_id`,
		res.EmpCode, res.EmpName, nullString(res.DeptName), nullString(res.DesName), nullString(res.HODName), nullString(res.HODEmail),
		res.ResignationDate, nullString(res.Reason), nullString(res.Remarks), string(res.Status), res.TatApp).Scan(&id)
	return id, err
}

// Get loads one resignation.
func (r *Repository) Get(ctx context.Context, resID int64) (Resignation, error) {
	return scanResignation(r.pool.QueryRow(ctx, `SELECT `+resignationColumns+` FROM resignation_master WHERE res_id=$1`, resID))
}

// List returns resignations newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Resignation, error) {
	query := `SELECT ` + resignationColumns + ` FROM resignation_master WHERE 1=1`
	args := []any{}
	argNum := 1
	if filter.Status != "" {
		query += " AND status = $" + strconv.Itoa(argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if filter.EmpCode != "" {
		query += " AND emp_code = $" + strconv.Itoa(argNum)
		args = append(args, filter.EmpCode)
		argNum++
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += " ORDER BY res_id DESC LIMIT $" + strconv.Itoa(argNum) + " OFFSET $" + strconv.Itoa(argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Resignation{}
	for rows.Next() {
		res, err := scanResignation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Delete removes a resignation.
func (r *Repository) Delete(ctx context.Context, resID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resignation_master WHERE res_id=$1`, resID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyApproval records the HOD decision if the record is still
// Pending. Returns false on a CAS miss.
func (r *Repository) ApplyApproval(ctx context.Context, resID int64, decision Status, releavingDate *time.Time, remarks, hrEmail string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE resignation_master SET status=$2, releaving_date=$3, remarks=COALESCE($4, remarks), hr_email=$5, app_at=NOW(), updated_at=NOW()
WHERE res_id=$1 AND status=$6`,
		resID, string(decision), releavingDate, nullString(remarks), nullString(hrEmail), string(StatusPending))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyTask advances one exit-formality step. The column name comes
// from the fixed step table, never from the caller. Returns false on a
// CAS miss.
func (r *Repository) ApplyTask(ctx context.Context, resID int64, from, to Status, column string, at time.Time, input TaskInput) (bool, error) {
	query := `UPDATE resignation_master SET status=$3, ` + column + `=$4, updated_at=NOW()`
	args := []any{resID, string(from), string(to), at}
	switch column {
	case "fnf_at":
		query += `, cheqno=$5, cheqamt=$6`
		args = append(args, nullString(input.CheqNo), input.CheqAmt)
	case "finapp_at":
		query += `, hr_remark=$5`
		args = append(args, nullString(input.HRRemark))
	}
	query += ` WHERE res_id=$1 AND status=$2`
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// EmployeeByCode resolves the resigning employee with department and
// designation names.
func (r *Repository) EmployeeByCode(ctx context.Context, code string) (Employee, error) {
	var e Employee
	err := r.pool.QueryRow(ctx, `SELECT e.emp_id, e.emp_code, e.emp_name, COALESCE(e.emp_email,''), COALESCE(d.dept_name,''), COALESCE(g.des_name,'')
FROM employee_master e
LEFT JOIN department d ON e.dept_id = d.dept_id
LEFT JOIN designation g ON e.des_id = g.des_id
WHERE e.emp_code=$1`, code).Scan(&e.EmpID, &e.EmpCode, &e.EmpName, &e.EmpEmail, &e.DeptName, &e.DesName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, err
	}
	return e, nil
}

// HRManager resolves the active HR recipient for approval
// notifications. Lowest employee id wins so the pick is deterministic.
func (r *Repository) HRManager(ctx context.Context) (Employee, error) {
	var e Employee
	err := r.pool.QueryRow(ctx, `SELECT e.emp_id, e.emp_code, e.emp_name, COALESCE(e.emp_email,''), d.dept_name, g.des_name
FROM employee_master e
JOIN department d ON e.dept_id = d.dept_id
JOIN designation g ON e.des_id = g.des_id
WHERE d.dept_name='HR & Admin' AND g.des_name='Manager' AND e.status='Active'
ORDER BY e.emp_id LIMIT 1`).Scan(&e.EmpID, &e.EmpCode, &e.EmpName, &e.EmpEmail, &e.DeptName, &e.DesName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, err
	}
	return e, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
