package periods

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const periodColumns = `period_id, period_code, period_name, start_date, end_date, fiscal_year, period_month, period_status, allow_posting, allow_goods_receipt, allow_goods_issue, allow_invoice_verification, COALESCE(created_by,''), COALESCE(updated_by,''), created_at, updated_at`

// Repository persists posting periods in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.PeriodID, &p.PeriodCode, &p.PeriodName, &p.StartDate, &p.EndDate, &p.FiscalYear, &p.PeriodMonth, &p.Status, &p.AllowPosting, &p.AllowGoodsReceipt, &p.AllowGoodsIssue, &p.AllowInvoiceVerification, &p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNotFound
		}
		return Period{}, err
	}
	return p, nil
}

// Get loads one period by id.
func (r *Repository) Get(ctx context.Context, periodID int64) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM posting_periods WHERE period_id=$1`, periodID)
	return scanPeriod(row)
}

// List returns periods newest range first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Period, error) {
	query := `SELECT ` + periodColumns + ` FROM posting_periods WHERE 1=1`
	args := []any{}
	argNum := 1
	if filter.FiscalYear != 0 {
		query += " AND fiscal_year = $" + itoa(argNum)
		args = append(args, filter.FiscalYear)
		argNum++
	}
	if filter.Status != "" {
		query += " AND period_status = $" + itoa(argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += " ORDER BY start_date DESC LIMIT $" + itoa(argNum) + " OFFSET $" + itoa(argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Period{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Insert stores a new period and returns its id.
func (r *Repository) Insert(ctx context.Context, p Period) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO posting_periods (period_code, period_name, start_date, end_date, fiscal_year, period_month, period_status, allow_posting, allow_goods_receipt, allow_goods_issue, allow_invoice_verification, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW()) RETURNING period_id`,
		p.PeriodCode, p.PeriodName, p.StartDate, p.EndDate, p.FiscalYear, p.PeriodMonth, string(p.Status), p.AllowPosting, p.AllowGoodsReceipt, p.AllowGoodsIssue, p.AllowInvoiceVerification, nullString(p.CreatedBy)).Scan(&id)
	return id, err
}

// Update rewrites an existing period.
func (r *Repository) Update(ctx context.Context, p Period) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posting_periods SET period_code=$2, period_name=$3, start_date=$4, end_date=$5, fiscal_year=$6, period_month=$7, period_status=$8, allow_posting=$9, allow_goods_receipt=$10, allow_goods_issue=$11, allow_invoice_verification=$12, updated_by=$13, updated_at=NOW()
WHERE period_id=$1`,
		p.PeriodID, p.PeriodCode, p.PeriodName, p.StartDate, p.EndDate, p.FiscalYear, p.PeriodMonth, string(p.Status), p.AllowPosting, p.AllowGoodsReceipt, p.AllowGoodsIssue, p.AllowInvoiceVerification, nullString(p.UpdatedBy))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a period.
func (r *Repository) Delete(ctx context.Context, periodID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posting_periods WHERE period_id=$1`, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CodeExists checks code uniqueness, optionally excluding one period.
func (r *Repository) CodeExists(ctx context.Context, code string, excludeID int64) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT period_id FROM posting_periods WHERE period_code=$1 AND period_id != $2 LIMIT 1`, code, excludeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RangeOverlaps checks whether [start,end] collides with another
// period, optionally excluding one period.
func (r *Repository) RangeOverlaps(ctx context.Context, start, end time.Time, excludeID int64) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT period_id FROM posting_periods
WHERE period_id != $3 AND start_date <= $2 AND end_date >= $1 LIMIT 1`, start, end, excludeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindOpenForPosting resolves the open period that allows posting and
// covers the date.
func (r *Repository) FindOpenForPosting(ctx context.Context, date time.Time) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM posting_periods
WHERE period_status=$1 AND allow_posting=TRUE AND $2 BETWEEN start_date AND end_date
ORDER BY start_date DESC LIMIT 1`, string(StatusOpen), date)
	return scanPeriod(row)
}

// Current resolves the open period covering today.
func (r *Repository) Current(ctx context.Context, today time.Time) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM posting_periods
WHERE period_status=$1 AND $2 BETWEEN start_date AND end_date
ORDER BY start_date DESC LIMIT 1`, string(StatusOpen), today)
	return scanPeriod(row)
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
