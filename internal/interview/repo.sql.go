package interview

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists candidates in PostgreSQL. Pipeline transitions
// are compare-and-swap updates on the status column so concurrent
// requests cannot double-apply a step.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const candidateColumns = `i.inter_id, i.cand_name, COALESCE(i.cand_email,''), COALESCE(i.position,''), COALESCE(i.department,''), COALESCE(i.inter_email,''), COALESCE(i.ctc_email,''),
COALESCE(i.feedback,''), i.status, i.obser_at, i.join_date, i.des_given, COALESCE(dg.des_name,''),
COALESCE(i.ctc_value,0), COALESCE(i.hr_remarks,''), i.ctc_at,
COALESCE(i.follow_remark,''), i.follow_at, i.join_at, i.apolet_at, i.bio_at, i.indtra_at, i.pf_at, i.fmonth_at, i.tmonth_at, i.smonth_at,
i.tat_follow, i.tat_join, i.tat_apolet, i.tat_bio, i.tat_indtra, i.tat_pf, i.tat_fmonth, i.tat_tmonth, i.tat_smonth,
COALESCE(i.created_by,''), i.created_at, i.updated_at`

const candidateFrom = ` FROM interview_to_joining i LEFT JOIN designation dg ON i.des_given = dg.des_id`

func scanCandidate(row pgx.Row) (Candidate, error) {
	var c Candidate
	err := row.Scan(&c.InterID, &c.CandName, &c.CandEmail, &c.Position, &c.Department, &c.InterEmail, &c.CTCEmail,
		&c.Feedback, &c.Status, &c.ObserAt, &c.JoinDate, &c.DesGiven, &c.DesGivenName,
		&c.CTCValue, &c.HRRemarks, &c.CTCAt,
		&c.FollowRemark, &c.FollowAt, &c.JoinAt, &c.ApoletAt, &c.BioAt, &c.IndtraAt, &c.PFAt, &c.FMonthAt, &c.TMonthAt, &c.SMonthAt,
		&c.TatFollow, &c.TatJoin, &c.TatApolet, &c.TatBio, &c.TatIndtra, &c.TatPF, &c.TatFMonth, &c.TatTMonth, &c.TatSMonth,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Candidate{}, ErrNotFound
		}
		return Candidate{}, err
	}
	return c, nil
}

// Insert stores a new candidate and returns its id.
func (r *Repository) Insert(ctx context.Context, c Candidate) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO interview_to_joining (cand_name, cand_email, position, department, inter_email, ctc_email, status, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW()) RETURNING inter_id`,
		c.CandName, nullString(c.CandEmail), nullString(c.Position), nullString(c.Department), nullString(c.InterEmail), nullString(c.CTCEmail), string(c.Status), nullString(c.CreatedBy)).Scan(&id)
	return id, err
}

// Get loads one candidate.
func (r *Repository) Get(ctx context.Context, interID int64) (Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx, `SELECT `+candidateColumns+candidateFrom+` WHERE i.inter_id=$1`, interID))
}

// List returns candidates newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Candidate, error) {
	query := `SELECT ` + candidateColumns + candidateFrom + ` WHERE 1=1`
	args := []any{}
	argNum := 1
	if filter.Status != "" {
		query += " AND i.status = $" + strconv.Itoa(argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += " ORDER BY i.inter_id DESC LIMIT $" + strconv.Itoa(argNum) + " OFFSET $" + strconv.Itoa(argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites the identity fields of a candidate. Pipeline fields
// are only touched by the CAS transition methods below.
func (r *Repository) Update(ctx context.Context, c Candidate) error {
	tag, err := r.pool.Exec(ctx, `UPDATE interview_to_joining SET cand_name=$2, cand_email=$3, position=$4, department=$5, inter_email=$6, ctc_email=$7, updated_at=NOW()
WHERE inter_id=$1`,
		c.InterID, c.CandName, nullString(c.CandEmail), nullString(c.Position), nullString(c.Department), nullString(c.InterEmail), nullString(c.CTCEmail))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a candidate.
func (r *Repository) Delete(ctx context.Context, interID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM interview_to_joining WHERE inter_id=$1`, interID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyFeedback records the interviewer decision, together with the
// join date and offered designation when supplied, if the record is
// still in the expected status. Returns false on a CAS miss.
func (r *Repository) ApplyFeedback(ctx context.Context, interID int64, from, decision Status, feedback string, joinDate *time.Time, desGiven *int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE interview_to_joining SET feedback=$3, status=$4, join_date=$5, des_given=$6, obser_at=NOW(), updated_at=NOW()
WHERE inter_id=$1 AND status=$2`,
		interID, string(from), nullString(feedback), string(decision), joinDate, desGiven)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyCTC finalizes CTC and writes all derived deadline timestamps.
// Returns false on a CAS miss.
func (r *Repository) ApplyCTC(ctx context.Context, interID int64, from Status, c Candidate) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE interview_to_joining SET ctc_value=$3, hr_remarks=$4, ctc_at=NOW(), status=$5,
tat_follow=$6, tat_join=$7, tat_apolet=$8, tat_bio=$9, tat_indtra=$10, tat_pf=$11, tat_fmonth=$12, tat_tmonth=$13, tat_smonth=$14, updated_at=NOW()
WHERE inter_id=$1 AND status=$2`,
		interID, string(from), c.CTCValue, nullString(c.HRRemarks), string(StatusCTCFinalized),
		c.TatFollow, c.TatJoin, c.TatApolet, c.TatBio, c.TatIndtra, c.TatPF, c.TatFMonth, c.TatTMonth, c.TatSMonth)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyMilestone advances one onboarding step, writing the step's
// timestamp column. The column name comes from the fixed step table,
// never from the caller. Returns false on a CAS miss.
func (r *Repository) ApplyMilestone(ctx context.Context, interID int64, from, to Status, column string, at time.Time, followRemark string) (bool, error) {
	query := `UPDATE interview_to_joining SET status=$3, ` + column + `=$4, updated_at=NOW()`
	args := []any{interID, string(from), string(to), at}
	if column == "follow_at" {
		query += `, follow_remark=$5`
		args = append(args, nullString(followRemark))
	}
	query += ` WHERE inter_id=$1 AND status=$2`
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
