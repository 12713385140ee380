package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	ItemExists(ctx context.Context, itemID int64) (bool, error)
	WarehouseExists(ctx context.Context, warehouseID int64) (bool, error)
	LatestBalanceForUpdate(ctx context.Context, itemID, warehouseID int64) (float64, bool, error)
	InsertTransaction(ctx context.Context, tx Transaction) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Get loads a single ledger entry with denormalised item and warehouse names.
func (r *Repository) Get(ctx context.Context, transID int64) (Transaction, error) {
	var entry Transaction
	err := r.pool.QueryRow(ctx, `SELECT st.trans_id, st.item_id, COALESCE(im.it_code,''), COALESCE(im.it_name,''), COALESCE(st.warehouse_id,0), COALESCE(wr.whs_name,''), st.trans_type, st.stock_qty, st.unit_cost, st.balance_qty, COALESCE(st.reference_type,''), COALESCE(st.reference_id,0), COALESCE(st.remarks,''), COALESCE(st.created_by,''), st.trans_date
FROM stock_transactions st
LEFT JOIN item_master im ON st.item_id = im.it_id
LEFT JOIN whs wr ON st.warehouse_id = wr.whs_id
WHERE st.trans_id=$1`, transID).
		Scan(&entry.TransID, &entry.ItemID, &entry.ItemCode, &entry.ItemName, &entry.WarehouseID, &entry.WarehouseName, &entry.Type, &entry.Qty, &entry.UnitCost, &entry.BalanceQty, &entry.ReferenceType, &entry.ReferenceID, &entry.Remarks, &entry.CreatedBy, &entry.TransDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	return entry, nil
}

// List returns ledger entries newest first with optional filters.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	if r == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	query := `SELECT st.trans_id, st.item_id, COALESCE(im.it_code,''), COALESCE(im.it_name,''), COALESCE(st.warehouse_id,0), COALESCE(wr.whs_name,''), st.trans_type, st.stock_qty, st.unit_cost, st.balance_qty, COALESCE(st.reference_type,''), COALESCE(st.reference_id,0), COALESCE(st.remarks,''), COALESCE(st.created_by,''), st.trans_date
FROM stock_transactions st
LEFT JOIN item_master im ON st.item_id = im.it_id
LEFT JOIN whs wr ON st.warehouse_id = wr.whs_id
WHERE 1=1`
	args := []any{}
	argNum := 1
	if filter.ItemID != 0 {
		query += " AND st.item_id = $" + itoa(argNum)
		args = append(args, filter.ItemID)
		argNum++
	}
	if filter.WarehouseID != 0 {
		query += " AND st.warehouse_id = $" + itoa(argNum)
		args = append(args, filter.WarehouseID)
		argNum++
	}
	if !filter.From.IsZero() {
		query += " AND st.trans_date >= $" + itoa(argNum)
		args = append(args, filter.From)
		argNum++
	}
	if !filter.To.IsZero() {
		query += " AND st.trans_date <= $" + itoa(argNum)
		args = append(args, filter.To)
		argNum++
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += " ORDER BY st.trans_date DESC, st.trans_id DESC LIMIT $" + itoa(argNum) + " OFFSET $" + itoa(argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []Transaction{}
	for rows.Next() {
		var entry Transaction
		if err := rows.Scan(&entry.TransID, &entry.ItemID, &entry.ItemCode, &entry.ItemName, &entry.WarehouseID, &entry.WarehouseName, &entry.Type, &entry.Qty, &entry.UnitCost, &entry.BalanceQty, &entry.ReferenceType, &entry.ReferenceID, &entry.Remarks, &entry.CreatedBy, &entry.TransDate); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// LatestBalance reads the balance of the most recent entry for the
// (item, warehouse) pair. Ties on trans_date are broken by trans_id so
// the order is total even with identical timestamps.
func (r *Repository) LatestBalance(ctx context.Context, itemID, warehouseID int64) (float64, bool, error) {
	if r == nil {
		return 0, false, errors.New("ledger repository not initialised")
	}
	query := `SELECT balance_qty FROM stock_transactions WHERE item_id=$1`
	args := []any{itemID}
	if warehouseID != 0 {
		query += ` AND warehouse_id=$2`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY trans_date DESC, trans_id DESC LIMIT 1`
	var balance float64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return balance, true, nil
}

// ItemExists checks the item master.
func (r *Repository) ItemExists(ctx context.Context, itemID int64) (bool, error) {
	return itemExists(ctx, r.pool, itemID)
}

func (r *txRepository) ItemExists(ctx context.Context, itemID int64) (bool, error) {
	return itemExists(ctx, r.tx, itemID)
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

func (r *txRepository) LatestBalanceForUpdate(ctx context.Context, itemID, warehouseID int64) (float64, bool, error) {
	query := `SELECT balance_qty FROM stock_transactions WHERE item_id=$1 AND warehouse_id IS NOT DISTINCT FROM $2
ORDER BY trans_date DESC, trans_id DESC LIMIT 1 FOR UPDATE`
	var balance float64
	err := r.tx.QueryRow(ctx, query, itemID, nullInt(warehouseID)).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return balance, true, nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, entry Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_transactions (item_id, trans_type, reference_type, reference_id, warehouse_id, stock_qty, unit_cost, balance_qty, remarks, created_by, trans_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING trans_id`,
		entry.ItemID, string(entry.Type), nullString(entry.ReferenceType), nullInt(entry.ReferenceID), nullInt(entry.WarehouseID), entry.Qty, entry.UnitCost, entry.BalanceQty, nullString(entry.Remarks), nullString(entry.CreatedBy), entry.TransDate).Scan(&id)
	return id, err
}

func itemExists(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, itemID int64) (bool, error) {
	var id int64
	err := q.QueryRow(ctx, `SELECT it_id FROM item_master WHERE it_id=$1`, itemID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func nullInt(value int64) any {
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
