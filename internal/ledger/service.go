package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, transID int64) (Transaction, error)
	List(ctx context.Context, filter Filter) ([]Transaction, error)
	LatestBalance(ctx context.Context, itemID, warehouseID int64) (float64, bool, error)
	ItemExists(ctx context.Context, itemID int64) (bool, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock ledger operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem}
}

// Post appends a ledger entry and materialises the running balance.
// IN adds to the previous balance, OUT subtracts, ADJUSTMENT replaces
// it with the posted quantity.
func (s *Service) Post(ctx context.Context, input PostInput) (Transaction, error) {
	if input.ItemID == 0 {
		return Transaction{}, fmt.Errorf("%w: item required", ErrValidation)
	}
	if !input.Type.Valid() {
		return Transaction{}, fmt.Errorf("%w: transaction type must be IN, OUT or ADJUSTMENT", ErrValidation)
	}
	if input.Type != TransactionTypeAdjustment && input.Qty <= 0 {
		return Transaction{}, ErrInvalidQuantity
	}
	if input.Type == TransactionTypeAdjustment && input.Qty < 0 {
		return Transaction{}, ErrInvalidQuantity
	}
	if input.UnitCost < 0 {
		return Transaction{}, ErrInvalidUnitCost
	}

	insertedKey := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "ledger"); err != nil {
			return Transaction{}, err
		}
		insertedKey = true
	}

	now := time.Now().UTC()
	entry := Transaction{
		ItemID:        input.ItemID,
		WarehouseID:   input.WarehouseID,
		Type:          input.Type,
		Qty:           input.Qty,
		UnitCost:      input.UnitCost,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
		Remarks:       input.Remarks,
		CreatedBy:     input.CreatedBy,
		TransDate:     now,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.ItemExists(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: item %d", ErrNotFound, input.ItemID)
		}
		if input.WarehouseID != 0 {
			ok, err := tx.WarehouseExists(ctx, input.WarehouseID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: warehouse %d", ErrNotFound, input.WarehouseID)
			}
		}
		balance, _, err := tx.LatestBalanceForUpdate(ctx, input.ItemID, input.WarehouseID)
		if err != nil {
			return err
		}
		switch input.Type {
		case TransactionTypeIn:
			entry.BalanceQty = balance + input.Qty
		case TransactionTypeOut:
			entry.BalanceQty = balance - input.Qty
		case TransactionTypeAdjustment:
			entry.BalanceQty = input.Qty
		}
		id, err := tx.InsertTransaction(ctx, entry)
		if err != nil {
			return err
		}
		entry.TransID = id
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		return Transaction{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   fmt.Sprintf("ledger:%s", input.Type),
			Entity:   "stock_transactions",
			EntityID: fmt.Sprintf("%d", entry.TransID),
			Meta: map[string]any{
				"item_id":      input.ItemID,
				"warehouse_id": input.WarehouseID,
				"qty":          input.Qty,
				"balance_qty":  entry.BalanceQty,
			},
		})
	}
	return entry, nil
}

// CurrentStock resolves the latest balance for an item, optionally
// scoped to one warehouse. Absence of any entry yields zero. Every
// current-stock read in the system goes through here.
func (s *Service) CurrentStock(ctx context.Context, itemID, warehouseID int64) (float64, error) {
	if itemID == 0 {
		return 0, fmt.Errorf("%w: item required", ErrValidation)
	}
	ok, err := s.repo.ItemExists(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: item %d", ErrNotFound, itemID)
	}
	balance, _, err := s.repo.LatestBalance(ctx, itemID, warehouseID)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Get loads a single ledger entry.
func (s *Service) Get(ctx context.Context, transID int64) (Transaction, error) {
	return s.repo.Get(ctx, transID)
}

// List returns filtered ledger entries.
func (s *Service) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	return s.repo.List(ctx, filter)
}
