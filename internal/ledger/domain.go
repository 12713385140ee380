package ledger

import (
	"errors"
	"time"
)

// TransactionType enumerates supported stock movements.
type TransactionType string

const (
	// TransactionTypeIn represents an inbound movement.
	TransactionTypeIn TransactionType = "IN"
	// TransactionTypeOut represents an outbound movement.
	TransactionTypeOut TransactionType = "OUT"
	// TransactionTypeAdjustment replaces the running balance outright.
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// Valid reports whether the type is one of the supported movements.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIn, TransactionTypeOut, TransactionTypeAdjustment:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. Entries are never mutated
// or deleted after creation; the balance is materialised forward from
// the prior latest entry at insert time.
type Transaction struct {
	TransID       int64
	ItemID        int64
	ItemCode      string
	ItemName      string
	WarehouseID   int64
	WarehouseName string
	Type          TransactionType
	Qty           float64
	UnitCost      float64
	BalanceQty    float64
	ReferenceType string
	ReferenceID   int64
	Remarks       string
	CreatedBy     string
	TransDate     time.Time
}

// PostInput describes a ledger posting request.
type PostInput struct {
	ItemID         int64
	WarehouseID    int64
	Type           TransactionType
	Qty            float64
	UnitCost       float64
	ReferenceType  string
	ReferenceID    int64
	Remarks        string
	CreatedBy      string
	IdempotencyKey string
}

// Filter narrows ledger listings.
type Filter struct {
	ItemID      int64
	WarehouseID int64
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}

var (
	// ErrNotFound indicates a referenced entity is missing.
	ErrNotFound = errors.New("ledger: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("ledger: invalid input")
	// ErrInvalidQuantity indicates a non-positive movement quantity.
	ErrInvalidQuantity = errors.New("ledger: quantity must be positive")
	// ErrInvalidUnitCost indicates a negative unit cost.
	ErrInvalidUnitCost = errors.New("ledger: unit cost must be >= 0")
)
