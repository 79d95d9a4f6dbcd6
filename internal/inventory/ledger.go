package inventory

import (
	"context"
	"fmt"

	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/logger"
	"gorm.io/gorm"
)

// Ledger moves stock in and out of a store's shelf. Both operations are
// meant to run inside the caller's transaction so the stock movement commits
// or rolls back together with the order rows that caused it.
type Ledger struct {
	log *logger.Logger
}

// NewLedger constructs an inventory ledger.
func NewLedger(log *logger.Logger) (*Ledger, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Ledger{log: log}, nil
}

// Reserve takes qty units for an order line. The decrement carries its own
// stock guard, so a failed guard means either the row is missing or the shelf
// is short; the follow-up read only decides which error to report.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, storeID, productID int64, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := NewRepository(tx)
	affected, err := repo.DecrementStock(ctx, storeID, productID, qty)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	row, err := repo.Find(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if row == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d is not stocked at store %d", productID, storeID))
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").WithDetails(map[string]any{
		"store_id":   storeID,
		"product_id": productID,
		"requested":  qty,
		"available":  row.Stock,
	})
}

// Restore puts qty units back after a cancellation or reversal. A missing
// inventory row is a data integrity problem: it is logged and skipped rather
// than silently creating stock.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, storeID, productID int64, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	affected, err := NewRepository(tx).IncrementStock(ctx, storeID, productID, qty)
	if err != nil {
		return err
	}
	if affected == 0 {
		ctx = l.log.WithFields(ctx, map[string]any{
			"store_id":   storeID,
			"product_id": productID,
			"quantity":   qty,
		})
		l.log.Warn(ctx, "inventory row missing during restore, stock not credited")
	}
	return nil
}
