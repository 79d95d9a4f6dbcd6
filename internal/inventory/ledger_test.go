package inventory

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Store{},
		&models.Product{},
		&models.StoreInventory{},
	); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func newTestLedger(t *testing.T, buf *bytes.Buffer) *Ledger {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "test", Output: buf})
	ledger, err := NewLedger(log)
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	return ledger
}

func seedStock(t *testing.T, conn *gorm.DB, storeID, productID int64, stock int) {
	t.Helper()
	row := models.StoreInventory{StoreID: storeID, ProductID: productID, Stock: stock}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func currentStock(t *testing.T, conn *gorm.DB, storeID, productID int64) int {
	t.Helper()
	var row models.StoreInventory
	err := conn.Where("store_id = ? AND product_id = ?", storeID, productID).First(&row).Error
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return row.Stock
}

func TestReserveDecrements(t *testing.T) {
	conn := newTestDB(t)
	ledger := newTestLedger(t, &bytes.Buffer{})
	seedStock(t, conn, 1, 10, 5)

	if err := ledger.Reserve(context.Background(), conn, 1, 10, 3); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if got := currentStock(t, conn, 1, 10); got != 2 {
		t.Fatalf("expected stock 2, got %d", got)
	}
}

func TestReserveInsufficientStock(t *testing.T) {
	conn := newTestDB(t)
	ledger := newTestLedger(t, &bytes.Buffer{})
	seedStock(t, conn, 1, 10, 2)

	err := ledger.Reserve(context.Background(), conn, 1, 10, 3)
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := currentStock(t, conn, 1, 10); got != 2 {
		t.Fatalf("failed reserve must not change stock, got %d", got)
	}
}

func TestReserveExactStockDrainsShelf(t *testing.T) {
	conn := newTestDB(t)
	ledger := newTestLedger(t, &bytes.Buffer{})
	seedStock(t, conn, 1, 10, 3)

	if err := ledger.Reserve(context.Background(), conn, 1, 10, 3); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if got := currentStock(t, conn, 1, 10); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
	// The next unit is no longer there.
	if err := ledger.Reserve(context.Background(), conn, 1, 10, 1); err == nil {
		t.Fatal("expected insufficient stock error")
	}
}

func TestReserveUnknownRowIsNotFound(t *testing.T) {
	conn := newTestDB(t)
	ledger := newTestLedger(t, &bytes.Buffer{})

	err := ledger.Reserve(context.Background(), conn, 1, 99, 1)
	if err == nil {
		t.Fatal("expected not found error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	conn := newTestDB(t)
	ledger := newTestLedger(t, &bytes.Buffer{})

	for _, qty := range []int{0, -1} {
		err := ledger.Reserve(context.Background(), conn, 1, 10, qty)
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("qty %d: expected validation error, got %v", qty, err)
		}
	}
}

func TestRestoreIncrements(t *testing.T) {
	conn := newTestDB(t)
	ledger := newTestLedger(t, &bytes.Buffer{})
	seedStock(t, conn, 1, 10, 2)

	if err := ledger.Restore(context.Background(), conn, 1, 10, 3); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := currentStock(t, conn, 1, 10); got != 5 {
		t.Fatalf("expected stock 5, got %d", got)
	}
}

func TestRestoreMissingRowWarnsWithoutCreatingStock(t *testing.T) {
	conn := newTestDB(t)
	var buf bytes.Buffer
	ledger := newTestLedger(t, &buf)

	if err := ledger.Restore(context.Background(), conn, 1, 99, 2); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	var count int64
	if err := conn.Model(&models.StoreInventory{}).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("restore must not create inventory rows, found %d", count)
	}
	if !strings.Contains(buf.String(), "inventory row missing during restore") {
		t.Fatalf("expected integrity warning in log, got %q", buf.String())
	}
}
