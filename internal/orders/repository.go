package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	"github.com/mfigueroa/retailhub-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists orders and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create order")
	}
	return nil
}

// FindByID loads an order with its items, nil when absent.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order")
	}
	return &order, nil
}

// Save writes the order's mutable columns.
func (r *Repository) Save(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"payment_status": order.PaymentStatus,
			"pickup_status":  order.PickupStatus,
			"pickup_date":    order.PickupDate,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save order")
	}
	return nil
}

// MarkItemRestored flips the restored flag for one order line. The flag is
// part of the WHERE clause, so the second caller for the same line sees zero
// rows affected and must not credit stock again.
func (r *Repository) MarkItemRestored(ctx context.Context, itemID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND restored = ?", itemID, false).
		UpdateColumn("restored", true)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: mark item restored")
	}
	return res.RowsAffected > 0, nil
}

// SalespeopleByStore returns every salesperson assigned to the store.
func (r *Repository) SalespeopleByStore(ctx context.Context, storeID int64) ([]models.Salesperson, error) {
	var rows []models.Salesperson
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: salespeople by store")
	}
	return rows, nil
}

// AssignedSalesEmployeeID returns the salesperson employee id on the
// customer's profile, or nil when no assignment exists.
func (r *Repository) AssignedSalesEmployeeID(ctx context.Context, customer *models.Customer) (*int64, error) {
	var salesID *int64
	var err error
	switch customer.Kind {
	case enums.CustomerKindBusiness:
		err = r.db.WithContext(ctx).
			Raw(`SELECT sales_id FROM business_profiles WHERE customer_id = ?`, customer.ID).
			Scan(&salesID).Error
	default:
		err = r.db.WithContext(ctx).
			Raw(`SELECT sales_id FROM home_profiles WHERE customer_id = ?`, customer.ID).
			Scan(&salesID).Error
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: assigned salesperson")
	}
	return salesID, nil
}

// StoreExists reports whether a store row exists.
func (r *Repository) StoreExists(ctx context.Context, storeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Store{}).Where("id = ?", storeID).Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store exists")
	}
	return count > 0, nil
}

// ProductPrices returns the catalog price for each requested product id.
func (r *Repository) ProductPrices(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	if len(productIDs) == 0 {
		return map[int64]int64{}, nil
	}
	var rows []struct {
		ID    int64
		Price int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("id, price").
		Where("id IN ?", productIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: product prices")
	}
	prices := make(map[int64]int64, len(rows))
	for _, row := range rows {
		prices[row.ID] = row.Price
	}
	return prices, nil
}

// ListFilter narrows order listings. Zero values leave the dimension open.
// Search matches customer name, customer email or an ordered product name.
type ListFilter struct {
	CustomerIDs []int64
	SalesID     int64
	StoreID     int64
	Status      *enums.PickupStatus
	Paid        *bool
	Search      string
}

// Summary is one row of an order listing.
type Summary struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	StoreID       int64     `json:"store_id"`
	StoreName     string    `json:"store_name"`
	SalesID       int64     `json:"sales_id"`
	OrderDate     time.Time `json:"order_date"`
	TotalAmount   int64     `json:"total_amount"`
	PaymentStatus bool      `json:"payment_status"`
	PickupStatus  int       `json:"pickup_status"`
}

// List returns order summaries matching the filter, newest first, plus the
// total row count for pagination.
func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]Summary, int64, error) {
	query := r.db.WithContext(ctx).
		Table("orders o").
		Joins("JOIN customers c ON c.id = o.customer_id").
		Joins("JOIN accounts a ON a.id = c.account_id").
		Joins("JOIN stores s ON s.id = o.store_id")
	if len(filter.CustomerIDs) > 0 {
		query = query.Where("o.customer_id IN ?", filter.CustomerIDs)
	}
	if filter.SalesID > 0 {
		query = query.Where("o.sales_id = ?", filter.SalesID)
	}
	if filter.StoreID > 0 {
		query = query.Where("o.store_id = ?", filter.StoreID)
	}
	if filter.Status != nil {
		query = query.Where("o.pickup_status = ?", int(*filter.Status))
	}
	if filter.Paid != nil {
		query = query.Where("o.payment_status = ?", *filter.Paid)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(`(LOWER(a.name) LIKE ? OR LOWER(a.email) LIKE ? OR o.id IN (
			SELECT oi.order_id FROM order_items oi
			JOIN products p ON p.id = oi.product_id
			WHERE LOWER(p.name) LIKE ?))`, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count orders")
	}

	var rows []Summary
	err := query.
		Select(`o.id, o.customer_id, a.name AS customer_name, o.store_id, s.name AS store_name,
			o.sales_id, o.order_date, o.total_amount, o.payment_status, o.pickup_status`).
		Order("o.order_date DESC, o.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return rows, total, nil
}
