package models

import (
	"time"

	"github.com/mfigueroa/retailhub-backend/pkg/enums"
)

// Order is a pickup order placed by a customer at a store. TotalAmount is in
// cents. PickupDate is stamped again when the order completes.
type Order struct {
	ID            int64              `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID    int64              `gorm:"column:customer_id;not null;index"`
	StoreID       int64              `gorm:"column:store_id;not null;index"`
	SalesID       int64              `gorm:"column:sales_id;not null;index"`
	OrderDate     time.Time          `gorm:"column:order_date;not null"`
	PickupDate    time.Time          `gorm:"column:pickup_date;not null"`
	TotalAmount   int64              `gorm:"column:total_amount"`
	PaymentStatus bool               `gorm:"column:payment_status;not null;default:false"`
	PickupStatus  enums.PickupStatus `gorm:"column:pickup_status;not null;default:0"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// TableName implements schema.Tabler.
func (Order) TableName() string { return "orders" }

// OrderItem is a line on an order. SubPrice is the line subtotal in cents.
// Restored flips to true once the line's stock has been returned to the shelf
// so a cancellation replayed against the same order cannot restock twice.
type OrderItem struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64 `gorm:"column:order_id;not null;index"`
	ProductID int64 `gorm:"column:product_id;not null;index"`
	Quantity  int   `gorm:"column:quantity;not null"`
	SubPrice  int64 `gorm:"column:sub_price;not null"`
	Restored  bool  `gorm:"column:restored;not null;default:false"`
}

// TableName implements schema.Tabler.
func (OrderItem) TableName() string { return "order_items" }
