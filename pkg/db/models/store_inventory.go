package models

// StoreInventory is the per-store stock row for a product. One row per
// (store, product) pair.
type StoreInventory struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	StoreID   int64 `gorm:"column:store_id;not null;uniqueIndex:uq_store_product"`
	ProductID int64 `gorm:"column:product_id;not null;uniqueIndex:uq_store_product"`
	Stock     int   `gorm:"column:stock;not null"`
}

// TableName implements schema.Tabler.
func (StoreInventory) TableName() string { return "store_inventory" }
