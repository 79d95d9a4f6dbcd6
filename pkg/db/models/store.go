package models

// Store is a physical location inside a region. ManagerID references the
// employee running the store; a unique index keeps an employee from managing
// more than one store.
type Store struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string `gorm:"column:name;type:varchar(70);not null"`
	AddressID *int64 `gorm:"column:address_id"`
	ManagerID *int64 `gorm:"column:manager_id;uniqueIndex:uq_store_manager"`
	RegionID  *int64 `gorm:"column:region_id;index"`
}

// TableName implements schema.Tabler.
func (Store) TableName() string { return "stores" }
