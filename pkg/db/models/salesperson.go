package models

// Salesperson assigns an employee to the sales floor of a single store. The
// unique index on EmployeeID keeps one assignment per employee.
type Salesperson struct {
	ID         int64 `gorm:"column:id;primaryKey;autoIncrement"`
	StoreID    int64 `gorm:"column:store_id;not null;index"`
	EmployeeID int64 `gorm:"column:employee_id;not null;uniqueIndex"`
}

// TableName implements schema.Tabler.
func (Salesperson) TableName() string { return "salespeople" }
