package models

// Region groups stores under a single region manager.
type Region struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string `gorm:"column:name;type:varchar(70);not null"`
	ManagerID *int64 `gorm:"column:manager_id"`
}

// TableName implements schema.Tabler.
func (Region) TableName() string { return "regions" }
