package models

// Employee is a staff record tied to a login account. Role is not stored
// here; it is derived from salesperson, store and region rows at request time.
type Employee struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID int64  `gorm:"column:account_id;not null;index"`
	JobTitle  string `gorm:"column:job_title;type:varchar(70)"`
	Salary    int64  `gorm:"column:salary"`
}

// TableName implements schema.Tabler.
func (Employee) TableName() string { return "employees" }
