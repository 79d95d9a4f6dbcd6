package models

// Account is the login identity shared by customers and employees.
type Account struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string `gorm:"column:email;type:varchar(70);not null;uniqueIndex"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(140);not null"`
	Name         string `gorm:"column:name;type:varchar(70)"`
}

// TableName implements schema.Tabler.
func (Account) TableName() string { return "accounts" }
