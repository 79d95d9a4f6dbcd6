package models

// Address is a shared postal address row referenced by customers and stores.
type Address struct {
	ID       int64   `gorm:"column:id;primaryKey;autoIncrement"`
	State    string  `gorm:"column:state;type:varchar(20)"`
	City     string  `gorm:"column:city;type:varchar(40)"`
	Zipcode  *int    `gorm:"column:zipcode"`
	Address1 string  `gorm:"column:address_1;type:varchar(70)"`
	Address2 *string `gorm:"column:address_2;type:varchar(70)"`
}

// TableName implements schema.Tabler.
func (Address) TableName() string { return "addresses" }
