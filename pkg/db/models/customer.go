package models

import "github.com/mfigueroa/retailhub-backend/pkg/enums"

// Customer links an account to its shopper identity. Exactly one of the two
// profile rows exists per customer, selected by Kind.
type Customer struct {
	ID        int64              `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID int64              `gorm:"column:account_id;not null;index"`
	Kind      enums.CustomerKind `gorm:"column:kind;not null"`
	AddressID *int64             `gorm:"column:address_id"`
}

// TableName implements schema.Tabler.
func (Customer) TableName() string { return "customers" }

// HomeProfile carries household demographics. It shares its primary key with
// the owning customer row.
type HomeProfile struct {
	CustomerID     int64                `gorm:"column:customer_id;primaryKey"`
	MarriageStatus enums.MarriageStatus `gorm:"column:marriage_status"`
	Gender         string               `gorm:"column:gender;type:varchar(20)"`
	Age            int                  `gorm:"column:age"`
	Income         int64                `gorm:"column:income"`
	SalesID        *int64               `gorm:"column:sales_id"`
}

// TableName implements schema.Tabler.
func (HomeProfile) TableName() string { return "home_profiles" }

// BusinessProfile carries company attributes for business customers. It shares
// its primary key with the owning customer row.
type BusinessProfile struct {
	CustomerID  int64  `gorm:"column:customer_id;primaryKey"`
	CompanyName string `gorm:"column:company_name;type:varchar(140)"`
	Category    string `gorm:"column:category;type:varchar(70)"`
	GrossIncome int64  `gorm:"column:gross_income"`
	SalesID     *int64 `gorm:"column:sales_id"`
}

// TableName implements schema.Tabler.
func (BusinessProfile) TableName() string { return "business_profiles" }
