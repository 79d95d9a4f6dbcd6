package models

// Product is a catalog entry. Price is stored in cents.
type Product struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string  `gorm:"column:name;type:varchar(140);not null"`
	Price       int64   `gorm:"column:price;not null"`
	Kind        string  `gorm:"column:kind;type:varchar(70)"`
	Description *string `gorm:"column:description;type:text"`
	ImageURL    *string `gorm:"column:image_url;type:varchar(255)"`
}

// TableName implements schema.Tabler.
func (Product) TableName() string { return "products" }
