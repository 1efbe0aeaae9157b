package catalog

import "time"

type Product struct {
	ID       string `gorm:"type:char(36);primaryKey"`
	Title    string `gorm:"type:varchar(255);not null"`
	Slug     string `gorm:"type:varchar(255);not null;uniqueIndex:ux_products_slug"`
	PriceIRR int64  `gorm:"not null"`
	Active   bool   `gorm:"not null;default:true;index:ix_products_active"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Product) TableName() string { return "products" }
