package model

import "time"

// ProductType classifies what a customer bought (e.g. "Tomatoes").
type ProductType struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductType) TableName() string { return "product_type" }

func (p ProductType) PrimaryKey() int64 { return p.ID }
