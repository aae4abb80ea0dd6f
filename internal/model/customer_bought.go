package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeightType is the unit TotalWeight is expressed in.
type WeightType string

const (
	WeightLitre WeightType = "LITTRE"
	WeightKG    WeightType = "KG"
	WeightGram  WeightType = "GRAM"
)

// PaymentStatus tracks whether a purchase has been settled.
type PaymentStatus string

const (
	StatusDue  PaymentStatus = "DUE"
	StatusPaid PaymentStatus = "PAID"
)

// CustomerBought records one purchase of a product type by a customer.
type CustomerBought struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	WeightType    WeightType      `gorm:"type:varchar(16);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryDate  time.Time       `gorm:"not null"`
	Remarks       *string
	Status        PaymentStatus `gorm:"type:varchar(8);not null;index"`
	TotalWeight   int32         `gorm:"not null"`
	ProductTypeID int64         `gorm:"not null;index"`
	CustomerID    int64         `gorm:"not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	ProductType *ProductType `gorm:"foreignKey:ProductTypeID"`
	Customer    *Customer    `gorm:"foreignKey:CustomerID"`
}

func (CustomerBought) TableName() string { return "customer_bought" }

func (c CustomerBought) PrimaryKey() int64 { return c.ID }
