package model

import "time"

// Customer is a buyer of the firm's produce. Email is the only optional field.
type Customer struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Email     *string
	Phone     string `gorm:"not null"`
	Address   string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Customer) TableName() string { return "customer" }

func (c Customer) PrimaryKey() int64 { return c.ID }
