package repository

import (
	"context"

	"github.com/anikmoz/green-firm-house/internal/model"

	"gorm.io/gorm"
)

// CustomerRepository persists customers.
type CustomerRepository interface {
	Repository[model.Customer]

	// CountPurchases reports how many purchases reference the customer.
	CountPurchases(ctx context.Context, customerID int64) (int64, error)
}

type customerRepo struct {
	*gormRepo[model.Customer]
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepo{newGormRepo[model.Customer](db, map[string]string{
		"id":      "id",
		"name":    "name",
		"email":   "email",
		"phone":   "phone",
		"address": "address",
	})}
}

func (r *customerRepo) CountPurchases(ctx context.Context, customerID int64) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&model.CustomerBought{}).
		Where("customer_id = ?", customerID).Count(&n).Error
	return n, err
}
