package repository

import (
	"github.com/anikmoz/green-firm-house/internal/model"

	"gorm.io/gorm"
)

// CustomerBoughtRepository persists purchases. Reads preload the product
// type and the customer.
type CustomerBoughtRepository interface {
	Repository[model.CustomerBought]
}

type customerBoughtRepo struct {
	*gormRepo[model.CustomerBought]
}

func NewCustomerBoughtRepository(db *gorm.DB) CustomerBoughtRepository {
	return &customerBoughtRepo{newGormRepo[model.CustomerBought](db, map[string]string{
		"id":           "id",
		"weightType":   "weight_type",
		"unitPrice":    "unit_price",
		"totalPrice":   "total_price",
		"deliveryDate": "delivery_date",
		"status":       "status",
		"totalWeight":  "total_weight",
		"remarks":      "remarks",
	}, "ProductType", "Customer")}
}
