package repository

import (
	"context"

	"github.com/anikmoz/green-firm-house/internal/model"

	"gorm.io/gorm"
)

// ProductTypeRepository persists product types.
type ProductTypeRepository interface {
	Repository[model.ProductType]

	// CountPurchases reports how many purchases reference the product type.
	CountPurchases(ctx context.Context, productTypeID int64) (int64, error)
}

type productTypeRepo struct {
	*gormRepo[model.ProductType]
}

func NewProductTypeRepository(db *gorm.DB) ProductTypeRepository {
	return &productTypeRepo{newGormRepo[model.ProductType](db, map[string]string{
		"id":   "id",
		"name": "name",
	})}
}

func (r *productTypeRepo) CountPurchases(ctx context.Context, productTypeID int64) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&model.CustomerBought{}).
		Where("product_type_id = ?", productTypeID).Count(&n).Error
	return n, err
}
