package service

import (
	"context"

	"github.com/anikmoz/green-firm-house/internal/dto"
	"github.com/anikmoz/green-firm-house/internal/model"
	"github.com/anikmoz/green-firm-house/internal/repository"
)

const ProductTypeEntity = "productType"

// NewProductTypeService serves product types. cache may be nil.
func NewProductTypeService(repo repository.ProductTypeRepository, cache Cache) EntityService[dto.ProductType] {
	return newEntityService(ProductTypeEntity, repository.Repository[model.ProductType](repo), cache, mapping[model.ProductType, dto.ProductType]{
		toDTO:        mapProductType,
		apply:        applyProductType,
		beforeDelete: referencedBy(repo.CountPurchases),
	})
}

func mapProductType(p *model.ProductType) dto.ProductType {
	return dto.ProductType{
		ID:   dto.Int64(p.ID),
		Name: dto.String(p.Name),
	}
}

func applyProductType(_ context.Context, p *model.ProductType, rec dto.ProductType, _ bool) error {
	if rec.Name != nil {
		p.Name = *rec.Name
	}
	return nil
}
