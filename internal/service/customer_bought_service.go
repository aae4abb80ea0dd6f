package service

import (
	"context"
	"fmt"

	"github.com/anikmoz/green-firm-house/internal/dto"
	"github.com/anikmoz/green-firm-house/internal/model"
	"github.com/anikmoz/green-firm-house/internal/repository"
)

const CustomerBoughtEntity = "customerBought"

type customerBoughtRefs struct {
	productTypes repository.ProductTypeRepository
	customers    repository.CustomerRepository
}

// NewCustomerBoughtService serves purchases. Both references must point at
// existing rows and full writes must carry a delivery date.
// Purchases are not cached since they embed their references.
func NewCustomerBoughtService(
	repo repository.CustomerBoughtRepository,
	productTypes repository.ProductTypeRepository,
	customers repository.CustomerRepository,
) EntityService[dto.CustomerBought] {
	refs := &customerBoughtRefs{productTypes: productTypes, customers: customers}
	return newEntityService(CustomerBoughtEntity, repository.Repository[model.CustomerBought](repo), nil, mapping[model.CustomerBought, dto.CustomerBought]{
		toDTO: mapCustomerBought,
		apply: refs.apply,
	})
}

func mapCustomerBought(b *model.CustomerBought) dto.CustomerBought {
	wt, st := b.WeightType, b.Status
	unit, total := b.UnitPrice, b.TotalPrice
	weight := b.TotalWeight
	delivery := b.DeliveryDate

	out := dto.CustomerBought{
		ID:           dto.Int64(b.ID),
		WeightType:   &wt,
		UnitPrice:    &unit,
		TotalPrice:   &total,
		TotalWeight:  &weight,
		DeliveryDate: &delivery,
		Remarks:      b.Remarks,
		Status:       &st,
		ProductType:  &dto.ProductType{ID: dto.Int64(b.ProductTypeID)},
		Customer:     &dto.Customer{ID: dto.Int64(b.CustomerID)},
	}
	if b.ProductType != nil {
		pt := mapProductType(b.ProductType)
		out.ProductType = &pt
	}
	if b.Customer != nil {
		c := mapCustomer(b.Customer)
		out.Customer = &c
	}
	return out
}

func (r *customerBoughtRefs) apply(ctx context.Context, b *model.CustomerBought, rec dto.CustomerBought, partial bool) error {
	if !partial {
		missing := map[string]string{}
		if refID(rec.ProductType) == nil {
			missing["productType"] = "required"
		}
		if refID(rec.Customer) == nil {
			missing["customer"] = "required"
		}
		if rec.DeliveryDate == nil {
			missing["deliveryDate"] = "required"
		}
		if len(missing) > 0 {
			return &ValidationError{Fields: missing}
		}
	}

	if id := refID(rec.ProductType); id != nil {
		if err := r.mustExist(ctx, r.productTypes, ProductTypeEntity, *id); err != nil {
			return err
		}
		b.ProductTypeID = *id
		b.ProductType = nil
	}
	if id := refID(rec.Customer); id != nil {
		if err := r.mustExist(ctx, r.customers, CustomerEntity, *id); err != nil {
			return err
		}
		b.CustomerID = *id
		b.Customer = nil
	}

	if rec.WeightType != nil {
		b.WeightType = *rec.WeightType
	}
	if rec.UnitPrice != nil {
		b.UnitPrice = *rec.UnitPrice
	}
	if rec.TotalPrice != nil {
		b.TotalPrice = *rec.TotalPrice
	}
	if rec.TotalWeight != nil {
		b.TotalWeight = *rec.TotalWeight
	}
	if rec.Status != nil {
		b.Status = *rec.Status
	}
	if rec.Remarks != nil || !partial {
		b.Remarks = rec.Remarks
	}
	if rec.DeliveryDate != nil {
		b.DeliveryDate = *rec.DeliveryDate
	}
	return nil
}

func (r *customerBoughtRefs) mustExist(ctx context.Context, repo interface {
	ExistsByID(ctx context.Context, id int64) (bool, error)
}, entity string, id int64) error {
	ok, err := repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("check %s %d: %w", entity, id, err)
	}
	if !ok {
		return &BadRequestError{
			Entity:  CustomerBoughtEntity,
			Key:     entity + "notfound",
			Message: fmt.Sprintf("Referenced %s %d does not exist", entity, id),
		}
	}
	return nil
}

func refID[R dto.Record](ref *R) *int64 {
	if ref == nil {
		return nil
	}
	return (*ref).GetID()
}
