package service

import (
	"context"

	"github.com/anikmoz/green-firm-house/internal/dto"
	"github.com/anikmoz/green-firm-house/internal/model"
	"github.com/anikmoz/green-firm-house/internal/repository"
)

const CustomerEntity = "customer"

// NewCustomerService serves customers. cache may be nil.
func NewCustomerService(repo repository.CustomerRepository, cache Cache) EntityService[dto.Customer] {
	return newEntityService(CustomerEntity, repository.Repository[model.Customer](repo), cache, mapping[model.Customer, dto.Customer]{
		toDTO:        mapCustomer,
		apply:        applyCustomer,
		beforeDelete: referencedBy(repo.CountPurchases),
	})
}

func mapCustomer(c *model.Customer) dto.Customer {
	return dto.Customer{
		ID:      dto.Int64(c.ID),
		Name:    dto.String(c.Name),
		Email:   c.Email,
		Phone:   dto.String(c.Phone),
		Address: dto.String(c.Address),
	}
}

func applyCustomer(_ context.Context, c *model.Customer, rec dto.Customer, partial bool) error {
	if rec.Name != nil {
		c.Name = *rec.Name
	}
	// A full update clears the optional email when it is absent.
	if rec.Email != nil || !partial {
		c.Email = rec.Email
	}
	if rec.Phone != nil {
		c.Phone = *rec.Phone
	}
	if rec.Address != nil {
		c.Address = *rec.Address
	}
	return nil
}
