package dto

import (
	"time"

	"github.com/anikmoz/green-firm-house/internal/model"

	"github.com/shopspring/decimal"
)

// CustomerBought references its product type and customer by nested
// records; on writes only their id is read.
type CustomerBought struct {
	ID           *int64               `json:"id,omitempty"`
	WeightType   *model.WeightType    `json:"weightType,omitempty"   validate:"required,oneof=LITTRE KG GRAM"`
	UnitPrice    *decimal.Decimal     `json:"unitPrice,omitempty"    validate:"required,min=0"`
	TotalPrice   *decimal.Decimal     `json:"totalPrice,omitempty"   validate:"required,min=0"`
	TotalWeight  *int32               `json:"totalWeight,omitempty"  validate:"required,min=0"`
	DeliveryDate *time.Time           `json:"deliveryDate,omitempty" validate:"required"`
	Remarks      *string              `json:"remarks,omitempty"      validate:"omitempty,max=255"`
	Status       *model.PaymentStatus `json:"status,omitempty"       validate:"required,oneof=DUE PAID"`
	ProductType  *ProductType         `json:"productType,omitempty"  validate:"-"`
	Customer     *Customer            `json:"customer,omitempty"     validate:"-"`
}

func (c CustomerBought) GetID() *int64 { return c.ID }
