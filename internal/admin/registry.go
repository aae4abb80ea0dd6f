// Package admin holds the administrative client: one crud.Controller per
// entity, created once and kept for the life of the process, plus the
// plain-text views that render their state.
package admin

import (
	"github.com/anikmoz/green-firm-house/internal/crud"
	"github.com/anikmoz/green-firm-house/internal/dto"
)

var (
	CustomerResource       = crud.Resource{Name: "customer", Path: "api/customers"}
	ProductTypeResource    = crud.Resource{Name: "productType", Path: "api/product-types"}
	CustomerBoughtResource = crud.Resource{Name: "customerBought", Path: "api/customer-boughts"}
)

// Registry holds the controllers of every administered entity.
type Registry struct {
	Customers       *crud.Controller[dto.Customer]
	ProductTypes    *crud.Controller[dto.ProductType]
	CustomerBoughts *crud.Controller[dto.CustomerBought]
}

// NewRegistry builds the three controllers against the API at baseURL.
// All share doer and opts.
func NewRegistry(baseURL string, doer crud.Doer, opts ...crud.Option) *Registry {
	return &Registry{
		Customers:       crud.New[dto.Customer](baseURL, CustomerResource, doer, opts...),
		ProductTypes:    crud.New[dto.ProductType](baseURL, ProductTypeResource, doer, opts...),
		CustomerBoughts: crud.New[dto.CustomerBought](baseURL, CustomerBoughtResource, doer, opts...),
	}
}
