package dto

type ProductType struct {
	ID   *int64  `json:"id,omitempty"`
	Name *string `json:"name,omitempty" validate:"required,min=1,max=100"`
}

func (p ProductType) GetID() *int64 { return p.ID }
