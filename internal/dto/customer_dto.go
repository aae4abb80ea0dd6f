package dto

type Customer struct {
	ID      *int64  `json:"id,omitempty"`
	Name    *string `json:"name,omitempty"    validate:"required,min=1,max=120"`
	Email   *string `json:"email,omitempty"   validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty"   validate:"required,min=1,max=32"`
	Address *string `json:"address,omitempty" validate:"required,min=1,max=255"`
}

func (c Customer) GetID() *int64 { return c.ID }
