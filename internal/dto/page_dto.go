package dto

// PageQuery is the query string of every list endpoint. Page is zero
// based; Sort entries are "field" or "field,asc|desc".
type PageQuery struct {
	Page int      `form:"page" validate:"min=0"`
	Size int      `form:"size" validate:"min=0"`
	Sort []string `form:"sort"`
}
