// Package dto holds the wire records exchanged by the REST API and its
// admin client. Every field is a pointer so "absent" is distinguishable
// from "zero" on partial updates.
package dto

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Record is implemented by every wire record.
type Record interface {
	GetID() *int64
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
