// Package model holds the GORM persistence models.
package model

// Entity is implemented by every persisted model.
type Entity interface {
	PrimaryKey() int64
}
