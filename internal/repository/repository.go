package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Order is one sort criterion of a list query. Field is the API-side name
// (e.g. "unitPrice"); it is resolved against the repository's whitelist.
type Order struct {
	Field string
	Desc  bool
}

// Pageable selects a zero-based page of a listing.
type Pageable struct {
	Page int
	Size int
	Sort []Order
}

// Offset returns the row offset of the page.
func (p Pageable) Offset() int { return p.Page * p.Size }

// Repository is the data access contract shared by every entity.
// Services depend on this interface, not on the concrete GORM implementation.
type Repository[T any] interface {
	Create(ctx context.Context, e *T) error
	FindByID(ctx context.Context, id int64) (*T, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, p Pageable) ([]T, int64, error)
	Save(ctx context.Context, e *T) error
	Delete(ctx context.Context, id int64) error

	// Transaction runs fn in one database transaction. Repository calls
	// made with the ctx handed to fn join it; an error from fn rolls back.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type gormRepo[T any] struct {
	db       *gorm.DB
	columns  map[string]string // API field → column
	preloads []string
}

func newGormRepo[T any](db *gorm.DB, columns map[string]string, preloads ...string) *gormRepo[T] {
	return &gormRepo[T]{db: db, columns: columns, preloads: preloads}
}

func (r *gormRepo[T]) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or the pool.
func (r *gormRepo[T]) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *gormRepo[T]) withPreloads(q *gorm.DB) *gorm.DB {
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	return q
}

// Create inserts e. Associations are referenced by their foreign keys only.
func (r *gormRepo[T]) Create(ctx context.Context, e *T) error {
	return r.conn(ctx).Omit(clause.Associations).Create(e).Error
}

// FindByID returns gorm.ErrRecordNotFound when no row matches.
func (r *gormRepo[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	var e T
	err := r.withPreloads(r.conn(ctx)).First(&e, id).Error
	return &e, err
}

func (r *gormRepo[T]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(new(T)).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *gormRepo[T]) List(ctx context.Context, p Pageable) ([]T, int64, error) {
	var rows []T
	var total int64

	q := r.conn(ctx).Model(new(T))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = r.withPreloads(q)
	for _, o := range p.Sort {
		col, ok := r.columns[o.Field]
		if !ok {
			continue
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: o.Desc})
	}
	// Stable pages need a total order.
	q = q.Order("id ASC")
	if p.Size > 0 {
		q = q.Limit(p.Size).Offset(p.Offset())
	}

	err := q.Find(&rows).Error
	return rows, total, err
}

func (r *gormRepo[T]) Save(ctx context.Context, e *T) error {
	return r.conn(ctx).Omit(clause.Associations).Save(e).Error
}

// Delete returns gorm.ErrRecordNotFound when no row was removed.
func (r *gormRepo[T]) Delete(ctx context.Context, id int64) error {
	res := r.conn(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
