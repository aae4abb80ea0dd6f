package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/anikmoz/green-firm-house/internal/dto"
	"github.com/anikmoz/green-firm-house/internal/model"
	"github.com/anikmoz/green-firm-house/internal/repository"

	"gorm.io/gorm"
)

// EntityService is the business contract every REST resource is served from.
type EntityService[D dto.Record] interface {
	// EntityName is the camelCase name used in alert headers and error keys.
	EntityName() string

	Create(ctx context.Context, rec D) (D, error)
	Update(ctx context.Context, id int64, rec D) (D, error)
	// PartialUpdate writes only the fields present in rec.
	PartialUpdate(ctx context.Context, id int64, rec D) (D, error)
	FindAll(ctx context.Context, p repository.Pageable) ([]D, int64, error)
	FindOne(ctx context.Context, id int64) (D, error)
	Delete(ctx context.Context, id int64) error
}

type mapping[M model.Entity, D dto.Record] struct {
	toDTO func(m *M) D
	// apply copies rec onto m. With partial set, absent fields are left alone.
	apply func(ctx context.Context, m *M, rec D, partial bool) error
	// beforeDelete may veto a delete; nil allows it.
	beforeDelete func(ctx context.Context, id int64) error
}

type entityService[M model.Entity, D dto.Record] struct {
	name  string
	repo  repository.Repository[M]
	cache recordCache
	m     mapping[M, D]
}

func newEntityService[M model.Entity, D dto.Record](name string, repo repository.Repository[M], cache Cache, m mapping[M, D]) *entityService[M, D] {
	return &entityService[M, D]{
		name:  name,
		repo:  repo,
		cache: recordCache{c: cache, entity: name},
		m:     m,
	}
}

func (s *entityService[M, D]) EntityName() string { return s.name }

func (s *entityService[M, D]) Create(ctx context.Context, rec D) (D, error) {
	var zero D
	if rec.GetID() != nil {
		return zero, badRequest(s.name, KeyIDExists)
	}

	m := new(M)
	if err := s.m.apply(ctx, m, rec, false); err != nil {
		return zero, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return zero, fmt.Errorf("create %s: %w", s.name, err)
	}
	return s.reload(ctx, (*m).PrimaryKey())
}

func (s *entityService[M, D]) Update(ctx context.Context, id int64, rec D) (D, error) {
	return s.write(ctx, id, rec, false)
}

func (s *entityService[M, D]) PartialUpdate(ctx context.Context, id int64, rec D) (D, error) {
	return s.write(ctx, id, rec, true)
}

func (s *entityService[M, D]) write(ctx context.Context, id int64, rec D, partial bool) (D, error) {
	var zero D
	bodyID := rec.GetID()
	if bodyID == nil {
		return zero, badRequest(s.name, KeyIDNull)
	}
	if *bodyID != id {
		return zero, badRequest(s.name, KeyIDInvalid)
	}

	m, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, badRequest(s.name, KeyIDNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("load %s %d: %w", s.name, id, err)
	}

	if err := s.m.apply(ctx, m, rec, partial); err != nil {
		return zero, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return zero, fmt.Errorf("save %s %d: %w", s.name, id, err)
	}
	s.cache.evict(ctx, id)
	return s.reload(ctx, id)
}

// reload re-reads a written row so associations come back populated.
func (s *entityService[M, D]) reload(ctx context.Context, id int64) (D, error) {
	var zero D
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("reload %s %d: %w", s.name, id, err)
	}
	return s.m.toDTO(m), nil
}

func (s *entityService[M, D]) FindAll(ctx context.Context, p repository.Pageable) ([]D, int64, error) {
	rows, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.name, err)
	}
	out := make([]D, 0, len(rows))
	for i := range rows {
		out = append(out, s.m.toDTO(&rows[i]))
	}
	return out, total, nil
}

func (s *entityService[M, D]) FindOne(ctx context.Context, id int64) (D, error) {
	var rec D
	if s.cache.get(ctx, id, &rec) {
		return rec, nil
	}

	m, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("find %s %d: %w", s.name, id, err)
	}
	rec = s.m.toDTO(m)
	s.cache.set(ctx, id, rec)
	return rec, nil
}

// Delete runs the reference veto and the delete in one transaction.
func (s *entityService[M, D]) Delete(ctx context.Context, id int64) error {
	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		if s.m.beforeDelete != nil {
			if err := s.m.beforeDelete(ctx, id); err != nil {
				return err
			}
		}
		return s.repo.Delete(ctx, id)
	})
	switch {
	case errors.Is(err, ErrReferenced):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrReferenced
	case err != nil:
		return fmt.Errorf("delete %s %d: %w", s.name, id, err)
	}
	s.cache.evict(ctx, id)
	return nil
}

// referencedBy vetoes deleting a row that count reports as still in use.
func referencedBy(count func(ctx context.Context, id int64) (int64, error)) func(context.Context, int64) error {
	return func(ctx context.Context, id int64) error {
		n, err := count(ctx, id)
		if err != nil {
			return fmt.Errorf("count references: %w", err)
		}
		if n > 0 {
			return ErrReferenced
		}
		return nil
	}
}
