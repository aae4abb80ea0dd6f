package service

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Cache is a best-effort record store in front of the database. A failing
// cache never fails a request.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

type recordCache struct {
	c      Cache
	entity string
}

func (rc recordCache) key(id int64) string { return rc.entity + ":" + strconv.FormatInt(id, 10) }

func (rc recordCache) get(ctx context.Context, id int64, dst any) bool {
	if rc.c == nil {
		return false
	}
	ok, err := rc.c.Get(ctx, rc.key(id), dst)
	if err != nil {
		log.Warn().Err(err).Str("entity", rc.entity).Int64("id", id).Msg("cache read failed")
		return false
	}
	return ok
}

func (rc recordCache) set(ctx context.Context, id int64, v any) {
	if rc.c == nil {
		return
	}
	if err := rc.c.Set(ctx, rc.key(id), v); err != nil {
		log.Warn().Err(err).Str("entity", rc.entity).Int64("id", id).Msg("cache write failed")
	}
}

func (rc recordCache) evict(ctx context.Context, id int64) {
	if rc.c == nil {
		return
	}
	if err := rc.c.Delete(ctx, rc.key(id)); err != nil {
		log.Warn().Err(err).Str("entity", rc.entity).Int64("id", id).Msg("cache evict failed")
	}
}
