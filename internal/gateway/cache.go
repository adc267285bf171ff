package gateway

import (
	"context"
	"maps"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Backend — то, что умеет Client; кэш оборачивает любой Backend.
type Backend interface {
	List(ctx context.Context, kind Kind) ([]Record, error)
	Get(ctx context.Context, kind Kind, id string) (Record, error)
	Create(ctx context.Context, kind Kind, fields map[string]any) (Record, error)
	Update(ctx context.Context, kind Kind, id string, fields map[string]any) (Record, error)
	Delete(ctx context.Context, kind Kind, id string) error
}

// Cached кэширует записи по id. List всегда ходит в backend и обновляет
// кэш; Update и Delete вытесняют запись.
type Cached struct {
	next  Backend
	cache *lru.Cache[string, Record]
}

func NewCached(next Backend, size int) (*Cached, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, Record](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

func cacheKey(kind Kind, id string) string { return string(kind) + ":" + id }

func (c *Cached) List(ctx context.Context, kind Kind) ([]Record, error) {
	recs, err := c.next.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if id := r.ID(); id != "" {
			c.cache.Add(cacheKey(kind, id), maps.Clone(r))
		}
	}
	return recs, nil
}

func (c *Cached) Get(ctx context.Context, kind Kind, id string) (Record, error) {
	if r, ok := c.cache.Get(cacheKey(kind, id)); ok {
		return maps.Clone(r), nil
	}
	r, err := c.next.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(cacheKey(kind, id), maps.Clone(r))
	return r, nil
}

func (c *Cached) Create(ctx context.Context, kind Kind, fields map[string]any) (Record, error) {
	r, err := c.next.Create(ctx, kind, fields)
	if err != nil {
		return nil, err
	}
	if id := r.ID(); id != "" {
		c.cache.Add(cacheKey(kind, id), maps.Clone(r))
	}
	return r, nil
}

func (c *Cached) Update(ctx context.Context, kind Kind, id string, fields map[string]any) (Record, error) {
	c.cache.Remove(cacheKey(kind, id))
	return c.next.Update(ctx, kind, id, fields)
}

func (c *Cached) Delete(ctx context.Context, kind Kind, id string) error {
	c.cache.Remove(cacheKey(kind, id))
	return c.next.Delete(ctx, kind, id)
}
