package ports

import (
	"context"

	"currency-conversion-service/internal/domain/model"
)

// Cache is a bounded key/value store whose entries expire.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Clear()
	ClearExpired() int
	Len() int
	Stats() model.CacheStats
}

// CatalogStore persists catalog snapshots between restarts.
type CatalogStore interface {
	SaveSnapshot(ctx context.Context, snapshot model.CatalogSnapshot) error
	LoadSnapshot(ctx context.Context) (model.CatalogSnapshot, bool, error)
}
