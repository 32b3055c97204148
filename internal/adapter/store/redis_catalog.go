package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"currency-conversion-service/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const DefaultCatalogKey = "currency:catalog:snapshot"

// RedisCatalogStore keeps the latest catalog snapshot as one JSON value.
type RedisCatalogStore struct {
	client *redis.Client
	key    string
}

func NewRedisCatalogStore(client *redis.Client, key string) *RedisCatalogStore {
	if key == "" {
		key = DefaultCatalogKey
	}
	return &RedisCatalogStore{client: client, key: key}
}

func (s *RedisCatalogStore) SaveSnapshot(ctx context.Context, snapshot model.CatalogSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal catalog snapshot: %w", err)
	}

	// no expiry: the snapshot is replaced on every refresh
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save catalog snapshot: %w", err)
	}
	return nil
}

func (s *RedisCatalogStore) LoadSnapshot(ctx context.Context) (model.CatalogSnapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.CatalogSnapshot{}, false, nil
	}
	if err != nil {
		return model.CatalogSnapshot{}, false, fmt.Errorf("load catalog snapshot: %w", err)
	}

	var snapshot model.CatalogSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.CatalogSnapshot{}, false, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return snapshot, true, nil
}
