package store

import (
	"context"
	"os"
	"testing"
	"time"

	"currency-conversion-service/internal/domain/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisCatalogStore_RoundTrip(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	key := "test:catalog:" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { client.Del(ctx, key) })

	store := NewRedisCatalogStore(client, key)

	_, found, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	currencies := model.NewCurrencyMap()
	currencies.Set("PAB", model.CurrencyInfo{Name: "Panamanian balboa", Symbol: "B/."})
	currencies.Set("USD", model.CurrencyInfo{Name: "United States dollar", Symbol: "$"})

	snapshot := model.CatalogSnapshot{
		LastRefreshed: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Countries: map[string]model.CountryCurrencyConfig{
			"panama": {Name: "Panama", PrimaryCurrency: "USD", Currencies: currencies, IsMultiCurrency: true},
		},
	}
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))

	loaded, found, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, snapshot.LastRefreshed.Equal(loaded.LastRefreshed))

	panama := loaded.Countries["panama"]
	assert.Equal(t, "USD", panama.PrimaryCurrency)
	assert.True(t, panama.IsMultiCurrency)
	assert.Equal(t, []string{"PAB", "USD"}, panama.Currencies.Codes())
}

func TestRedisCatalogStore_CorruptValue(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	key := "test:catalog:corrupt:" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { client.Del(ctx, key) })

	require.NoError(t, client.Set(ctx, key, "{nope", 0).Err())

	_, found, err := NewRedisCatalogStore(client, key).LoadSnapshot(ctx)
	assert.Error(t, err)
	assert.False(t, found)
}
