package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/invorya-stock/internal/application/ports"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/infrastructure/cache"
)

// redisClient usa REDIS_ADDR si está definido; si no, levanta un contenedor.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con Redis omitida en modo -short")
	}
	ctx := context.Background()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections"),
			},
			Started: true,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = container.Terminate(context.Background()) })
		addr, err = container.Endpoint(ctx, "")
		require.NoError(t, err)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis no disponible: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func sampleItem(id string) *entity.InventoryItem {
	cost := decimal.RequireFromString("850.5")
	return &entity.InventoryItem{
		ID:             id,
		OrganizationID: "org-cache",
		Name:           "Cuaderno",
		SKU:            "CUA-" + id,
		StockLevel:     7,
		ReorderLevel:   3,
		UnitOfMeasure:  "UND",
		UnitPrice:      decimal.NewFromInt(1200),
		CostPrice:      &cost,
		Active:         true,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
		UpdatedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

// ──────────────────────────────────────────────────────────────
// RedisItemCache
// ──────────────────────────────────────────────────────────────

func TestRedisItemCache_SetGetInvalidate(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	c := cache.NewRedisItemCache(client, time.Minute)
	it := sampleItem("c-1")

	_, ok, err := c.Get(ctx, it.OrganizationID, it.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, it))
	got, ok, err := c.Get(ctx, it.OrganizationID, it.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, it.SKU, got.SKU)
	assert.Equal(t, it.StockLevel, got.StockLevel)
	assert.True(t, it.UnitPrice.Equal(got.UnitPrice))
	require.NotNil(t, got.CostPrice)
	assert.True(t, it.CostPrice.Equal(*got.CostPrice))

	// la clave incluye la organización
	_, ok, err = c.Get(ctx, "otra-org", it.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, "inventory_item:org-cache:c-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Invalidate(ctx, it.OrganizationID, it.ID, "no-cacheado"))
	_, ok, err = c.Get(ctx, it.OrganizationID, it.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, c.Invalidate(ctx, it.OrganizationID))
}

func TestRedisItemCache_EntradaCorruptaEsMiss(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	c := cache.NewRedisItemCache(client, 0)

	require.NoError(t, client.Set(ctx, "inventory_item:org-cache:bad", "{no-json", time.Minute).Err())
	_, ok, err := c.Get(ctx, "org-cache", "bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), client.Exists(ctx, "inventory_item:org-cache:bad").Val())
}

// ──────────────────────────────────────────────────────────────
// Invalidator
// ──────────────────────────────────────────────────────────────

type spyCache struct {
	org string
	ids []string
}

func (s *spyCache) Get(context.Context, string, string) (*entity.InventoryItem, bool, error) {
	return nil, false, nil
}
func (s *spyCache) Set(context.Context, *entity.InventoryItem) error { return nil }
func (s *spyCache) Invalidate(_ context.Context, orgID string, ids ...string) error {
	s.org = orgID
	s.ids = append(s.ids, ids...)
	return nil
}

func TestInvalidator_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("usa ItemIDs del evento", func(t *testing.T) {
		spy := &spyCache{}
		err := cache.NewInvalidator(spy).Publish(ctx, ports.Event{
			Type: ports.EventInvoiceCreated, OrganizationID: "org-1", EntityType: "invoice", EntityID: "inv-1",
			ItemIDs: []string{"a", "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, "org-1", spy.org)
		assert.Equal(t, []string{"a", "b"}, spy.ids)
	})

	t.Run("evento de ítem sin ItemIDs usa EntityID", func(t *testing.T) {
		spy := &spyCache{}
		require.NoError(t, cache.NewInvalidator(spy).Publish(ctx, ports.Event{
			Type: ports.EventItemUpdated, OrganizationID: "org-1", EntityType: "inventory_item", EntityID: "it-9",
		}))
		assert.Equal(t, []string{"it-9"}, spy.ids)
	})

	t.Run("evento sin ítems no invalida", func(t *testing.T) {
		spy := &spyCache{}
		require.NoError(t, cache.NewInvalidator(spy).Publish(ctx, ports.Event{
			Type: ports.EventInvoiceCancelled, OrganizationID: "org-1", EntityType: "invoice", EntityID: "inv-1",
		}))
		assert.Empty(t, spy.ids)
	})
}
