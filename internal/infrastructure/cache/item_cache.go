package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/pkg/config"
)

var _ appinv.ItemCache = (*RedisItemCache)(nil)

const defaultItemTTL = 5 * time.Minute

// RedisItemCache caché de lectura de ítems de inventario sobre Redis.
// Es solo para lecturas de consulta; el motor de stock nunca la consulta.
type RedisItemCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisClient crea el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisItemCache construye la caché. El caller conserva la propiedad del cliente.
func NewRedisItemCache(client redis.UniversalClient, ttl time.Duration) *RedisItemCache {
	if ttl <= 0 {
		ttl = defaultItemTTL
	}
	return &RedisItemCache{client: client, ttl: ttl}
}

func itemKey(orgID, id string) string {
	return fmt.Sprintf("inventory_item:%s:%s", orgID, id)
}

// Get devuelve el ítem cacheado; (nil, false, nil) en cache miss.
func (c *RedisItemCache) Get(ctx context.Context, orgID, id string) (*entity.InventoryItem, bool, error) {
	data, err := c.client.Get(ctx, itemKey(orgID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get item from cache: %w", err)
	}
	var it entity.InventoryItem
	if err := json.Unmarshal(data, &it); err != nil {
		// entrada corrupta: se descarta y se trata como miss
		_ = c.client.Del(ctx, itemKey(orgID, id)).Err()
		return nil, false, nil
	}
	return &it, true, nil
}

// Set guarda el ítem con el TTL configurado.
func (c *RedisItemCache) Set(ctx context.Context, item *entity.InventoryItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if err := c.client.Set(ctx, itemKey(item.OrganizationID, item.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set item in cache: %w", err)
	}
	return nil
}

// Invalidate elimina las entradas de los ítems indicados.
func (c *RedisItemCache) Invalidate(ctx context.Context, orgID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, itemKey(orgID, id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate items: %w", err)
	}
	return nil
}
