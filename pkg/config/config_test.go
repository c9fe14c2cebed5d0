package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "floor", cfg.Inventory.FractionalPolicy)
	assert.Equal(t, 5*time.Second, cfg.DB.LockTimeout)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "postgres://postgres:@localhost:5432/invorya_stock?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_LeeValoresComoTexto(t *testing.T) {
	v := viper.New()
	v.Set("HTTP_PORT", "9090")
	v.Set("REDIS_ENABLED", "true")
	v.Set("REDIS_ITEM_TTL", "30")
	v.Set("DB_LOCK_TIMEOUT", "750ms")
	v.Set("DATABASE_URL", "postgres://u:p@db:5432/x")
	v.Set("INVENTORY_FRACTIONAL_POLICY", "reject")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.ItemTTL)
	assert.Equal(t, 750*time.Millisecond, cfg.DB.LockTimeout)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.ConnectionString())
	assert.Equal(t, "reject", cfg.Inventory.FractionalPolicy)
}

func TestFromViper_Invalida(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	v.Set("INVENTORY_FRACTIONAL_POLICY", "round")

	_, err := fromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "round")
}

func TestDSN_EscapaCaracteresEspeciales(t *testing.T) {
	c := DBConfig{Host: "h", Port: 5432, User: "u", Password: "p@ss/word", DBName: "db", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@h:5432/db?sslmode=require", c.DSN())
}
