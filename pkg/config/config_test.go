package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-ledger/pkg/config"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, config.StorePostgres, cfg.Ledger.Store)
	assert.Equal(t, 5*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, 10, cfg.DB.PoolMinSize)
	assert.Equal(t, 20, cfg.DB.PoolMaxSize)
	assert.Equal(t, 60*time.Second, cfg.DB.CommandTimeout)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "wms.inventory.movements", cfg.Kafka.Topic)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_LeeVariables(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_STORE", "MEMORY")
	v.Set("LEDGER_LOCK_TIMEOUT", "250ms")
	v.Set("DB_COMMAND_TIMEOUT", "30")
	v.Set("DB_POOL_MIN_SIZE", "2")
	v.Set("DB_POOL_MAX_SIZE", "4")
	v.Set("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	v.Set("HTTP_PORT", "9090")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, config.StoreMemory, cfg.Ledger.Store)
	assert.Equal(t, 250*time.Millisecond, cfg.Ledger.LockTimeout)
	assert.Equal(t, 30*time.Second, cfg.DB.CommandTimeout)
	assert.Equal(t, 2, cfg.DB.PoolMinSize)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestFromViper_RechazaConfiguracionInvalida(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_STORE", "redis")
	_, err := config.FromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("DB_POOL_MIN_SIZE", "30")
	v.Set("DB_POOL_MAX_SIZE", "20")
	_, err = config.FromViper(v)
	assert.Error(t, err)
}

func TestDSN_CodificaCaracteresEspeciales(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "ledger", Password: "p@ss/word", DBName: "wms", SSLMode: "disable"}
	assert.Equal(t, "postgres://ledger:p%40ss%2Fword@db:5432/wms?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
