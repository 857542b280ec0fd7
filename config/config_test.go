package config_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/hapi-labs/hapi-indexer/config"
	"github.com/hapi-labs/hapi-indexer/entity"
)

const testCfg = `
log_level: debug
indexer:
  network: ethereum
  rpc:
    host: https://mainnet.infura.io/v3/${INFURA_PROJECT_KEY}
    timeout: 30s
  contract_address: 0x2947F98C42597966a0ec25e92843c09ac18Fbab7
  wait_interval: 200ms
  retry_interval: 5s
push:
  webhook_url: http://localhost:8080/events
  bearer_token: secret
postgres:
  user: postgres
  password: postgres
  host: localhost
  port: 5432
  database: hapi_indexer
metrics:
  host: :2112
`

func TestReadConfig(t *testing.T) {
	t.Setenv("INFURA_PROJECT_KEY", "12345678")

	cfg, err := config.ReadConfig([]byte(testCfg))
	require.NoError(t, err)

	require.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	require.Equal(t, entity.NetworkEthereum, cfg.Indexer.Network)
	require.Equal(t, "https://mainnet.infura.io/v3/12345678", cfg.Indexer.RPC.Host)
	require.Equal(t, 30*time.Second, cfg.Indexer.RPC.Timeout)
	require.Equal(t, "0x2947F98C42597966a0ec25e92843c09ac18Fbab7", cfg.Indexer.ContractAddress)
	require.Equal(t, 200*time.Millisecond, cfg.Indexer.WaitInterval)
	require.Equal(t, 5*time.Second, cfg.Indexer.RetryInterval)
	require.EqualValues(t, config.DefaultPageSize, cfg.Indexer.PageSize)
	require.Equal(t, "http://localhost:8080/events", cfg.Push.WebhookURL)
	require.Equal(t, "secret", cfg.Push.BearerToken)
	require.Equal(t, config.DefaultRPCTimeout, cfg.Push.Timeout)
	require.Equal(t, "hapi_indexer", cfg.DBConfig.DB)
	require.Equal(t, ":2112", cfg.Metrics.Host)
}

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := config.ReadConfig([]byte(`
indexer:
  network: solana
  rpc:
    host: https://api.mainnet-beta.solana.com
  contract_address: hapiAwBQLYRXrjGn6FLCgC8FpQd2yWbKMqS6AYZ48KE
push:
  webhook_url: http://localhost:8080/events
`))
	require.NoError(t, err)

	require.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	require.Equal(t, config.DefaultRPCTimeout, cfg.Indexer.RPC.Timeout)
	require.Equal(t, config.DefaultWaitInterval, cfg.Indexer.WaitInterval)
	require.Equal(t, config.DefaultRetryInterval, cfg.Indexer.RetryInterval)
	require.EqualValues(t, config.DefaultPageSize, cfg.Indexer.PageSize)
}

func TestReadConfigErrors(t *testing.T) {
	t.Run("missing indexer section", func(t *testing.T) {
		_, err := config.ReadConfig([]byte(`log_level: info`))
		require.Error(t, err)
	})

	t.Run("unknown network", func(t *testing.T) {
		_, err := config.ReadConfig([]byte(`
indexer:
  network: dogecoin
  rpc:
    host: http://localhost:8545
  contract_address: 0x01
`))
		require.Error(t, err)
	})

	t.Run("missing rpc host", func(t *testing.T) {
		_, err := config.ReadConfig([]byte(`
indexer:
  network: ethereum
  contract_address: 0x01
`))
		require.Error(t, err)
	})

	t.Run("missing push section", func(t *testing.T) {
		_, err := config.ReadConfig([]byte(`
indexer:
  network: ethereum
  rpc:
    host: http://localhost:8545
  contract_address: 0x2947F98C42597966a0ec25e92843c09ac18Fbab7
`))
		require.Error(t, err)
	})

	t.Run("missing push webhook url", func(t *testing.T) {
		_, err := config.ReadConfig([]byte(`
indexer:
  network: ethereum
  rpc:
    host: http://localhost:8545
  contract_address: 0x2947F98C42597966a0ec25e92843c09ac18Fbab7
push:
  bearer_token: secret
`))
		require.Error(t, err)
	})

	t.Run("unknown log level", func(t *testing.T) {
		_, err := config.ReadConfig([]byte(`
log_level: shout
indexer:
  network: ethereum
  rpc:
    host: http://localhost:8545
  contract_address: 0x01
`))
		require.Error(t, err)
	})
}

func TestPageSizeFromEnv(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		t.Setenv("INDEXER_PAGE_SIZE", "")
		require.EqualValues(t, 500, config.PageSizeFromEnv())
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("INDEXER_PAGE_SIZE", "300")
		require.EqualValues(t, 300, config.PageSizeFromEnv())
	})

	t.Run("non-numeric reverts to default", func(t *testing.T) {
		t.Setenv("INDEXER_PAGE_SIZE", "many")
		require.EqualValues(t, 500, config.PageSizeFromEnv())
	})

	t.Run("zero reverts to default", func(t *testing.T) {
		t.Setenv("INDEXER_PAGE_SIZE", "0")
		require.EqualValues(t, 500, config.PageSizeFromEnv())
	})
}
