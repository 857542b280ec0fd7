package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/hapi-labs/hapi-indexer/entity"
)

const (
	DefaultPageSize      = 500
	DefaultWaitInterval  = 100 * time.Millisecond
	DefaultRetryInterval = 10 * time.Second
	DefaultRPCTimeout    = 30 * time.Second

	pageSizeEnv = "INDEXER_PAGE_SIZE"
)

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type IndexerConfig struct {
	NetworkName     string         `yaml:"network"`
	Network         entity.Network `yaml:"-"`
	RPC             *RPCConfig     `yaml:"rpc"`
	ContractAddress string         `yaml:"contract_address"`
	WaitInterval    time.Duration  `yaml:"wait_interval"`
	RetryInterval   time.Duration  `yaml:"retry_interval"`
	PageSize        uint64         `yaml:"-"`
}

type PushConfig struct {
	WebhookURL  string        `yaml:"webhook_url"`
	BearerToken string        `yaml:"bearer_token"`
	Timeout     time.Duration `yaml:"timeout"`
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type MetricsConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	LogLevel logrus.Level   `yaml:"-"`
	Indexer  *IndexerConfig `yaml:"indexer"`
	Push     *PushConfig    `yaml:"push"`
	DBConfig *DBConfig      `yaml:"postgres"`
	Metrics  *MetricsConfig `yaml:"metrics"`

	LogLevelName string `yaml:"log_level"`
}

func ReadConfig(raw []byte) (*Config, error) {
	raw = []byte(os.ExpandEnv(string(raw)))

	cfg := new(Config)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("can't parse yaml config: %w", err)
	}
	if err := cfg.init(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadConfigFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfig(raw)
}

func (cfg *Config) init() error {
	cfg.LogLevel = logrus.InfoLevel
	if cfg.LogLevelName != "" {
		level, err := logrus.ParseLevel(cfg.LogLevelName)
		if err != nil {
			return fmt.Errorf("unknown log level %q: %w", cfg.LogLevelName, err)
		}
		cfg.LogLevel = level
	}

	if cfg.Indexer == nil {
		return fmt.Errorf("indexer section is required")
	}
	if err := cfg.Indexer.init(); err != nil {
		return err
	}

	if cfg.Push == nil || cfg.Push.WebhookURL == "" {
		return fmt.Errorf("push webhook url is required")
	}
	if cfg.Push.Timeout == 0 {
		cfg.Push.Timeout = DefaultRPCTimeout
	}
	return nil
}

func (cfg *IndexerConfig) init() error {
	network, err := entity.ParseNetwork(cfg.NetworkName)
	if err != nil {
		return err
	}
	cfg.Network = network

	if cfg.RPC == nil || cfg.RPC.Host == "" {
		return fmt.Errorf("indexer rpc host is required")
	}
	if cfg.ContractAddress == "" {
		return fmt.Errorf("indexer contract address is required")
	}
	if cfg.RPC.Timeout == 0 {
		cfg.RPC.Timeout = DefaultRPCTimeout
	}
	if cfg.WaitInterval == 0 {
		cfg.WaitInterval = DefaultWaitInterval
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	cfg.PageSize = PageSizeFromEnv()
	return nil
}

// PageSizeFromEnv resolves the fetch page size from the INDEXER_PAGE_SIZE
// environment variable. A missing or malformed value silently falls back to
// the default, it is never a startup failure.
func PageSizeFromEnv() uint64 {
	v := os.Getenv(pageSizeEnv)
	if v == "" {
		return DefaultPageSize
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return DefaultPageSize
	}
	return n
}
