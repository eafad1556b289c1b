package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Reasoner  ReasonerConfig  `mapstructure:"reasoner"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr          string        `mapstructure:"http_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// DBConfig is optional. An empty DSN disables the decision journal.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type ReasonerConfig struct {
	// Provider is "openai" or "anthropic".
	Provider        string        `mapstructure:"provider"`
	APIKey          string        `mapstructure:"api_key"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int64         `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type RiskConfig struct {
	// ImprovementTolerance enables the improvement consistency check when > 0.
	ImprovementTolerance float64 `mapstructure:"improvement_tolerance"`
}

type StreamConfig struct {
	Pacing time.Duration `mapstructure:"pacing"`
	Buffer int           `mapstructure:"buffer"`
}

type ChainConfig struct {
	RPCURL       string        `mapstructure:"rpc_url"`
	FallbackURLs []string      `mapstructure:"fallback_urls"`
	ChainID      int64         `mapstructure:"chain_id"`
	VaultAddress string        `mapstructure:"vault_address"`
	AssetAddress string        `mapstructure:"asset_address"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type FeedConfig struct {
	DefiLlamaURL      string        `mapstructure:"defillama_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	AssumedDepositUSD float64       `mapstructure:"assumed_deposit_usd"`
	Opportunities     []FeedEntry   `mapstructure:"opportunities"`
}

// FeedEntry describes one candidate vault for scheduled runs. APY and TVL are
// fallbacks used when the pool is missing from DefiLlama.
type FeedEntry struct {
	VaultAddress  string  `mapstructure:"vault_address"`
	Protocol      string  `mapstructure:"protocol"`
	Risk          string  `mapstructure:"risk"`
	IsGlueXVault  bool    `mapstructure:"is_gluex_vault"`
	DefiLlamaPool string  `mapstructure:"defillama_pool"`
	APY           float64 `mapstructure:"apy"`
	TVL           float64 `mapstructure:"tvl"`
}

type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
	// Constraints overrides applied to scheduled runs; zero means default.
	MinTVL        float64 `mapstructure:"min_tvl"`
	MaxDilution   float64 `mapstructure:"max_dilution"`
	MinSharpe     float64 `mapstructure:"min_sharpe"`
	RiskTolerance string  `mapstructure:"risk_tolerance"`
}

type AuthConfig struct {
	Disabled  bool   `mapstructure:"disabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

func Load(path string, envOnly bool) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("SY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	// Names used by the existing deployment.
	_ = v.BindEnv("reasoner.api_key", "SY_REASONER_API_KEY", "OPENAI_KEY")
	_ = v.BindEnv("reasoner.anthropic_api_key", "SY_REASONER_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("reasoner.model", "SY_REASONER_MODEL", "GPT_MODEL")
	_ = v.BindEnv("chain.rpc_url", "SY_CHAIN_RPC_URL", "HYPEREVM_RPC_URL")
	_ = v.BindEnv("chain.vault_address", "SY_CHAIN_VAULT_ADDRESS", "SUPER_YIELD_VAULT")

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("reasoner.provider", "openai")
	v.SetDefault("reasoner.model", "gpt-4o")
	v.SetDefault("reasoner.temperature", 0.3)
	v.SetDefault("reasoner.max_tokens", 2000)
	v.SetDefault("reasoner.timeout", "90s")
	v.SetDefault("risk.improvement_tolerance", 0)
	v.SetDefault("stream.pacing", "300ms")
	v.SetDefault("stream.buffer", 32)
	v.SetDefault("chain.rpc_url", "https://rpc.hyperliquid.xyz/evm")
	v.SetDefault("chain.chain_id", 999)
	v.SetDefault("chain.timeout", "10s")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("feed.defillama_url", "https://yields.llama.fi")
	v.SetDefault("feed.timeout", "15s")
	v.SetDefault("feed.assumed_deposit_usd", 100000)
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.spec", "@every 1h")
	v.SetDefault("auth.disabled", true)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
