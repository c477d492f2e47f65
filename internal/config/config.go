package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/logger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Platform PlatformConfig `mapstructure:"platform"`
	Script   ScriptConfig   `mapstructure:"script"`
	Tokens   TokensConfig   `mapstructure:"tokens"`
	Tx       TxConfig       `mapstructure:"tx"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	Mode           string `mapstructure:"mode"`
	OperatorRoutes bool   `mapstructure:"operator_routes"` // 是否开放运维接口
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres 或 sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

// DSN postgres 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}

// LedgerConfig 链上查询服务（Koios）配置
type LedgerConfig struct {
	URL       string  `mapstructure:"url"`
	APIKey    string  `mapstructure:"api_key"`
	Network   string  `mapstructure:"network"`    // mainnet, preprod, preview
	RateLimit float64 `mapstructure:"rate_limit"` // 每秒请求数
	Burst     int     `mapstructure:"burst"`
	Timeout   int     `mapstructure:"timeout"` // 秒
}

// PlatformConfig 平台身份
type PlatformConfig struct {
	Address        string `mapstructure:"address"`
	PaymentKeyHash string `mapstructure:"payment_key_hash"`
	StakeAddress   string `mapstructure:"stake_address"`
	StakeKeyHash   string `mapstructure:"stake_key_hash"`
}

// ScriptConfig 验证器来源：蓝图文件或直接给出的编译代码
type ScriptConfig struct {
	Blueprint    string `mapstructure:"blueprint"`
	Title        string `mapstructure:"title"`
	CompiledCode string `mapstructure:"compiled_code"`
}

// TokensConfig 代币资产名（文本）
type TokensConfig struct {
	State   string `mapstructure:"state"`
	Support string `mapstructure:"support"`
	Reward  string `mapstructure:"reward"`
}

// TxConfig 交易组装参数，金额单位为 lovelace
type TxConfig struct {
	Fee          int64 `mapstructure:"fee"`
	MinOutput    int64 `mapstructure:"min_output"`
	Collateral   int64 `mapstructure:"collateral"`
	SpendMemory  int64 `mapstructure:"spend_memory"`
	SpendSteps   int64 `mapstructure:"spend_steps"`
	MintMemory   int64 `mapstructure:"mint_memory"`
	MintSteps    int64 `mapstructure:"mint_steps"`
	CostModelTTL int   `mapstructure:"cost_model_ttl"` // 秒
}

// WalletConfig 运维钱包
type WalletConfig struct {
	SigningKey string `mapstructure:"signing_key"` // ed25519 种子（十六进制）
	StakeKey   string `mapstructure:"stake_key"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type TaskConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Interval int  `mapstructure:"interval"` // 秒
	PoolSize int  `mapstructure:"pool_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.Settings 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.Settings 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.Settings 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Network 解析目标网络
func (c *Config) Network() (cardano.Network, error) {
	return cardano.ParseNetwork(c.Ledger.Network)
}

// PlatformIdentity 平台身份，未配置时返回前置条件错误
func (c *Config) PlatformIdentity() (campaign.Platform, error) {
	p := campaign.Platform{
		Address:        c.Platform.Address,
		PaymentKeyHash: cardano.KeyHash(strings.ToLower(c.Platform.PaymentKeyHash)),
		StakeAddress:   c.Platform.StakeAddress,
		StakeKeyHash:   cardano.KeyHash(strings.ToLower(c.Platform.StakeKeyHash)),
	}
	if err := p.Validate(); err != nil {
		return campaign.Platform{}, err
	}
	return p, nil
}

// TokenNames 代币资产名
func (c *Config) TokenNames() campaign.Tokens {
	return campaign.Tokens{
		State:   cardano.AssetNameFromText(c.Tokens.State),
		Support: cardano.AssetNameFromText(c.Tokens.Support),
		Reward:  cardano.AssetNameFromText(c.Tokens.Reward),
	}
}

// SyncInterval 同步任务间隔
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Task.Interval) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.operator_routes", false)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "crowdfunding")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "data/crowdfunding.db")
	v.SetDefault("ledger.url", "https://preprod.koios.rest/api/v1")
	v.SetDefault("ledger.api_key", "")
	v.SetDefault("ledger.network", "preprod")
	v.SetDefault("ledger.rate_limit", 5)
	v.SetDefault("ledger.burst", 5)
	v.SetDefault("ledger.timeout", 30)
	v.SetDefault("platform.address", "")
	v.SetDefault("platform.payment_key_hash", "")
	v.SetDefault("platform.stake_address", "")
	v.SetDefault("platform.stake_key_hash", "")
	v.SetDefault("script.blueprint", "plutus.json")
	v.SetDefault("script.title", "crowdfunding.crowdfunding.spend")
	v.SetDefault("script.compiled_code", "")
	v.SetDefault("tokens.state", "STATE_TOKEN")
	v.SetDefault("tokens.support", "SUPPORT_TOKEN")
	v.SetDefault("tokens.reward", "REWARD_TOKEN")
	v.SetDefault("tx.fee", 2_000_000)
	v.SetDefault("tx.min_output", 2_000_000)
	v.SetDefault("tx.collateral", 5_000_000)
	v.SetDefault("tx.spend_memory", 7_000_000)
	v.SetDefault("tx.spend_steps", 3_000_000_000)
	v.SetDefault("tx.mint_memory", 7_000_000)
	v.SetDefault("tx.mint_steps", 3_000_000_000)
	v.SetDefault("tx.cost_model_ttl", 3600)
	v.SetDefault("wallet.signing_key", "")
	v.SetDefault("wallet.stake_key", "")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "data/snapshots")
	v.SetDefault("task.enabled", true)
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.pool_size", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// LoadFile 读取配置；file 为空时按默认路径查找 config.yaml，找不到只告警
func LoadFile(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/cfs")
	}

	setDefaults(v)

	// 环境变量 CFS_LEDGER_API_KEY 覆盖 ledger.api_key
	v.SetEnvPrefix("CFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if file != "" {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &config, nil
}

func Load() *Config {
	config, err := LoadFile("")
	if err != nil {
		logger.Fatal("Unable to load config: %v", err)
	}
	return config
}
