package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// 環境変数は POS_ で始め、階層は __ でつなぐ（例: POS_DATABASE__HOST）
const envPrefix = "POS_"

// Configはアプリ全体の設定
type Config struct {
	App       App       `koanf:"app"`
	Database  Database  `koanf:"database"`
	RabbitMQ  RabbitMQ  `koanf:"rabbitmq"`
	Orders    Orders    `koanf:"orders"`
	Inventory Inventory `koanf:"inventory"`
}

type App struct {
	Port     string `koanf:"port"`      // サーバーポート（8080）
	LogLevel string `koanf:"log_level"` // debug/info/warn/error
	LogFile  string `koanf:"log_file"`  // 空なら標準出力のみ
	Timezone string `koanf:"timezone"`  // 割引期間の判定に使う（IANA名）
}

type Database struct {
	URL      string `koanf:"url"` // 指定があれば個別項目より優先
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`

	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RabbitMQ struct {
	URL      string `koanf:"url"` // 空ならイベント送信なし
	Exchange string `koanf:"exchange"`
}

type Orders struct {
	// trueなら決済時の在庫減算でマイナスを許す
	AllowNegativeSettlement bool `koanf:"allow_negative_settlement"`
}

type Inventory struct {
	LowStockThreshold int64 `koanf:"low_stock_threshold"`
}

// Load はYAML（任意）を読み、環境変数で上書きする。
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	//docker-composeなどで使う DATABASE_URL もそのまま使えるように
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == "" {
		c.App.Port = "8080"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "UTC"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "pos.events"
	}
	if c.Inventory.LowStockThreshold == 0 {
		c.Inventory.LowStockThreshold = 10
	}
}

// 必須チェック
func (c Config) Validate() error {
	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone is invalid: %w", err)
	}
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error")
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database pool sizes must not be negative")
	}
	if c.Inventory.LowStockThreshold < 0 {
		return fmt.Errorf("inventory.low_stock_threshold must not be negative")
	}
	return nil
}

// Location は割引期間の判定に使うタイムゾーン
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr はecho.Startに渡す形（":8080"）
func (c Config) Addr() string {
	if strings.HasPrefix(c.App.Port, ":") {
		return c.App.Port
	}
	return ":" + c.App.Port
}

// DSN はURL指定を優先し、無ければ個別項目から組み立てる。
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
