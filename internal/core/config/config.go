package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	RequestTimeout  time.Duration
	MaxBodyBytes    int64
	RateLimit       float64 // 全局 rps
	RateBurst       int
	SignInRate      float64 // 每 IP 登录/注册 rps
	SignInBurst     int
	MaxConcurrency  int64
	CORSOrigins     []string `mapstructure:"corsOrigins"`
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type Auth struct {
	Secret        string
	Issuer        string
	TokenLifetime time.Duration `mapstructure:"tokenLifetime"`
	Leeway        time.Duration
	BcryptCost    int `mapstructure:"bcryptCost"`
}

type SeedAdmin struct {
	Email     string
	Password  string
	FirstName string `mapstructure:"firstName"`
	LastName  string `mapstructure:"lastName"`
}

type Seed struct {
	Admin SeedAdmin
}

type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Config struct {
	App   App
	Log   Log
	Auth  Auth
	Seed  Seed
	DB    DB
	Redis Redis `mapstructure:"redis"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ausyexpo-backend")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeout", "10s")
	v.SetDefault("app.http.maxBodyBytes", 16<<20)
	v.SetDefault("app.http.rateLimit", 200)
	v.SetDefault("app.http.rateBurst", 400)
	v.SetDefault("app.http.signInRate", 1)
	v.SetDefault("app.http.signInBurst", 20)
	v.SetDefault("app.http.maxConcurrency", 300)
	v.SetDefault("app.http.corsOrigins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 7)
	v.SetDefault("log.file.maxAgeDays", 30)

	// 无默认值的键也要登记，否则 AutomaticEnv 覆盖不到 Unmarshal
	v.SetDefault("auth.secret", "")
	v.SetDefault("seed.admin.email", "")
	v.SetDefault("seed.admin.password", "")
	v.SetDefault("seed.admin.firstName", "System")
	v.SetDefault("seed.admin.lastName", "Administrator")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.issuer", "ausyexpo")
	v.SetDefault("auth.tokenLifetime", "60m")
	v.SetDefault("auth.leeway", "30s")
	v.SetDefault("auth.bcryptCost", 10)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.ttl", "5m")
}

// Load 读取 yaml，APP_ 前缀环境变量覆盖（APP_AUTH_SECRET → auth.secret）
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if len(c.Auth.Secret) < 32 {
		return errors.New("config: auth.secret must be at least 32 bytes")
	}
	if c.Auth.TokenLifetime <= 0 {
		return errors.New("config: auth.tokenLifetime must be positive")
	}
	if c.Seed.Admin.Email != "" && c.Seed.Admin.Password == "" {
		return errors.New("config: seed.admin.password is required when seed.admin.email is set")
	}
	return nil
}
