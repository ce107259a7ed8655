package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	devJWTSecret = "default-secret-min-32-chars-required!!"
	devDataKeys  = "v1:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int           `mapstructure:"DB_MAX_CONNS"`
	DBMaxIdleConns     int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime  time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	MigrationsDir      string        `mapstructure:"MIGRATIONS_DIR"`
	JWTSecret          []byte        `mapstructure:"-"`
	CORSOrigins        []string      `mapstructure:"-"`
	DataEncryptionKeys string        `mapstructure:"DATA_ENCRYPTION_KEYS"`
	CurrentDataKeyVer  string        `mapstructure:"CURRENT_DATA_KEY_VERSION"`
	RequestTimeoutSec  int           `mapstructure:"REQUEST_TIMEOUT_SEC"`
	CacheTTLSec        int           `mapstructure:"CACHE_TTL_SEC"`
	BcryptCost         int           `mapstructure:"BCRYPT_COST"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MAX_IDLE_CONNS",
	"DB_CONN_MAX_LIFETIME", "MIGRATIONS_DIR", "JWT_SECRET", "CORS_ORIGINS",
	"DATA_ENCRYPTION_KEYS", "CURRENT_DATA_KEY_VERSION", "REQUEST_TIMEOUT_SEC",
	"CACHE_TTL_SEC", "BCRYPT_COST",
}

// Load reads the environment (and an optional .env file) into a Config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("DATA_ENCRYPTION_KEYS", devDataKeys)
	v.SetDefault("CURRENT_DATA_KEY_VERSION", "v1")
	v.SetDefault("REQUEST_TIMEOUT_SEC", 30)
	v.SetDefault("CACHE_TTL_SEC", 30)
	v.SetDefault("BCRYPT_COST", 12)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env é opcional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	secret := v.GetString("JWT_SECRET")
	if len(secret) < 32 {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must have at least 32 chars in production")
		}
		secret = devJWTSecret
	}
	cfg.JWTSecret = []byte(secret)
	// a chave zerada de desenvolvimento é pública
	if cfg.IsProduction() && strings.TrimSpace(cfg.DataEncryptionKeys) == devDataKeys {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEYS must be set in production")
	}
	cfg.CORSOrigins = splitTrim(v.GetString("CORS_ORIGINS"), ",")
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
