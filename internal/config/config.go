// Package config читает настройки сервера из переменных окружения MARKETPLACE_*.
// Файл .env, если он есть, подгружается автоматически.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MARKETPLACE_"

// Config: MARKETPLACE_SERVER_ADDRESS -> server_address и т.д.
type Config struct {
	ServerAddress      string   `koanf:"server_address" validate:"required,hostname_port"`
	PostgresConn       string   `koanf:"postgres_conn" validate:"required"`
	LogLevel           string   `koanf:"log_level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogPretty          bool     `koanf:"log_pretty"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"min=1,dive,required"`
	MaxOpenConns       int      `koanf:"max_open_conns" validate:"min=0"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=1"`
}

func Default() Config {
	return Config{
		ServerAddress:      "0.0.0.0:8080",
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"*"},
		MaxOpenConns:       25,
		ReadTimeout:        15,
		WriteTimeout:       15,
	}
}

func (c Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

func (c Config) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

// Load читает окружение поверх значений по умолчанию и проверяет результат.
func Load() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// env отдаёт строку целиком: "a, b" -> ["a", "b"]
	if k.Exists("cors_allowed_origins") {
		cfg.CORSAllowedOrigins = splitList(k.String("cors_allowed_origins"))
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
