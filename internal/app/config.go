package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ovestreet/storefront-backend/internal/platform/envutil"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
)

type Config struct {
	HTTPAddr     string
	MetricsAddr  string
	JWTSecretKey string
	RedisAddr    string
	RedisDB      int
	AllowOrigins []string
	Environment  string
	Version      string
}

// fileConfig is the optional yaml overlay pointed at by CONFIG_FILE. Any
// field left empty in the file keeps the environment value.
type fileConfig struct {
	HTTPAddr     string   `yaml:"http_addr"`
	MetricsAddr  string   `yaml:"metrics_addr"`
	JWTSecretKey string   `yaml:"jwt_secret_key"`
	RedisAddr    string   `yaml:"redis_addr"`
	RedisDB      *int     `yaml:"redis_db"`
	AllowOrigins []string `yaml:"allow_origins"`
	Environment  string   `yaml:"environment"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		HTTPAddr:     envutil.Str("HTTP_ADDR", ":8080"),
		MetricsAddr:  envutil.Str("METRICS_ADDR", ""),
		JWTSecretKey: envutil.Str("JWT_SECRET_KEY", "defaultsecret"),
		RedisAddr:    envutil.Str("REDIS_ADDR", ""),
		RedisDB:      envutil.Int("REDIS_DB", 0),
		AllowOrigins: splitCSV(envutil.Str("ALLOW_ORIGINS", "")),
		Environment:  envutil.Str("ENVIRONMENT", "development"),
		Version:      envutil.Str("SERVICE_VERSION", "dev"),
	}

	path := envutil.Str("CONFIG_FILE", "")
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if fc.MetricsAddr != "" {
		cfg.MetricsAddr = fc.MetricsAddr
	}
	if fc.JWTSecretKey != "" {
		cfg.JWTSecretKey = fc.JWTSecretKey
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.RedisDB != nil {
		cfg.RedisDB = *fc.RedisDB
	}
	if len(fc.AllowOrigins) > 0 {
		cfg.AllowOrigins = fc.AllowOrigins
	}
	if fc.Environment != "" {
		cfg.Environment = fc.Environment
	}
	log.Info("Loaded config overlay", "path", path)
	return cfg, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
