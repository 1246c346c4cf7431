package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/atelierhq/atelier/internal/config"
)

// loadConfig builds the effective configuration: defaults, then the YAML
// file if one is present, then ATELIER_* environment overrides.
func loadConfig() (*config.YAMLConfig, error) {
	cfg := config.DefaultYAMLConfig()

	path := cfgFile
	if path == "" {
		if _, err := os.Stat("atelier.yaml"); err == nil {
			path = "atelier.yaml"
		}
	}
	if path != "" {
		loaded, err := config.LoadYAMLConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v := viper.GetString("auth.jwt_secret"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if viper.IsSet("auth.cookie_secure") {
		cfg.Auth.CookieSecure = viper.GetBool("auth.cookie_secure")
	}
	if v := viper.GetString("server.host"); v != "" {
		cfg.Server.Host = v
	}
	if v := viper.GetInt("server.port"); v != 0 {
		cfg.Server.Port = v
	}
	if v := viper.GetString("storage.driver"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := viper.GetString("storage.dsn"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := viper.GetString("storage.data_dir"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := viper.GetString("logging.level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := viper.GetString("logging.format"); v != "" {
		cfg.Logging.Format = v
	}
	if v := viper.GetString("mcp.transport"); v != "" {
		cfg.MCP.Transport = v
	}
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.YAMLConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens the store described by the config.
func openStore(ctx context.Context, cfg *config.YAMLConfig) (*config.Store, error) {
	return config.NewStore(ctx, cfg.Storage.Driver, cfg.Storage.DSN, cfg.Storage.DataDir)
}
