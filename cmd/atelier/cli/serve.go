package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atelierhq/atelier/internal/analytics"
	"github.com/atelierhq/atelier/internal/metrics"
	"github.com/atelierhq/atelier/internal/server"
	"github.com/atelierhq/atelier/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the site API server",
		Long:  "Start the HTTP server for the public marketing API and the guarded back office.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "HTTP listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP listen port (overrides config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Development mode (debug logging, CORS *)")

	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dev {
		cfg.Logging.Level = "debug"
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	// No secret, no server. There is deliberately no built-in default: a
	// known signing key would let anyone mint admin tokens.
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not set; configure it in atelier.yaml or ATELIER_AUTH_JWT_SECRET")
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()
	logger.Info("store initialized", "driver", cfg.Storage.Driver)

	exists, err := store.AdminExists(ctx)
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if !exists {
		logger.Warn("no admin account yet; register via POST /api/admin/register or run: atelier admin create")
	}

	authSvc := service.NewAuthService(store, cfg.Auth.JWTSecret)
	tracker := analytics.NewTracker(store, logger)

	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	shutdownTimeout, err := time.ParseDuration(cfg.Server.ShutdownTimeout)
	if err != nil || shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		BaseURL:         cfg.Server.BaseURL,
		CookieSecure:    cfg.Auth.CookieSecure,
		EnableMetrics:   cfg.Metrics.Enabled,
		Version:         appVersion,
	}
	srv := server.New(srvCfg, logger, store, authSvc, tracker)

	fmt.Printf("atelier %s\n", appVersion)
	fmt.Printf("  listening: http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  openapi:   http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  health:    http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe(ctx)
}
