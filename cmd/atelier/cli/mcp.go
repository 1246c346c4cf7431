package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	amcp "github.com/atelierhq/atelier/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server exposing the portfolio and
contact inbox as tools. Supports stdio (default) and HTTP transports.

In stdio mode the server speaks JSON-RPC over stdin/stdout, suitable for
clients that launch it as a subprocess. In HTTP mode it listens on the given
port for streamable HTTP connections.`,
		Example: `  atelier mcp                              # stdio mode
  atelier mcp --transport http --port 3001 # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(cmd *cobra.Command, transport string, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The flag wins; otherwise mcp.transport from the config decides.
	if !cmd.Flags().Changed("transport") && cfg.MCP.Transport != "" {
		transport = cfg.MCP.Transport
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	srv := amcp.NewMCPServer(store, logger, appVersion)

	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "http":
		return srv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unknown transport %q (use stdio or http)", transport)
	}
}
