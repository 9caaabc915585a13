package cmd

import (
	"fmt"
	"time"

	"github.com/mj1618/browser-host/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing browser-host tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes the extension API
surface (tabs, cookies, badge text) and window control as tools.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  browser-host serve
  browser-host serve --transport streamable-http --port 8080
  browser-host serve --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: stdio, streamable-http (default from config)")
	serveCmd.Flags().Int("port", 0, "HTTP port for streamable-http transport (default from config)")
	serveCmd.Flags().Int("cache-ttl", -1, "Tab query cache TTL in milliseconds (0 to disable, default from config)")
	serveCmd.Flags().Bool("window", true, "Open an application window at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, log, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config().MCP
	if transport, _ := cmd.Flags().GetString("transport"); transport != "" {
		cfg.Transport = transport
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if ttl, _ := cmd.Flags().GetInt("cache-ttl"); ttl >= 0 {
		cfg.CacheTTL = time.Duration(ttl) * time.Millisecond
	}

	if open, _ := cmd.Flags().GetBool("window"); open {
		if _, err := a.NewWindow(false); err != nil {
			return fmt.Errorf("failed to open window: %w", err)
		}
	}

	srv := server.New(a, cfg.CacheTTL, log.Named("mcp"))
	return srv.Serve(cfg.Transport, cfg.Port)
}
