// Package server exposes the extension API surface and window control as
// MCP tools, so agents can drive a running host without a renderer.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/browser-host/internal/app"
	"github.com/mj1618/browser-host/internal/platform"
	"github.com/mj1618/browser-host/internal/version"
	"go.uber.org/zap"
)

// Server wraps the MCP server with the app and the tab cache.
type Server struct {
	app   *app.App
	cache *TabCache
	log   *zap.Logger
	mcp   *mcpserver.MCPServer

	// appMu serializes tool calls against the app.
	appMu   sync.Mutex
	senders map[string]platform.ContentView
}

// New creates and configures an MCP server with all browser-host tools.
func New(a *app.App, cacheTTL time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		app:     a,
		cache:   NewTabCache(cacheTTL),
		log:     log,
		senders: make(map[string]platform.ContentView),
	}
	a.Messaging().OnTabsChanged(s.cache.InvalidateSession)
	s.mcp = mcpserver.NewMCPServer("browser-host", version.Version)
	s.registerTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve starts the MCP server with the given transport.
func (s *Server) Serve(transport string, port int) error {
	switch transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		s.log.Info("mcp server listening", zap.Int("port", port))
		return httpServer.Start(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", transport)
	}
}

func senderParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("view", mcp.Description("Sender view ID (default: a background page in the partition)")),
		mcp.WithString("partition", mcp.Description("Session partition of the default sender: default, incognito")),
	}
}

func (s *Server) registerTools() {
	// extensions_paths
	s.mcp.AddTool(
		mcp.NewTool("extensions_paths",
			mcp.WithDescription("List installed extensions and their install directories"),
		),
		s.handleExtensionsPaths,
	)

	// tabs_query
	s.mcp.AddTool(
		mcp.NewTool("tabs_query", append([]mcp.ToolOption{
			mcp.WithDescription("List every tab in the sender's session with active flags"),
		}, senderParams()...)...),
		s.handleTabsQuery,
	)

	// tabs_create
	s.mcp.AddTool(
		mcp.NewTool("tabs_create", append([]mcp.ToolOption{
			mcp.WithDescription("Open a tab. Without window-id the window is inferred from the sender"),
			mcp.WithNumber("window-id", mcp.Description("Target window ID")),
			mcp.WithString("url", mcp.Description("URL to open")),
			mcp.WithBoolean("active", mcp.Description("Make the new tab active (default: true)")),
		}, senderParams()...)...),
		s.handleTabsCreate,
	)

	// tabs_insert_css
	s.mcp.AddTool(
		mcp.NewTool("tabs_insert_css",
			mcp.WithDescription("Inject a stylesheet into a tab, inline or from an extension file"),
			mcp.WithNumber("tab-id", mcp.Description("Tab ID"), mcp.Required()),
			mcp.WithString("code", mcp.Description("CSS source")),
			mcp.WithString("file", mcp.Description("CSS file relative to the extension directory")),
			mcp.WithString("extension-id", mcp.Description("Extension that owns the file")),
		),
		s.handleTabsInsertCSS,
	)

	// badge_set_text
	s.mcp.AddTool(
		mcp.NewTool("badge_set_text",
			mcp.WithDescription("Set an extension's browser action badge text"),
			mcp.WithString("extension-id", mcp.Description("Extension ID"), mcp.Required()),
			mcp.WithString("text", mcp.Description("Badge text")),
			mcp.WithNumber("tab-id", mcp.Description("Limit the badge to one tab")),
		),
		s.handleBadgeSetText,
	)

	// cookies_get_all
	s.mcp.AddTool(
		mcp.NewTool("cookies_get_all", append([]mcp.ToolOption{
			mcp.WithDescription("List cookies in the sender's session matching a filter"),
			mcp.WithString("url", mcp.Description("Only cookies that would be sent to this URL")),
			mcp.WithString("name", mcp.Description("Cookie name")),
			mcp.WithString("domain", mcp.Description("Cookie domain or parent domain")),
			mcp.WithString("path", mcp.Description("Exact cookie path")),
		}, senderParams()...)...),
		s.handleCookiesGetAll,
	)

	// cookies_remove
	s.mcp.AddTool(
		mcp.NewTool("cookies_remove", append([]mcp.ToolOption{
			mcp.WithDescription("Remove a cookie by URL and name. Returns the removed cookie or null"),
			mcp.WithString("url", mcp.Description("Cookie URL"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Cookie name"), mcp.Required()),
		}, senderParams()...)...),
		s.handleCookiesRemove,
	)

	// cookies_set
	s.mcp.AddTool(
		mcp.NewTool("cookies_set", append([]mcp.ToolOption{
			mcp.WithDescription("Set a cookie and return it as stored"),
			mcp.WithString("url", mcp.Description("Cookie URL"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Cookie name")),
			mcp.WithString("value", mcp.Description("Cookie value")),
			mcp.WithString("domain", mcp.Description("Cookie domain (omit for host-only)")),
			mcp.WithString("path", mcp.Description("Cookie path")),
			mcp.WithBoolean("secure", mcp.Description("Secure flag")),
			mcp.WithBoolean("http-only", mcp.Description("HttpOnly flag")),
			mcp.WithNumber("expiration-date", mcp.Description("Expiry in seconds since the epoch (omit for a session cookie)")),
			mcp.WithString("same-site", mcp.Description("no_restriction, lax, strict, unspecified")),
		}, senderParams()...)...),
		s.handleCookiesSet,
	)

	// windows_list
	s.mcp.AddTool(
		mcp.NewTool("windows_list",
			mcp.WithDescription("List open application windows"),
		),
		s.handleWindowsList,
	)

	// window_open
	s.mcp.AddTool(
		mcp.NewTool("window_open",
			mcp.WithDescription("Open an application window"),
			mcp.WithBoolean("incognito", mcp.Description("Open an incognito window")),
		),
		s.handleWindowOpen,
	)

	// window_close
	s.mcp.AddTool(
		mcp.NewTool("window_close",
			mcp.WithDescription("Close an application window, persisting its placement"),
			mcp.WithNumber("window-id", mcp.Description("Window ID"), mcp.Required()),
		),
		s.handleWindowClose,
	)
}
