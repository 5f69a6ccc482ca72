// Package mcpserver exposes the complexity engine to editors and agents over
// the Model Context Protocol.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/ccnscan/internal/cache"
	"github.com/panbanda/ccnscan/internal/logging"
	"github.com/panbanda/ccnscan/pkg/config"
)

// Server wraps the MCP server and registers the ccnscan tools.
type Server struct {
	server *mcp.Server
	cfg    *config.Config
	cache  *cache.Cache
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration used for thresholds, exclusions and limits.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithCache reuses file results between analyze_files calls.
func WithCache(c *cache.Cache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// WithLogger sets the diagnostic logger. Stdout carries the protocol, so
// the logger must write elsewhere.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP server with all tools and prompts registered.
// Without WithConfig the config is discovered from the working directory.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: "ccnscan", Version: version}, nil),
		cfg:    config.LoadOrDefault(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_snippet",
		Description: describeSnippet(),
	}, s.handleAnalyzeSnippet)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_files",
		Description: describeFiles(),
	}, s.handleAnalyzeFiles)
}
