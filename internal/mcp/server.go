package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/relnote/logvec"
	"github.com/relnote/logvec/internal/config"
	"github.com/relnote/logvec/internal/source"
)

const (
	// ServerName is the MCP server name
	ServerName = "logvec-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	engine *logvec.Engine
	source source.Source
	band   float64
}

// NewServer creates a new MCP server instance. The source is optional;
// when nil, reindex_changelogs requires an entries_file argument.
func NewServer(cfg *config.Config, src source.Source) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	engine, err := logvec.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:    mcpServer,
		engine: engine,
		source: src,
		band:   cfg.Search.AutoSelectBand,
	}
	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.engine.Close() }()
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchChangelogsTool(), s.handleSearchChangelogs)
	s.mcp.AddTool(reindexChangelogsTool(), s.handleReindexChangelogs)
	s.mcp.AddTool(removeChangelogTool(), s.handleRemoveChangelog)
	s.mcp.AddTool(indexStatusTool(), s.handleIndexStatus)
}
