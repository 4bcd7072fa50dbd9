package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/docsync/internal/indexer"
	"github.com/dshills/docsync/internal/source"
	"github.com/dshills/docsync/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "docsync"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	storage storage.Storage
	indexer *indexer.Indexer
	lock    indexer.IndexLock

	docsDir  string
	discover source.DiscoverOptions
}

// NewServer creates a new MCP server that syncs the documents under docsDir.
// The caller keeps ownership of store.
func NewServer(store storage.Storage, idx *indexer.Indexer, docsDir string, opts source.DiscoverOptions) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		storage:  store,
		indexer:  idx,
		docsDir:  docsDir,
		discover: opts,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(syncDocsTool(), s.handleSyncDocs)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
