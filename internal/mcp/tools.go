package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/docsync/internal/indexer"
	"github.com/dshills/docsync/internal/source"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeSyncInProgress = -32002 // Another sync is already running
)

// maxReportedFailures caps the failures listed in a sync response
const maxReportedFailures = 5

// handleSyncDocs handles the sync_docs tool invocation
func (s *Server) handleSyncDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	refresh := getBoolDefault(args, "refresh", false)

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeSyncInProgress, "sync in progress", nil)
	}
	defer s.lock.Release()

	sources, err := source.Discover(ctx, s.docsDir, s.discover)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "discovery failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	stats := s.indexer.Sync(ctx, sources, &indexer.Options{Refresh: refresh})

	response := map[string]interface{}{
		"pages":            stats.Pages,
		"unchanged":        stats.Unchanged,
		"parent_updated":   stats.ParentUpdated,
		"regenerated":      stats.Regenerated,
		"failed":           stats.Failed,
		"sections_written": stats.SectionsWritten,
		"tokens_used":      stats.TokensUsed,
		"duration_ms":      stats.Duration.Milliseconds(),
	}

	var failures []map[string]interface{}
	for _, r := range stats.Results {
		if r.Outcome != indexer.OutcomeFailed {
			continue
		}
		failures = append(failures, map[string]interface{}{
			"path":  r.Path,
			"file":  r.File,
			"error": r.Err.Error(),
		})
	}
	if len(failures) > maxReportedFailures {
		response["failure_count"] = len(failures)
		failures = failures[:maxReportedFailures]
	}
	if len(failures) > 0 {
		response["failures"] = failures
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	pending := status.PendingPaths
	if pending == nil {
		pending = []string{}
	}

	response := map[string]interface{}{
		"backend":       status.Backend,
		"docs_dir":      s.docsDir,
		"sync_running":  s.lock.Held(),
		"pages":         status.Pages,
		"synced_pages":  status.SyncedPages,
		"pending_pages": status.PendingPages,
		"sections":      status.Sections,
		"pending_paths": pending,
		"store_size_mb": fmt.Sprintf("%.2f", status.SizeMB),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// arguments returns the tool arguments; a call without arguments yields an empty map
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}
