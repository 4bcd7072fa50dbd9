package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// syncDocsTool returns the tool definition for sync_docs
func syncDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "sync_docs",
		Description: "Sync documentation pages and section embeddings into the store",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"refresh": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, regenerate every page ignoring checksums",
					"default":     false,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report stored pages, sections, and pages waiting for regeneration",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
