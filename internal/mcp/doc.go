// Package mcp implements the Model Context Protocol (MCP) server for docsync.
//
// The server exposes two tools:
//   - sync_docs: run one sync of the configured documentation directory
//   - get_status: report stored pages, sections and pending pages
//
// It is started by the serve command and speaks JSON-RPC 2.0 over stdio.
// Logs go to stderr so stdout stays reserved for protocol messages.
//
// # Tool: sync_docs
//
//	{"name": "sync_docs", "arguments": {"refresh": false}}
//
// Only one sync runs at a time. A second call while one is running fails
// with code -32002 and the message "sync in progress".
//
// # Tool: get_status
//
//	{"name": "get_status", "arguments": {}}
//
// Pending pages are those whose checksum is NULL; the next sync
// regenerates them.
package mcp
