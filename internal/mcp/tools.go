package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/relnote/logvec/internal/indexer"
	"github.com/relnote/logvec/internal/source"
	"github.com/relnote/logvec/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery        = -32001 // Query parameter is empty
	ErrorCodeNoSource          = -32002 // No changelog source configured or given
	ErrorCodeRebuildInProgress = -32003 // Another rebuild is already running
)

// handleSearchChangelogs handles the search_changelogs tool invocation
func (s *Server) handleSearchChangelogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 0)
	if limit < 0 || limit > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 50", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	autoSelect := getBoolDefault(args, "auto_select", false)

	results, err := s.engine.Search(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if autoSelect {
		results = types.AutoSelect(results, s.band)
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": formatResults(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleReindexChangelogs handles the reindex_changelogs tool invocation
func (s *Server) handleReindexChangelogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	src := s.source
	if path := getStringDefault(args, "entries_file", ""); path != "" {
		loaded, err := source.LoadFile(path)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "could not load entries file", map[string]interface{}{
				"param": "entries_file",
				"error": err.Error(),
			})
		}
		src = loaded
	}
	if src == nil {
		return nil, newMCPError(ErrorCodeNoSource, "no changelog source configured; pass entries_file", nil)
	}

	stats, err := s.engine.IndexAll(ctx, src, nil)
	if err != nil {
		if errors.Is(err, indexer.ErrRebuildInProgress) {
			return nil, newMCPError(ErrorCodeRebuildInProgress, "a rebuild is already running", nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "rebuild failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"total_entries": stats.TotalEntries,
		"indexed":       stats.Indexed,
		"failed":        stats.Failed,
		"duration_ms":   stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		errs := stats.ErrorMessages
		if len(errs) > 5 {
			response["error_count"] = len(errs)
			errs = errs[:5]
		}
		response["errors"] = errs
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRemoveChangelog handles the remove_changelog tool invocation
func (s *Server) handleRemoveChangelog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	changelogID := getIntDefault(args, "changelog_id", 0)
	if changelogID <= 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "changelog_id must be a positive integer", map[string]interface{}{
			"param": "changelog_id",
			"value": changelogID,
		})
	}

	if err := s.engine.RemoveEntry(ctx, int64(changelogID)); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "remove failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"removed":      true,
		"changelog_id": changelogID,
	})), nil
}

// handleIndexStatus handles the index_status tool invocation
func (s *Server) handleIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.engine.Status(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"provider":      status.Provider,
		"model":         status.Model,
		"dimension":     status.Dimension,
		"store_backend": status.StoreBackend,
		"records":       status.Records,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// formatResults renders search results for tool output. Similarity is
// reported both raw and as the consumer-facing match percentage.
func formatResults(results []types.SearchResult) []map[string]interface{} {
	out := make([]map[string]interface{}, len(results))
	for i, r := range results {
		entry := map[string]interface{}{
			"id":            r.ID,
			"changelog_id":  r.ChangelogID,
			"version":       r.Version,
			"content":       r.Content,
			"similarity":    r.Similarity,
			"match_percent": r.DisplayPercent(),
		}
		if r.Product != "" {
			entry["product"] = r.Product
		}
		if !r.CreatedAt.IsZero() {
			entry["created_at"] = r.CreatedAt.Format(time.RFC3339)
		}
		out[i] = entry
	}
	return out
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
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

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
