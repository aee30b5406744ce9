package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchChangelogsTool returns the tool definition for search_changelogs
func searchChangelogsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_changelogs",
		Description: "Search indexed changelog entries by meaning using natural language queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query (e.g. 'breaking changes to authentication')",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     3,
					"minimum":     1,
					"maximum":     50,
				},
				"auto_select": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, narrow results to the strongly-matching set (falling back to the single best match)",
					"default":     false,
				},
			},
			Required: []string{"query"},
		},
	}
}

// reindexChangelogsTool returns the tool definition for reindex_changelogs
func reindexChangelogsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reindex_changelogs",
		Description: "Drop the vector index and rebuild it from the changelog source",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"entries_file": map[string]interface{}{
					"type":        "string",
					"description": "Path to a JSON or YAML file of changelog entries; overrides the configured source",
				},
			},
		},
	}
}

// removeChangelogTool returns the tool definition for remove_changelog
func removeChangelogTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_changelog",
		Description: "Remove a changelog entry's record from the vector index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"changelog_id": map[string]interface{}{
					"type":        "integer",
					"description": "Primary key of the changelog entry to remove",
					"minimum":     1,
				},
			},
			Required: []string{"changelog_id"},
		},
	}
}

// indexStatusTool returns the tool definition for index_status
func indexStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_status",
		Description: "Report embedding provider, store backend, and record count for the vector index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{},
		},
	}
}
