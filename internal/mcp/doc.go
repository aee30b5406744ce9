// Package mcp implements the Model Context Protocol (MCP) server for the
// changelog retrieval engine.
//
// The server exposes four tools to AI assistants:
//   - search_changelogs: Search indexed changelog entries by meaning
//   - reindex_changelogs: Drop and rebuild the vector index from the source
//   - remove_changelog: Remove one entry's record from the index
//   - index_status: Report provider, backend, and record-count diagnostics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server reads protocol messages from stdin and writes responses to
// stdout, so stdout must stay clean: all logging goes to stderr.
//
// # Tool: search_changelogs
//
//	Request:
//	{
//	  "name": "search_changelogs",
//	  "arguments": {
//	    "query": "breaking changes to authentication",
//	    "limit": 3,
//	    "auto_select": false
//	  }
//	}
//
//	Response:
//	{
//	  "query": "breaking changes to authentication",
//	  "count": 2,
//	  "results": [
//	    {
//	      "id": "changelog_14",
//	      "changelog_id": 14,
//	      "version": "2.0.0",
//	      "content": "Version 2.0.0\n\nRemoved legacy token auth",
//	      "similarity": 0.83,
//	      "match_percent": 83
//	    }
//	  ]
//	}
//
// With auto_select, results are narrowed to those strongly above the
// configured band; when none clear it, the single best match is kept so
// the caller always gets some context.
//
// # Tool: reindex_changelogs
//
// Rebuilds the whole index from the configured changelog source, or from
// an entries_file (JSON or YAML) when given. Returns indexed/failed counts
// and up to five error messages. Only one rebuild runs at a time; a
// concurrent request fails with a dedicated error code.
//
// # Tool: remove_changelog
//
// Deletes the vector record for a changelog primary key. Removing an entry
// that was never indexed succeeds.
//
// # Tool: index_status
//
// Takes no arguments and reports the embedding provider, model, dimension,
// store backend, and stored record count.
//
// # Error Codes
//
//	-32602  invalid parameters
//	-32603  internal error
//	-32001  empty query
//	-32002  no changelog source configured
//	-32003  rebuild already in progress
package mcp
