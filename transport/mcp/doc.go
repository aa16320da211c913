// Package mcp provides the Model Context Protocol interface for court queues.
//
// The mcp package implements:
//   - A thin MCP server whose tools proxy to the REST API
//   - Tool definitions for every queue and game operation
//   - Plain-text rendering of sessions for agents
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - list_areas: List areas that have a session
//   - get_queue: Get (and lazily create) an area's session
//   - configure_area: Set the rotation mode
//   - add_team / remove_team: Manage the queue
//   - reorder_queue: Replace the queue order by team id
//   - start_game: Put the next two teams on the court
//   - record_result: Finish a game under the area's mode
//   - update_score: Set the live score
//   - rotation_rules: Explain the rotation modes
//
// Transport Modes:
//
// The server is served two ways by the main binary:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp forwarding to GetMCPServer().HandleMessage
//
// Because every tool goes through the REST API, MCP clients see exactly the
// same validation, persistence and WebSocket pushes as browsers do.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:3001")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
