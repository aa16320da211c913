// Package api provides the HTTP REST API for court queues.
//
// The api package implements:
//   - The /api/queue/{area} endpoints used by the polling web UI
//   - Error kind to HTTP status mapping
//   - Permissive CORS for browser clients on other origins
//   - Per-client rate limiting of mutating requests
//   - Request metrics, /metrics and /health
//   - WebSocket upgrade at /ws?area=<area>
//
// Endpoints:
//
// Sessions:
//   - GET /api/queue/{area} - Get the area's session, creating it if needed
//   - POST /api/queue/{area} - Set the rotation mode {"mode": "classic"}
//   - GET /api/areas - List areas with a stored session
//
// Queue:
//   - POST /api/queue/{area}/teams - Add a team {"name": "Alpha"}
//   - DELETE /api/queue/{area}/teams/{teamId} - Remove a team
//   - POST /api/queue/{area}/reorder - Replace the queue {"teams": [...]}
//
// Games:
//   - POST /api/queue/{area}/start-game - Put the next two teams on court
//   - POST /api/queue/{area}/game-result - {"winner", "loser"} or {"bothLose": true}
//   - POST /api/queue/{area}/score - {"team1": 3, "team2": 5}, either optional
//
// Response Format:
//
// Session endpoints return the session itself:
//
//	{
//	  "mode": "winner-stays-on",
//	  "teams": [{"id": "...", "name": "Charlie"}],
//	  "inPlay": [{"id": "...", "name": "Alpha"}, {"id": "...", "name": "Bravo"}],
//	  "score": {"team1": 0, "team2": 0}
//	}
//
// Reorder returns {"success": true, "teams": [...]}.
//
// Error Handling:
//
// Errors are returned as {"error": "message", "code": "kind"} with status
// 404 for unknown areas, 400 for bad input, 409 when a game is already in
// progress, 422 when the session is not ready (too few teams, no mode),
// 429 when rate limited and 503 when storage is unavailable.
//
// Real-time Updates:
//
// After every successful mutation the new session is pushed to WebSocket
// subscribers of that area. Clients are still expected to poll; the push is
// best effort.
package api
