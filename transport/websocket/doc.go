// Package websocket provides best-effort push of session updates.
//
// The websocket package implements:
//   - Area-scoped subscriptions (one connection follows one area)
//   - Broadcast of the full session after every successful mutation
//   - A reset event sent to every client when the store is cleared
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// A central Hub owns all subscriptions and runs in its own goroutine. Every
// change to the subscription set and every broadcast goes through the hub's
// channels, so the client map is only touched by Run. Each connection has a
// read pump and a write pump goroutine.
//
// Message Protocol:
//
// Outgoing messages are JSON: {"area": "court-1", "event": "session_update",
// "session": {...}}. The session uses the same shape as the REST API. Incoming
// messages are read and discarded.
//
// Delivery:
//
// Push supplements polling and never replaces it. Broadcasts never block the
// caller: when the hub is backed up the update is dropped, and a subscriber
// whose buffer is full is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//	defer hub.Stop()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("area"))
//	})
//	hub.BroadcastSession("court-1", session)
package websocket
