// Package session provides durable storage for court sessions.
//
// The session package implements:
//   - An in-memory store for demos and tests
//   - A single-document JSON file store (the data.json format)
//   - A Redis store with one key per area and an index set
//   - A SQLite store with one row per area
//
// Core Types:
//
// Store is the contract every backend satisfies: Get, Put, List, Clear and
// Close, keyed by area id. Open picks a backend from config.StoreConfig.
//
// Semantics:
//
// Area ids are case sensitive. Put is last-write-wins. Get on an unknown area
// returns an error wrapping engine.ErrNotFound; any backend failure (I/O,
// network, corrupt data) wraps engine.ErrStorageUnavailable instead, so a
// broken backend is never mistaken for an empty area. Sessions are copied on
// the way in and on the way out.
//
// Usage:
//
//	store, err := session.Open(ctx, cfg.Store)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	s, err := store.Get(ctx, "court-1")
//	if errors.Is(err, engine.ErrNotFound) {
//		s = engine.NewSession()
//	}
//	err = store.Put(ctx, "court-1", s)
//
// Concurrency:
//
// All stores are safe for concurrent use. None of them make a
// read-modify-write sequence atomic; that is left to the caller.
package session
