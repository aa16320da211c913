// Package service provides the gateway between transports and the rotation
// state machine.
//
// The service package implements:
//   - Get-or-create and configuration of area sessions
//   - Queue operations (add, remove, reorder)
//   - Game operations (start, record result, update score)
//   - Area listing
//
// Core Interfaces:
//
// RotationService is the interface the HTTP and MCP transports call.
// SessionStore is the storage contract it depends on; the game/session
// package provides memory, file, Redis and SQLite implementations.
//
// Architecture:
//
// Every operation follows the same path: load the area's session from the
// store, apply exactly one engine.Machine operation, persist the result and
// return it. The service owns no rotation rules of its own. Each operation is
// logged and counted in the Prometheus metrics.
//
// Usage:
//
//	store := session.NewMemoryStore()
//	svc := service.NewRotationService(store, service.WithLogger(logger))
//
//	s, err := svc.Configure(ctx, "court-1", "winner-stays-on")
//	if err != nil {
//		log.Fatal(err)
//	}
//	s, err = svc.AddTeam(ctx, "court-1", "Alpha")
//
// Concurrency:
//
// No locks are taken. Two writers on the same area may lose one update; the
// last write wins. Areas never block each other.
package service
