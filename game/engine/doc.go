// Package engine provides the rotation state machine for pickup-game courts.
//
// The engine package implements:
//   - The Session model: rotation mode, waiting queue, in-play teams, score
//   - Queue mutations (add, remove, reorder)
//   - Game start (FIFO promotion of the two longest-waiting teams)
//   - Result recording under the winner-stays-on and classic policies
//   - Permissive score updates
//   - Invariant checking for stored sessions
//
// Core Types:
//
// Machine applies operations to a Session and returns the resulting Session.
// It never mutates its input and performs no I/O; loading and persisting
// sessions is the job of the service and session packages.
//
// Usage:
//
//	m := engine.NewMachine()
//
//	s, err := m.Configure(nil, engine.ModeWinnerStaysOn)
//	if err != nil {
//		log.Fatal(err)
//	}
//	s, _ = m.AddTeam(s, "Alpha")
//	s, _ = m.AddTeam(s, "Bravo")
//	s, _ = m.AddTeam(s, "Charlie")
//
//	s, err = m.StartGame(s) // Alpha and Bravo take the court
//	s, err = m.RecordResult(s, s.InPlay[0].ID, s.InPlay[1].ID, false)
//	// Alpha stays on, Charlie is promoted, Bravo waits
//
// Rotation Rules:
//
// In winner-stays-on mode the loser goes to the back of the queue and the
// court is refilled from the front of the queue. In classic mode a game always
// ends with both teams returning to the queue together and the score reset;
// the score itself records who won.
//
// Changing the mode does not clear a game in progress. That is permitted on
// purpose and is the caller's responsibility.
//
// Errors:
//
// Every failure wraps one of the package's sentinel errors (ErrGameInProgress,
// ErrDuplicateName, ...). Kind maps an error to a stable snake_case code for
// transports.
package engine
