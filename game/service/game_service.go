package service

import (
	"context"

	"github.com/wricardo/courtqueue/game/engine"
)

// RotationService defines every operation the transports expose. Each call
// loads one area's session, applies one state machine operation and persists
// the result.
type RotationService interface {
	// Session lifecycle
	GetOrCreate(ctx context.Context, areaID string) (*engine.Session, error)
	Configure(ctx context.Context, areaID, mode string) (*engine.Session, error)

	// Queue operations
	AddTeam(ctx context.Context, areaID, name string) (*engine.Session, error)
	RemoveTeam(ctx context.Context, areaID, teamID string) (*engine.Session, error)
	ReorderQueue(ctx context.Context, areaID string, order []engine.Team) (*ReorderResult, error)

	// Game operations
	StartGame(ctx context.Context, areaID string) (*engine.Session, error)
	RecordResult(ctx context.Context, areaID string, result GameResult) (*engine.Session, error)
	UpdateScore(ctx context.Context, areaID string, update ScoreUpdate) (*engine.Session, error)

	// Areas
	ListAreas(ctx context.Context) ([]string, error)
}

// SessionStore defines session storage operations
type SessionStore interface {
	Get(ctx context.Context, areaID string) (*engine.Session, error)
	Put(ctx context.Context, areaID string, s *engine.Session) error
	List(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}
