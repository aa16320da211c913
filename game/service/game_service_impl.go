package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wricardo/courtqueue/game/engine"
	"github.com/wricardo/courtqueue/logging"
	"github.com/wricardo/courtqueue/metrics"
)

// rotationServiceImpl implements the RotationService interface. It holds no
// locks: concurrent writers to the same area are last-write-wins.
type rotationServiceImpl struct {
	store         SessionStore
	machine       *engine.Machine
	logger        *slog.Logger
	strictReorder bool
}

// Option configures the rotation service
type Option func(*rotationServiceImpl)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *rotationServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMachine replaces the state machine, typically to inject team ids in tests
func WithMachine(m *engine.Machine) Option {
	return func(s *rotationServiceImpl) {
		if m != nil {
			s.machine = m
		}
	}
}

// WithStrictReorder makes ReorderQueue reject anything that is not a
// permutation of the current queue
func WithStrictReorder(strict bool) Option {
	return func(s *rotationServiceImpl) {
		s.strictReorder = strict
	}
}

// NewRotationService creates a new rotation service instance
func NewRotationService(store SessionStore, opts ...Option) RotationService {
	s := &rotationServiceImpl{
		store:   store,
		machine: engine.NewMachine(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the area's session, creating and storing an empty one
// on first access
func (s *rotationServiceImpl) GetOrCreate(ctx context.Context, areaID string) (*engine.Session, error) {
	if err := checkArea(areaID); err != nil {
		return nil, s.finish(OpGetOrCreate, areaID, err)
	}

	sess, err := s.store.Get(ctx, areaID)
	if err == nil {
		return sess, s.finish(OpGetOrCreate, areaID, nil)
	}
	if !errors.Is(err, engine.ErrNotFound) || errors.Is(err, engine.ErrStorageUnavailable) {
		return nil, s.finish(OpGetOrCreate, areaID, fmt.Errorf("failed to load session: %w", err))
	}

	sess = s.machine.Ensure(nil)
	if err := s.store.Put(ctx, areaID, sess); err != nil {
		return nil, s.finish(OpGetOrCreate, areaID, fmt.Errorf("failed to save session: %w", err))
	}
	metrics.AreasGauge.Inc()
	s.logger.Info("session created", "area", areaID)
	return sess, s.finish(OpGetOrCreate, areaID, nil)
}

// Configure sets the area's rotation mode, creating the session if needed
func (s *rotationServiceImpl) Configure(ctx context.Context, areaID, mode string) (*engine.Session, error) {
	if err := checkArea(areaID); err != nil {
		return nil, s.finish(OpConfigure, areaID, err)
	}
	m, err := engine.ParseMode(mode)
	if err != nil {
		return nil, s.finish(OpConfigure, areaID, err)
	}

	current, err := s.store.Get(ctx, areaID)
	created := false
	if err != nil {
		if !errors.Is(err, engine.ErrNotFound) || errors.Is(err, engine.ErrStorageUnavailable) {
			return nil, s.finish(OpConfigure, areaID, fmt.Errorf("failed to load session: %w", err))
		}
		current, created = nil, true
	}

	next, err := s.machine.Configure(current, m)
	if err != nil {
		return nil, s.finish(OpConfigure, areaID, err)
	}
	if err := s.store.Put(ctx, areaID, next); err != nil {
		return nil, s.finish(OpConfigure, areaID, fmt.Errorf("failed to save session: %w", err))
	}
	if created {
		metrics.AreasGauge.Inc()
	}
	if current != nil && current.GameInProgress() && current.Mode != m {
		s.logger.Warn("mode changed during a game", "area", areaID, "from", current.Mode.String(), "to", m.String())
	}
	return next, s.finish(OpConfigure, areaID, nil)
}

// AddTeam appends a team to the back of the queue
func (s *rotationServiceImpl) AddTeam(ctx context.Context, areaID, name string) (*engine.Session, error) {
	// a blank name is rejected before the area is looked up
	if strings.TrimSpace(name) == "" {
		return nil, s.finish(OpAddTeam, areaID, fmt.Errorf("%w: team name is required", engine.ErrInvalidInput))
	}
	return s.mutate(ctx, OpAddTeam, areaID, func(sess *engine.Session) (*engine.Session, error) {
		return s.machine.AddTeam(sess, name)
	})
}

// RemoveTeam drops a team from the queue and the court
func (s *rotationServiceImpl) RemoveTeam(ctx context.Context, areaID, teamID string) (*engine.Session, error) {
	return s.mutate(ctx, OpRemoveTeam, areaID, func(sess *engine.Session) (*engine.Session, error) {
		return s.machine.RemoveTeam(sess, teamID), nil
	})
}

// ReorderQueue replaces the queue order
func (s *rotationServiceImpl) ReorderQueue(ctx context.Context, areaID string, order []engine.Team) (*ReorderResult, error) {
	sess, err := s.mutate(ctx, OpReorderQueue, areaID, func(sess *engine.Session) (*engine.Session, error) {
		if s.strictReorder {
			return s.machine.ReorderQueueStrict(sess, order)
		}
		return s.machine.ReorderQueue(sess, order)
	})
	if err != nil {
		return nil, err
	}
	return &ReorderResult{Success: true, Teams: sess.Queue, Session: sess}, nil
}

// StartGame promotes the two longest-waiting teams
func (s *rotationServiceImpl) StartGame(ctx context.Context, areaID string) (*engine.Session, error) {
	return s.mutate(ctx, OpStartGame, areaID, s.machine.StartGame)
}

// RecordResult applies a finished game under the area's mode
func (s *rotationServiceImpl) RecordResult(ctx context.Context, areaID string, result GameResult) (*engine.Session, error) {
	return s.mutate(ctx, OpRecordResult, areaID, func(sess *engine.Session) (*engine.Session, error) {
		return s.machine.RecordResult(sess, result.Winner, result.Loser, result.BothLose)
	})
}

// UpdateScore sets the supplied score slots
func (s *rotationServiceImpl) UpdateScore(ctx context.Context, areaID string, update ScoreUpdate) (*engine.Session, error) {
	team1, team2 := update.values()
	return s.mutate(ctx, OpUpdateScore, areaID, func(sess *engine.Session) (*engine.Session, error) {
		return s.machine.UpdateScore(sess, team1, team2), nil
	})
}

// ListAreas returns every area with a stored session
func (s *rotationServiceImpl) ListAreas(ctx context.Context) ([]string, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, s.finish(OpListAreas, "", fmt.Errorf("failed to list areas: %w", err))
	}
	metrics.AreasGauge.Set(float64(len(ids)))
	return ids, s.finish(OpListAreas, "", nil)
}

// mutate loads an existing session, applies fn and stores the result
func (s *rotationServiceImpl) mutate(ctx context.Context, op, areaID string, fn func(*engine.Session) (*engine.Session, error)) (*engine.Session, error) {
	if err := checkArea(areaID); err != nil {
		return nil, s.finish(op, areaID, err)
	}

	current, err := s.store.Get(ctx, areaID)
	if err != nil {
		return nil, s.finish(op, areaID, fmt.Errorf("failed to load session: %w", err))
	}

	next, err := fn(current)
	if err != nil {
		return nil, s.finish(op, areaID, err)
	}

	if err := s.store.Put(ctx, areaID, next); err != nil {
		return nil, s.finish(op, areaID, fmt.Errorf("failed to save session: %w", err))
	}
	return next, s.finish(op, areaID, nil)
}

// finish logs and counts the outcome of an operation and returns err unchanged
func (s *rotationServiceImpl) finish(op, areaID string, err error) error {
	kind := engine.Kind(err)
	metrics.RecordOperation(op, kind)

	switch kind {
	case "":
		s.logger.Debug("operation", "op", op, "area", areaID)
	case engine.KindStorageUnavailable, engine.KindInternal:
		s.logger.Error("operation failed", "op", op, "area", areaID, "kind", kind, "error", err)
	default:
		s.logger.Warn("operation rejected", "op", op, "area", areaID, "kind", kind, "error", err)
	}
	return err
}

func checkArea(areaID string) error {
	if areaID == "" {
		return fmt.Errorf("%w: area id is required", engine.ErrInvalidInput)
	}
	return nil
}
