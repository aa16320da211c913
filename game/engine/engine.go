package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxIDAttempts bounds regeneration when a generator returns an id already in use
const maxIDAttempts = 8

// Machine applies rotation operations to sessions. It holds no session state;
// every operation works on a copy of its input and returns the result, so a
// failed operation never leaves a half-mutated session behind.
type Machine struct {
	newID func() string
}

// Option configures a Machine
type Option func(*Machine)

// WithIDGenerator overrides the team id generator
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewMachine creates a state machine that issues UUIDv4 team ids
func NewMachine(opts ...Option) *Machine {
	m := &Machine{newID: uuid.NewString}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure returns s unchanged, or a fresh unconfigured session when s is nil
func (m *Machine) Ensure(s *Session) *Session {
	if s == nil {
		return NewSession()
	}
	return s
}

// Configure sets the rotation mode. A nil session is initialized empty; an
// existing one keeps its queue, in-play teams and score.
func (m *Machine) Configure(s *Session, mode Mode) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrNotConfigurable, string(mode))
	}

	var next *Session
	if s == nil {
		next = NewSession()
	} else {
		next = s.Clone()
		next.normalize()
	}
	next.Mode = mode
	return next, nil
}

// AddTeam appends a new team with the trimmed name to the back of the queue
func (m *Machine) AddTeam(s *Session, name string) (*Session, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	if s.HasName(trimmed) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, trimmed)
	}

	id, err := m.uniqueID(s)
	if err != nil {
		return nil, err
	}

	next := s.Clone()
	next.normalize()
	next.Queue = append(next.Queue, Team{ID: id, Name: trimmed})
	return next, nil
}

// RemoveTeam drops the team from both the queue and the court. Unknown ids are
// ignored. A vacated court slot stays empty until the next StartGame.
func (m *Machine) RemoveTeam(s *Session, teamID string) *Session {
	next := s.Clone()
	next.Queue = withoutTeam(next.Queue, teamID)
	next.InPlay = withoutTeam(next.InPlay, teamID)
	return next
}

// ReorderQueue replaces the queue wholesale. The caller is trusted to supply a
// permutation of the current queue; a nil order means the payload was not a
// list at all.
func (m *Machine) ReorderQueue(s *Session, order []Team) (*Session, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: queue order must be a list", ErrInvalidInput)
	}

	next := s.Clone()
	next.Queue = make([]Team, len(order))
	copy(next.Queue, order)
	return next, nil
}

// ReorderQueueStrict is ReorderQueue with a permutation check: order must hold
// exactly the ids of the current queue, each once.
func (m *Machine) ReorderQueueStrict(s *Session, order []Team) (*Session, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: queue order must be a list", ErrInvalidInput)
	}
	if len(order) != len(s.Queue) {
		return nil, fmt.Errorf("%w: expected %d teams, got %d", ErrInvalidInput, len(s.Queue), len(order))
	}

	seen := make(map[string]bool, len(order))
	resolved := make([]Team, 0, len(order))
	for _, t := range order {
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: team %q listed twice", ErrInvalidInput, t.ID)
		}
		seen[t.ID] = true

		queued, ok := s.FindQueued(t.ID)
		if !ok {
			return nil, fmt.Errorf("%w: team %q is not queued", ErrInvalidInput, t.ID)
		}
		// stored names win over whatever the caller echoed back
		resolved = append(resolved, queued)
	}

	return m.ReorderQueue(s, resolved)
}

// StartGame moves the longest-waiting teams onto the court and zeroes the
// score. At least two teams must be queued. When a removal left one team on
// the court, only the free slot is filled.
func (m *Machine) StartGame(s *Session) (*Session, error) {
	if s.GameInProgress() {
		return nil, ErrGameInProgress
	}
	if len(s.Queue) < MaxInPlay {
		return nil, fmt.Errorf("%w (queued: %d)", ErrInsufficientTeams, len(s.Queue))
	}

	free := MaxInPlay - len(s.InPlay)
	next := s.Clone()
	next.InPlay = append(next.InPlay, next.Queue[:free]...)
	next.Queue = next.Queue[free:]
	next.Score = Score{}
	return next, nil
}

// RecordResult applies a finished game according to the session's mode.
//
// WinnerStaysOn: the loser (or both teams when bothLose) goes to the back of
// the queue, then the court is refilled from the front of the queue.
// Classic: only bothLose is accepted; both teams requeue and the score resets.
func (m *Machine) RecordResult(s *Session, winnerID, loserID string, bothLose bool) (*Session, error) {
	switch s.Mode {
	case ModeWinnerStaysOn:
		return m.recordWinnerStaysOn(s, winnerID, loserID, bothLose)
	case ModeClassic:
		return m.recordClassic(s, bothLose)
	case ModeUnset:
		return nil, ErrModeNotSet
	default:
		return nil, fmt.Errorf("%w: stored mode %q is not recognized", ErrModeNotSet, string(s.Mode))
	}
}

func (m *Machine) recordWinnerStaysOn(s *Session, winnerID, loserID string, bothLose bool) (*Session, error) {
	next := s.Clone()

	if bothLose {
		next.Queue = append(next.Queue, next.InPlay...)
		next.InPlay = []Team{}
	} else {
		if winnerID == "" || loserID == "" {
			return nil, fmt.Errorf("%w: winner and loser are required", ErrInvalidGameResult)
		}
		if winnerID == loserID {
			return nil, fmt.Errorf("%w: winner and loser must differ", ErrInvalidTeamReference)
		}
		winner, okW := s.FindInPlay(winnerID)
		loser, okL := s.FindInPlay(loserID)
		if !okW || !okL {
			return nil, ErrInvalidTeamReference
		}

		next.Queue = append(next.Queue, loser)
		next.InPlay = []Team{winner}
	}

	for len(next.InPlay) < MaxInPlay && len(next.Queue) > 0 {
		next.InPlay = append(next.InPlay, next.Queue[0])
		next.Queue = next.Queue[1:]
	}
	return next, nil
}

func (m *Machine) recordClassic(s *Session, bothLose bool) (*Session, error) {
	if !bothLose {
		return nil, fmt.Errorf("%w for classic mode", ErrInvalidGameResult)
	}

	next := s.Clone()
	next.Queue = append(next.Queue, next.InPlay...)
	next.InPlay = []Team{}
	next.Score = Score{}
	return next, nil
}

// UpdateScore sets either score slot from a raw caller value (see ClampScore).
// A nil value leaves that slot unchanged. It never fails.
func (m *Machine) UpdateScore(s *Session, team1, team2 any) *Session {
	next := s.Clone()
	if team1 != nil {
		next.Score.Team1 = ClampScore(team1)
	}
	if team2 != nil {
		next.Score.Team2 = ClampScore(team2)
	}
	return next
}

// uniqueID draws ids until one is not used by any team in s
func (m *Machine) uniqueID(s *Session) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := m.newID()
		if id == "" {
			continue
		}
		_, queued := s.FindQueued(id)
		_, playing := s.FindInPlay(id)
		if !queued && !playing {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique team id after %d attempts", maxIDAttempts)
}
