package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequentialIDs returns a generator yielding t1, t2, t3, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func newTestMachine() *Machine {
	return NewMachine(WithIDGenerator(sequentialIDs()))
}

// sessionWithTeams configures mode and queues the named teams in order
func sessionWithTeams(t *testing.T, m *Machine, mode Mode, names ...string) *Session {
	t.Helper()
	s, err := m.Configure(nil, mode)
	require.NoError(t, err)
	for _, name := range names {
		s, err = m.AddTeam(s, name)
		require.NoError(t, err)
	}
	return s
}

func names(teams []Team) []string {
	out := make([]string, len(teams))
	for i, t := range teams {
		out[i] = t.Name
	}
	return out
}

func TestMachine_Ensure(t *testing.T) {
	m := newTestMachine()

	t.Run("nil session is initialized", func(t *testing.T) {
		s := m.Ensure(nil)
		require.NotNil(t, s)
		assert.Equal(t, ModeUnset, s.Mode)
		assert.Empty(t, s.Queue)
		assert.Empty(t, s.InPlay)
		assert.Equal(t, Score{}, s.Score)
	})

	t.Run("existing session is untouched", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "Alpha")
		got := m.Ensure(s)
		assert.Same(t, s, got)
	})
}

func TestMachine_Configure(t *testing.T) {
	m := newTestMachine()

	t.Run("new session", func(t *testing.T) {
		s, err := m.Configure(nil, ModeWinnerStaysOn)
		require.NoError(t, err)
		assert.Equal(t, ModeWinnerStaysOn, s.Mode)
		assert.NotNil(t, s.Queue)
		assert.NotNil(t, s.InPlay)
	})

	t.Run("existing session keeps teams and game", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeWinnerStaysOn, "A", "B", "C")
		s, err := m.StartGame(s)
		require.NoError(t, err)
		s.Score = Score{Team1: 4, Team2: 2}

		got, err := m.Configure(s, ModeClassic)
		require.NoError(t, err)
		assert.Equal(t, ModeClassic, got.Mode)
		assert.Equal(t, []string{"A", "B"}, names(got.InPlay))
		assert.Equal(t, []string{"C"}, names(got.Queue))
		assert.Equal(t, Score{Team1: 4, Team2: 2}, got.Score)
	})

	t.Run("nil slices are backfilled", func(t *testing.T) {
		got, err := m.Configure(&Session{}, ModeClassic)
		require.NoError(t, err)
		assert.NotNil(t, got.Queue)
		assert.NotNil(t, got.InPlay)
	})

	t.Run("unrecognized mode", func(t *testing.T) {
		for _, mode := range []Mode{ModeUnset, "king-of-the-court", "Classic"} {
			_, err := m.Configure(nil, mode)
			assert.ErrorIs(t, err, ErrNotConfigurable, "mode %q", mode)
		}
	})
}

func TestMachine_AddTeam(t *testing.T) {
	m := newTestMachine()

	t.Run("appends trimmed name with fresh id", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "Alpha")
		got, err := m.AddTeam(s, "  Bravo  ")
		require.NoError(t, err)
		require.Len(t, got.Queue, 2)
		assert.Equal(t, "Bravo", got.Queue[1].Name)
		assert.NotEqual(t, got.Queue[0].ID, got.Queue[1].ID)
		assert.Len(t, s.Queue, 1, "input session must not change")
	})

	t.Run("empty name", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic)
		for _, name := range []string{"", "   ", "\t\n"} {
			_, err := m.AddTeam(s, name)
			assert.ErrorIs(t, err, ErrInvalidInput)
		}
	})

	t.Run("duplicate name after trim", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "Alpha")
		_, err := m.AddTeam(s, " Alpha ")
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("duplicate of in-play team", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "Alpha", "Bravo")
		s, err := m.StartGame(s)
		require.NoError(t, err)
		_, err = m.AddTeam(s, "Bravo")
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("names are case-sensitive", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "Alpha")
		_, err := m.AddTeam(s, "alpha")
		assert.NoError(t, err)
	})

	t.Run("colliding generator ids are skipped", func(t *testing.T) {
		ids := []string{"x", "x", "y"}
		i := 0
		mc := NewMachine(WithIDGenerator(func() string {
			id := ids[i]
			i++
			return id
		}))
		s, err := mc.AddTeam(NewSession(), "A")
		require.NoError(t, err)
		s, err = mc.AddTeam(s, "B")
		require.NoError(t, err)
		assert.Equal(t, "y", s.Queue[1].ID)
	})

	t.Run("generator that never yields a fresh id", func(t *testing.T) {
		mc := NewMachine(WithIDGenerator(func() string { return "same" }))
		s, err := mc.AddTeam(NewSession(), "A")
		require.NoError(t, err)
		_, err = mc.AddTeam(s, "B")
		assert.Error(t, err)
	})
}

func TestMachine_RemoveTeam(t *testing.T) {
	m := newTestMachine()

	t.Run("from queue", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A", "B", "C")
		got := m.RemoveTeam(s, s.Queue[1].ID)
		assert.Equal(t, []string{"A", "C"}, names(got.Queue))
	})

	t.Run("from court leaves slot empty", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeWinnerStaysOn, "A", "B", "C")
		s, err := m.StartGame(s)
		require.NoError(t, err)

		got := m.RemoveTeam(s, s.InPlay[0].ID)
		assert.Equal(t, []string{"B"}, names(got.InPlay))
		assert.Equal(t, []string{"C"}, names(got.Queue), "no auto-promotion")
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A", "B")
		got := m.RemoveTeam(s, "does-not-exist")
		assert.Equal(t, s, got)
	})
}

func TestMachine_ReorderQueue(t *testing.T) {
	m := newTestMachine()

	t.Run("replaces queue wholesale", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A", "B", "C")
		order := []Team{s.Queue[2], s.Queue[0], s.Queue[1]}
		got, err := m.ReorderQueue(s, order)
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "A", "B"}, names(got.Queue))
	})

	t.Run("empty list is accepted", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A")
		got, err := m.ReorderQueue(s, []Team{})
		require.NoError(t, err)
		assert.Empty(t, got.Queue)
	})

	t.Run("non-list payload", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A")
		_, err := m.ReorderQueue(s, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("caller list is copied", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A", "B")
		order := []Team{s.Queue[1], s.Queue[0]}
		got, err := m.ReorderQueue(s, order)
		require.NoError(t, err)
		order[0].Name = "mutated"
		assert.Equal(t, "B", got.Queue[0].Name)
	})
}

func TestMachine_ReorderQueueStrict(t *testing.T) {
	m := newTestMachine()
	s := sessionWithTeams(t, m, ModeClassic, "A", "B", "C")

	t.Run("permutation", func(t *testing.T) {
		order := []Team{{ID: s.Queue[1].ID}, {ID: s.Queue[2].ID}, {ID: s.Queue[0].ID}}
		got, err := m.ReorderQueueStrict(s, order)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C", "A"}, names(got.Queue), "names come from the stored queue")
	})

	tests := []struct {
		name  string
		order []Team
	}{
		{"nil", nil},
		{"too short", []Team{s.Queue[0], s.Queue[1]}},
		{"duplicate", []Team{s.Queue[0], s.Queue[0], s.Queue[1]}},
		{"unknown id", []Team{s.Queue[0], s.Queue[1], {ID: "ghost", Name: "Ghost"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ReorderQueueStrict(s, tt.order)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestMachine_StartGame(t *testing.T) {
	m := newTestMachine()

	t.Run("promotes front two and resets score", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A", "B", "C", "D")
		s.Score = Score{Team1: 9, Team2: 9}
		got, err := m.StartGame(s)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, names(got.InPlay))
		assert.Equal(t, []string{"C", "D"}, names(got.Queue))
		assert.Equal(t, Score{}, got.Score)
	})

	t.Run("fills a half-empty court", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A", "B", "C", "D")
		s, err := m.StartGame(s)
		require.NoError(t, err)
		s = m.RemoveTeam(s, s.InPlay[0].ID)

		got, err := m.StartGame(s)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C"}, names(got.InPlay))
		assert.Equal(t, []string{"D"}, names(got.Queue))
	})

	t.Run("half-empty court still needs two queued teams", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A", "B", "C")
		s, err := m.StartGame(s)
		require.NoError(t, err)
		s = m.RemoveTeam(s, s.InPlay[0].ID)

		_, err = m.StartGame(s)
		assert.ErrorIs(t, err, ErrInsufficientTeams)
	})

	t.Run("insufficient teams", func(t *testing.T) {
		for _, queued := range [][]string{{}, {"A"}} {
			s := sessionWithTeams(t, m, ModeClassic, queued...)
			_, err := m.StartGame(s)
			assert.ErrorIs(t, err, ErrInsufficientTeams)
		}
	})

	t.Run("game in progress regardless of queue", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A", "B", "C", "D", "E")
		s, err := m.StartGame(s)
		require.NoError(t, err)
		_, err = m.StartGame(s)
		assert.ErrorIs(t, err, ErrGameInProgress)

		s.Queue = nil
		_, err = m.StartGame(s)
		assert.ErrorIs(t, err, ErrGameInProgress)
	})
}

func TestMachine_RecordResult_WinnerStaysOn(t *testing.T) {
	m := newTestMachine()

	start := func(t *testing.T, teams ...string) *Session {
		t.Helper()
		s := sessionWithTeams(t, m, ModeWinnerStaysOn, teams...)
		s, err := m.StartGame(s)
		require.NoError(t, err)
		return s
	}

	t.Run("winner stays, loser requeues, next team promoted", func(t *testing.T) {
		s := start(t, "A", "B", "C")
		assert.Equal(t, []string{"A", "B"}, names(s.InPlay))
		assert.Equal(t, []string{"C"}, names(s.Queue))

		got, err := m.RecordResult(s, s.InPlay[0].ID, s.InPlay[1].ID, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "C"}, names(got.InPlay))
		assert.Equal(t, []string{"B"}, names(got.Queue))
	})

	t.Run("second slot winner", func(t *testing.T) {
		s := start(t, "A", "B", "C", "D")
		got, err := m.RecordResult(s, s.InPlay[1].ID, s.InPlay[0].ID, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C"}, names(got.InPlay))
		assert.Equal(t, []string{"D", "A"}, names(got.Queue))
	})

	t.Run("loser returns immediately when queue is empty", func(t *testing.T) {
		s := start(t, "A", "B")
		got, err := m.RecordResult(s, s.InPlay[0].ID, s.InPlay[1].ID, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, names(got.InPlay))
		assert.Empty(t, got.Queue)
	})

	t.Run("both lose requeues in court order and refills", func(t *testing.T) {
		s := start(t, "A", "B", "C", "D", "E")
		got, err := m.RecordResult(s, "", "", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "D"}, names(got.InPlay))
		assert.Equal(t, []string{"E", "A", "B"}, names(got.Queue))
	})

	t.Run("score is untouched", func(t *testing.T) {
		s := start(t, "A", "B", "C")
		s.Score = Score{Team1: 11, Team2: 7}
		got, err := m.RecordResult(s, s.InPlay[0].ID, s.InPlay[1].ID, false)
		require.NoError(t, err)
		assert.Equal(t, Score{Team1: 11, Team2: 7}, got.Score)
	})

	t.Run("missing ids", func(t *testing.T) {
		s := start(t, "A", "B")
		_, err := m.RecordResult(s, s.InPlay[0].ID, "", false)
		assert.ErrorIs(t, err, ErrInvalidGameResult)
		_, err = m.RecordResult(s, "", "", false)
		assert.ErrorIs(t, err, ErrInvalidGameResult)
	})

	t.Run("ids not on court", func(t *testing.T) {
		s := start(t, "A", "B", "C")
		_, err := m.RecordResult(s, s.InPlay[0].ID, s.Queue[0].ID, false)
		assert.ErrorIs(t, err, ErrInvalidTeamReference)
		_, err = m.RecordResult(s, "ghost", s.InPlay[1].ID, false)
		assert.ErrorIs(t, err, ErrInvalidTeamReference)
	})

	t.Run("winner equals loser", func(t *testing.T) {
		s := start(t, "A", "B")
		_, err := m.RecordResult(s, s.InPlay[0].ID, s.InPlay[0].ID, false)
		assert.ErrorIs(t, err, ErrInvalidTeamReference)
	})
}

func TestMachine_RecordResult_Classic(t *testing.T) {
	m := newTestMachine()

	t.Run("both lose resets score and requeues", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "W", "X", "Y")
		s, err := m.StartGame(s)
		require.NoError(t, err)
		s.Score = Score{Team1: 3, Team2: 5}

		got, err := m.RecordResult(s, "", "", true)
		require.NoError(t, err)
		assert.Empty(t, got.InPlay)
		assert.Equal(t, []string{"Y", "W", "X"}, names(got.Queue))
		assert.Equal(t, Score{}, got.Score)
	})

	t.Run("single winner is rejected", func(t *testing.T) {
		s := sessionWithTeams(t, m, ModeClassic, "A", "B")
		s, err := m.StartGame(s)
		require.NoError(t, err)
		_, err = m.RecordResult(s, s.InPlay[0].ID, s.InPlay[1].ID, false)
		assert.ErrorIs(t, err, ErrInvalidGameResult)
	})
}

func TestMachine_RecordResult_ModeNotSet(t *testing.T) {
	m := newTestMachine()
	s := m.Ensure(nil)

	_, err := m.RecordResult(s, "", "", true)
	assert.ErrorIs(t, err, ErrModeNotSet)

	s.Mode = "legacy"
	_, err = m.RecordResult(s, "", "", true)
	assert.ErrorIs(t, err, ErrModeNotSet)
}

func TestMachine_UpdateScore(t *testing.T) {
	m := newTestMachine()
	base := m.Ensure(nil)
	base.Score = Score{Team1: 4, Team2: 6}

	t.Run("negative clamps to zero", func(t *testing.T) {
		got := m.UpdateScore(base, -5, nil)
		assert.Equal(t, Score{Team1: 0, Team2: 6}, got.Score)
	})

	t.Run("omitted slot unchanged", func(t *testing.T) {
		got := m.UpdateScore(base, nil, 7)
		assert.Equal(t, Score{Team1: 4, Team2: 7}, got.Score)
	})

	t.Run("works without a game in progress", func(t *testing.T) {
		got := m.UpdateScore(NewSession(), "3", "x")
		assert.Equal(t, Score{Team1: 3, Team2: 0}, got.Score)
	})

	t.Run("input untouched", func(t *testing.T) {
		m.UpdateScore(base, 100, 100)
		assert.Equal(t, Score{Team1: 4, Team2: 6}, base.Score)
	})
}

// TestMachine_RandomWalkInvariants drives a long deterministic sequence of
// operations and checks disjointness and the court bound after each step.
func TestMachine_RandomWalkInvariants(t *testing.T) {
	m := newTestMachine()

	for _, mode := range []Mode{ModeWinnerStaysOn, ModeClassic} {
		t.Run(string(mode), func(t *testing.T) {
			s := sessionWithTeams(t, m, mode, "A", "B", "C", "D", "E")
			for step := 0; step < 200; step++ {
				var next *Session
				var err error
				switch step % 7 {
				case 0, 3:
					next, err = m.StartGame(s)
				case 1:
					if len(s.InPlay) == 2 {
						next, err = m.RecordResult(s, s.InPlay[step%2].ID, s.InPlay[(step+1)%2].ID, false)
					} else {
						next, err = m.RecordResult(s, "", "", true)
					}
				case 2:
					next, err = m.RecordResult(s, "", "", true)
				case 4:
					next, err = m.AddTeam(s, fmt.Sprintf("T%d", step))
				case 5:
					if step%2 == 0 && len(s.InPlay) > 0 {
						next = m.RemoveTeam(s, s.InPlay[0].ID)
					} else if len(s.Queue) > 0 {
						next = m.RemoveTeam(s, s.Queue[0].ID)
					}
				case 6:
					next = m.UpdateScore(s, step, -step)
				}
				if err != nil {
					var known bool
					for _, sentinel := range []error{ErrGameInProgress, ErrInsufficientTeams, ErrInvalidGameResult} {
						known = known || errors.Is(err, sentinel)
					}
					require.True(t, known, "step %d: unexpected error %v", step, err)
					continue
				}
				if next == nil {
					continue
				}
				s = next
				require.NoError(t, CheckInvariants(s), "step %d", step)
				require.LessOrEqual(t, len(s.InPlay), MaxInPlay)
			}
		})
	}
}
