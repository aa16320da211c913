package engine

import (
	"encoding/json"
	"fmt"
)

// Mode selects the rotation policy applied when a game result is recorded
type Mode string

const (
	ModeUnset         Mode = ""
	ModeWinnerStaysOn Mode = "winner-stays-on"
	ModeClassic       Mode = "classic"

	// Maximum number of teams that can be on the court at once
	MaxInPlay = 2
)

// Valid reports whether m is one of the recognized rotation policies
func (m Mode) Valid() bool {
	return m == ModeWinnerStaysOn || m == ModeClassic
}

// String returns the wire value, or "unset"
func (m Mode) String() string {
	if m == ModeUnset {
		return "unset"
	}
	return string(m)
}

// MarshalJSON encodes an unset mode as null
func (m Mode) MarshalJSON() ([]byte, error) {
	if m == ModeUnset {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

// UnmarshalJSON accepts null or a string. Unknown strings are kept verbatim so
// that stored data survives a round trip; Configure never produces them.
func (m *Mode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = ModeUnset
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("mode must be a string or null: %w", err)
	}
	*m = Mode(s)
	return nil
}

// ParseMode converts a wire value into a Mode
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return ModeUnset, fmt.Errorf("%w: %q (expected %q or %q)", ErrNotConfigurable, s, ModeWinnerStaysOn, ModeClassic)
	}
	return m, nil
}

// Team is a named group waiting for or playing a game
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Score holds the running score of the two in-play slots
type Score struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// Session is the full rotation state of one area
type Session struct {
	Mode   Mode   `json:"mode"`
	Queue  []Team `json:"teams"`
	InPlay []Team `json:"inPlay"`
	Score  Score  `json:"score"`
}

// NewSession returns an empty session with no mode configured
func NewSession() *Session {
	return &Session{
		Mode:   ModeUnset,
		Queue:  []Team{},
		InPlay: []Team{},
	}
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := &Session{
		Mode:   s.Mode,
		Queue:  make([]Team, len(s.Queue)),
		InPlay: make([]Team, len(s.InPlay)),
		Score:  s.Score,
	}
	copy(c.Queue, s.Queue)
	copy(c.InPlay, s.InPlay)
	return c
}

// normalize replaces nil slices with empty ones so the wire shape is stable
func (s *Session) normalize() {
	if s.Queue == nil {
		s.Queue = []Team{}
	}
	if s.InPlay == nil {
		s.InPlay = []Team{}
	}
}

// FindInPlay returns the in-play team with the given id
func (s *Session) FindInPlay(id string) (Team, bool) {
	return findTeam(s.InPlay, id)
}

// FindQueued returns the queued team with the given id
func (s *Session) FindQueued(id string) (Team, bool) {
	return findTeam(s.Queue, id)
}

// HasName reports whether a queued or in-play team already uses name
func (s *Session) HasName(name string) bool {
	for _, t := range s.Queue {
		if t.Name == name {
			return true
		}
	}
	for _, t := range s.InPlay {
		if t.Name == name {
			return true
		}
	}
	return false
}

// GameInProgress reports whether both court slots are taken
func (s *Session) GameInProgress() bool {
	return len(s.InPlay) >= MaxInPlay
}

func findTeam(teams []Team, id string) (Team, bool) {
	for _, t := range teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

func withoutTeam(teams []Team, id string) []Team {
	out := make([]Team, 0, len(teams))
	for _, t := range teams {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
