package service

import (
	"encoding/json"

	"github.com/wricardo/courtqueue/game/engine"
)

// Operation names used in logs and metrics
const (
	OpGetOrCreate  = "get_or_create"
	OpConfigure    = "configure"
	OpAddTeam      = "add_team"
	OpRemoveTeam   = "remove_team"
	OpReorderQueue = "reorder_queue"
	OpStartGame    = "start_game"
	OpRecordResult = "record_result"
	OpUpdateScore  = "update_score"
	OpListAreas    = "list_areas"
)

// ReorderResult is returned by ReorderQueue. Session is the full updated
// session and is not part of the wire shape.
type ReorderResult struct {
	Success bool            `json:"success"`
	Teams   []engine.Team   `json:"teams"`
	Session *engine.Session `json:"-"`
}

// GameResult describes a finished game. Winner and Loser are team ids and
// are ignored when BothLose is set.
type GameResult struct {
	Winner   string `json:"winner,omitempty"`
	Loser    string `json:"loser,omitempty"`
	BothLose bool   `json:"bothLose,omitempty"`
}

// ScoreUpdate carries raw, unvalidated score values. A nil field leaves that
// slot unchanged; anything else (including a JSON null) is sanitized with
// engine.ClampScore.
type ScoreUpdate struct {
	Team1 json.RawMessage `json:"team1,omitempty"`
	Team2 json.RawMessage `json:"team2,omitempty"`
}

func (u ScoreUpdate) values() (team1, team2 any) {
	if u.Team1 != nil {
		team1 = u.Team1
	}
	if u.Team2 != nil {
		team2 = u.Team2
	}
	return team1, team2
}
