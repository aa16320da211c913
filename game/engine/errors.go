package engine

import "errors"

var (
	ErrNotFound             = errors.New("session not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateName        = errors.New("team name already exists")
	ErrInvalidTeamReference = errors.New("invalid team IDs")
	ErrGameInProgress       = errors.New("game already in progress")
	ErrInsufficientTeams    = errors.New("need at least 2 teams to start a game")
	ErrModeNotSet           = errors.New("no game mode set")
	ErrInvalidGameResult    = errors.New("invalid game result")
	ErrNotConfigurable      = errors.New("unrecognized game mode")
	ErrStorageUnavailable   = errors.New("storage unavailable")
)

// Error kinds returned by Kind
const (
	KindNotFound             = "not_found"
	KindInvalidInput         = "invalid_input"
	KindDuplicateName        = "duplicate_name"
	KindInvalidTeamReference = "invalid_team_reference"
	KindGameInProgress       = "game_in_progress"
	KindInsufficientTeams    = "insufficient_teams"
	KindModeNotSet           = "mode_not_set"
	KindInvalidGameResult    = "invalid_game_result"
	KindNotConfigurable      = "not_configurable"
	KindStorageUnavailable   = "storage_unavailable"
	KindInternal             = "internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	// storage first: a backend failure may wrap other sentinels
	{ErrStorageUnavailable, KindStorageUnavailable},
	{ErrNotFound, KindNotFound},
	{ErrInvalidInput, KindInvalidInput},
	{ErrDuplicateName, KindDuplicateName},
	{ErrInvalidTeamReference, KindInvalidTeamReference},
	{ErrGameInProgress, KindGameInProgress},
	{ErrInsufficientTeams, KindInsufficientTeams},
	{ErrModeNotSet, KindModeNotSet},
	{ErrInvalidGameResult, KindInvalidGameResult},
	{ErrNotConfigurable, KindNotConfigurable},
}

// Kind maps an error to its stable snake_case code. Unknown errors are
// reported as "internal"; nil yields "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
