// Command analyze prints quick, human-readable heuristics about a court data
// file. For each area it summarizes the mode, queue and court, estimates how
// many games the last queued team has to wait, and highlights areas that
// need attention (unconfigured areas with teams, half-empty courts).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wricardo/courtqueue/game/engine"
	"github.com/wricardo/courtqueue/game/session"
)

// longQueue is the queue length from which an area is flagged as busy
const longQueue = 8

// AreaAnalysis is the summary of one area
type AreaAnalysis struct {
	Area      string
	Mode      engine.Mode
	Queued    int
	InPlay    int
	Score     engine.Score
	WaitGames int
	Warnings  []string
}

// analyzeArea computes the summary for a single session
func analyzeArea(area string, s *engine.Session) AreaAnalysis {
	a := AreaAnalysis{
		Area:      area,
		Mode:      s.Mode,
		Queued:    len(s.Queue),
		InPlay:    len(s.InPlay),
		Score:     s.Score,
		WaitGames: waitGames(s),
		Warnings:  []string{},
	}

	if s.Mode == engine.ModeUnset && len(s.Queue)+len(s.InPlay) > 0 {
		a.Warnings = append(a.Warnings, "teams are waiting but no mode is set; results cannot be recorded")
	}
	if len(s.InPlay) == 1 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("%s is on the court without an opponent", s.InPlay[0].Name))
	}
	if len(s.InPlay) == 0 && len(s.Queue) >= engine.MaxInPlay {
		a.Warnings = append(a.Warnings, "court is idle with enough teams to start a game")
	}
	if len(s.Queue) >= longQueue {
		a.Warnings = append(a.Warnings, fmt.Sprintf("long queue: %d teams waiting", len(s.Queue)))
	}
	return a
}

// waitGames estimates how many games finish before the last queued team
// plays. Winner-stays-on promotes one team per game; classic clears the
// court, so two teams step on per game.
func waitGames(s *engine.Session) int {
	n := len(s.Queue)
	if n == 0 {
		return 0
	}
	switch s.Mode {
	case engine.ModeClassic:
		return (n + 1) / 2
	default:
		return n
	}
}

// analyzeFile loads a data file and analyzes every area, sorted by id
func analyzeFile(ctx context.Context, path string) ([]AreaAnalysis, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	store, err := session.NewFileStore(path)
	if err != nil {
		return nil, err
	}
	sessions, err := store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	areas := make([]string, 0, len(sessions))
	for area := range sessions {
		areas = append(areas, area)
	}
	sort.Strings(areas)

	out := make([]AreaAnalysis, 0, len(areas))
	for _, area := range areas {
		out = append(out, analyzeArea(area, sessions[area]))
	}
	return out, nil
}

func printAnalysis(w io.Writer, a AreaAnalysis) {
	mode := "not set"
	if a.Mode != engine.ModeUnset {
		mode = string(a.Mode)
	}

	fmt.Fprintf(w, "\n=== %s ===\n", a.Area)
	fmt.Fprintf(w, "Mode: %s\n", mode)
	fmt.Fprintf(w, "Queued: %d\n", a.Queued)
	fmt.Fprintf(w, "In Play: %d\n", a.InPlay)
	if a.InPlay == engine.MaxInPlay {
		fmt.Fprintf(w, "Score: %d - %d\n", a.Score.Team1, a.Score.Team2)
	}
	if a.Queued > 0 {
		fmt.Fprintf(w, "Estimated wait for last team: %d games\n", a.WaitGames)
	}

	if len(a.Warnings) == 0 {
		fmt.Fprintf(w, "✅ No issues\n")
		return
	}
	for _, warning := range a.Warnings {
		fmt.Fprintf(w, "⚠️  %s\n", warning)
	}
}

func main() {
	path := "data.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	analyses, err := analyzeFile(context.Background(), path)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("Analyzing %s (%d areas)\n", path, len(analyses))
	for _, a := range analyses {
		printAnalysis(os.Stdout, a)
	}
}
