// Command simulate drives an area through an evening of pickup games over the
// REST API and checks every rotation the server performs against the expected
// FIFO behavior. It is handy for load testing a deployment and for checking a
// store backend end to end.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/wricardo/courtqueue/game/engine"
)

// Report summarizes a simulation run
type Report struct {
	Mode          engine.Mode
	Strategy      string
	Games         int
	Wins          map[string]int
	LongestStreak int
	StreakHolder  string
	Violations    []string
}

// Simulator plays games through a Client
type Simulator struct {
	client   *Client
	strategy Strategy
	mode     engine.Mode
	delay    time.Duration
	verbose  bool
}

func NewSimulator(client *Client, strategy Strategy, mode engine.Mode) *Simulator {
	return &Simulator{
		client:   client,
		strategy: strategy,
		mode:     mode,
	}
}

// Setup configures the area and queues teams. Teams already present are kept.
func (sim *Simulator) Setup(teams int) (*engine.Session, error) {
	if _, err := sim.client.GetSession(); err != nil {
		return nil, fmt.Errorf("open area: %w", err)
	}
	s, err := sim.client.Configure(sim.mode)
	if err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}

	for i := 1; i <= teams; i++ {
		next, err := sim.client.AddTeam(fmt.Sprintf("Team %02d", i))
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == engine.KindDuplicateName {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("add team %d: %w", i, err)
		}
		s = next
	}
	return s, nil
}

// Run plays games and verifies each rotation
func (sim *Simulator) Run(s *engine.Session, games int) (*Report, error) {
	report := &Report{
		Mode:       sim.mode,
		Strategy:   sim.strategy.Name(),
		Wins:       make(map[string]int),
		Violations: []string{},
	}
	streaks := make(map[string]int)

	for report.Games < games {
		if !s.GameInProgress() {
			next, err := sim.client.StartGame()
			if err != nil {
				return report, fmt.Errorf("start game %d: %w", report.Games+1, err)
			}
			s = next
		}

		winIdx := sim.strategy.Decide(s)
		winner, loser := s.InPlay[winIdx], s.InPlay[1-winIdx]
		high, low := sim.strategy.Score()
		team1, team2 := high, low
		if winIdx == 1 {
			team1, team2 = low, high
		}

		scored, err := sim.client.UpdateScore(team1, team2)
		if err != nil {
			return report, fmt.Errorf("update score: %w", err)
		}
		if scored.Score.Team1 != team1 || scored.Score.Team2 != team2 {
			report.Violations = append(report.Violations,
				fmt.Sprintf("game %d: score %d-%d stored as %d-%d", report.Games+1, team1, team2, scored.Score.Team1, scored.Score.Team2))
		}

		var next *engine.Session
		if sim.mode == engine.ModeClassic {
			next, err = sim.client.RecordBothLose()
		} else {
			next, err = sim.client.RecordResult(winner.ID, loser.ID)
		}
		if err != nil {
			return report, fmt.Errorf("record result: %w", err)
		}

		if v := checkRotation(sim.mode, scored, winner, loser, next); v != "" {
			report.Violations = append(report.Violations, fmt.Sprintf("game %d: %s", report.Games+1, v))
		}

		report.Games++
		report.Wins[winner.Name]++
		streaks[winner.ID]++
		streaks[loser.ID] = 0
		if streaks[winner.ID] > report.LongestStreak {
			report.LongestStreak = streaks[winner.ID]
			report.StreakHolder = winner.Name
		}

		if sim.verbose {
			log.Printf("Game %d: %s beat %s %d-%d", report.Games, winner.Name, loser.Name, high, low)
		}
		if sim.delay > 0 {
			time.Sleep(sim.delay)
		}
		s = next
	}
	return report, nil
}

// checkRotation compares the server's result with the expected rotation and
// describes the first difference, or returns ""
func checkRotation(mode engine.Mode, before *engine.Session, winner, loser engine.Team, after *engine.Session) string {
	var wantQueue, wantInPlay []engine.Team

	if mode == engine.ModeClassic {
		wantQueue = append(append([]engine.Team{}, before.Queue...), before.InPlay...)
		wantInPlay = []engine.Team{}
	} else {
		wantQueue = append(append([]engine.Team{}, before.Queue...), loser)
		wantInPlay = []engine.Team{winner}
		for len(wantInPlay) < engine.MaxInPlay && len(wantQueue) > 0 {
			wantInPlay = append(wantInPlay, wantQueue[0])
			wantQueue = wantQueue[1:]
		}
	}

	if !sameIDs(wantInPlay, after.InPlay) {
		return fmt.Sprintf("in play %v, want %v", ids(after.InPlay), ids(wantInPlay))
	}
	if !sameIDs(wantQueue, after.Queue) {
		return fmt.Sprintf("queue %v, want %v", ids(after.Queue), ids(wantQueue))
	}
	if mode == engine.ModeClassic && after.Score != (engine.Score{}) {
		return fmt.Sprintf("score %d-%d after classic result, want 0-0", after.Score.Team1, after.Score.Team2)
	}
	return ""
}

func ids(teams []engine.Team) []string {
	out := make([]string, len(teams))
	for i, t := range teams {
		out[i] = t.Name
	}
	return out
}

func sameIDs(a, b []engine.Team) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func printReport(r *Report) {
	fmt.Printf("\n=== Simulation (%s, %s strategy) ===\n", r.Mode, r.Strategy)
	fmt.Printf("Games played: %d\n", r.Games)
	if r.StreakHolder != "" {
		fmt.Printf("Longest streak: %d (%s)\n", r.LongestStreak, r.StreakHolder)
	}

	names := make([]string, 0, len(r.Wins))
	for name := range r.Wins {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if r.Wins[names[i]] != r.Wins[names[j]] {
			return r.Wins[names[i]] > r.Wins[names[j]]
		}
		return names[i] < names[j]
	})
	fmt.Println("Wins:")
	for _, name := range names {
		fmt.Printf("  %-10s %d\n", name, r.Wins[name])
	}

	if len(r.Violations) == 0 {
		fmt.Println("✅ Every rotation matched")
		return
	}
	fmt.Printf("❌ %d rotation mismatches:\n", len(r.Violations))
	for _, v := range r.Violations {
		fmt.Printf("   %s\n", v)
	}
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Court queue server URL")
	area := flag.String("area", "sim-court", "Area to play on")
	modeName := flag.String("mode", string(engine.ModeWinnerStaysOn), "Rotation mode (winner-stays-on, classic)")
	teams := flag.Int("teams", 6, "Number of teams to queue")
	games := flag.Int("games", 50, "Number of games to play")
	strategyName := flag.String("strategy", "random", "How games are decided (random, strength)")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	delayMs := flag.Int("delay", 0, "Delay between games in milliseconds (0 = no delay)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	mode, err := engine.ParseMode(*modeName)
	if err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}
	if *teams < engine.MaxInPlay {
		log.Fatalf("Need at least %d teams", engine.MaxInPlay)
	}

	log.Printf("Connecting to court queue server at %s (area %s)", *serverURL, *area)
	sim := NewSimulator(NewClient(*serverURL, *area), NewStrategy(*strategyName, *seed), mode)
	sim.delay = time.Duration(*delayMs) * time.Millisecond
	sim.verbose = *verbose

	s, err := sim.Setup(*teams)
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}

	report, err := sim.Run(s, *games)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		log.Fatalf("Simulation stopped: %v", err)
	}
	if len(report.Violations) > 0 {
		os.Exit(1)
	}
}
