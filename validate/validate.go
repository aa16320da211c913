// Command validate checks stored court sessions for structural problems.
// With file arguments it inspects each JSON data file; without arguments it
// opens the store configured by the environment (.env, STORE_DRIVER, ...).
// For every area it checks:
//   - The stored value decodes as a session
//   - The mode is unset or a known rotation mode
//   - At most two teams are in play
//   - No team id appears twice, in one list or across both
//   - Team ids and names are non-empty and names are unique
//   - Scores are not negative
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/courtqueue/game/config"
	"github.com/wricardo/courtqueue/game/engine"
	"github.com/wricardo/courtqueue/game/session"
)

// sessionReader is the read side of a session store
type sessionReader interface {
	Get(ctx context.Context, areaID string) (*engine.Session, error)
	List(ctx context.Context) ([]string, error)
}

// ValidationResult captures the outcome of validating a single area.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	Area   string
	Valid  bool
	Errors []string
}

// validateArea loads one area and checks it
func validateArea(ctx context.Context, store sessionReader, area string) ValidationResult {
	result := ValidationResult{
		Area:   area,
		Valid:  true,
		Errors: []string{},
	}

	s, err := store.Get(ctx, area)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to load session: %v", err))
		return result
	}

	if err := engine.CheckInvariants(s); err != nil {
		result.Valid = false
		for _, line := range strings.Split(err.Error(), "\n") {
			result.Errors = append(result.Errors, line)
		}
		return result
	}

	// Add informational data
	mode := "not set"
	if s.Mode != engine.ModeUnset {
		mode = string(s.Mode)
	}
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Mode: %s", mode))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Queued: %d", len(s.Queue)))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ In play: %d", len(s.InPlay)))
	if s.GameInProgress() {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Score: %d-%d", s.Score.Team1, s.Score.Team2))
	}
	return result
}

// validateStore validates every area in store, sorted by area id
func validateStore(ctx context.Context, store sessionReader) ([]ValidationResult, error) {
	areas, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	sort.Strings(areas)

	results := make([]ValidationResult, 0, len(areas))
	for _, area := range areas {
		results = append(results, validateArea(ctx, store, area))
	}
	return results, nil
}

// validateFile validates a JSON data file. A missing file is an error here,
// even though the server treats it as an empty store.
func validateFile(ctx context.Context, path string) ([]ValidationResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	store, err := session.NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return validateStore(ctx, store)
}

// report prints results and returns whether all of them were valid
func report(w io.Writer, title string, results []ValidationResult) bool {
	fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), title)
	if len(results) == 0 {
		fmt.Fprintln(w, "  (no areas)")
		return true
	}

	allValid := true
	for _, result := range results {
		if result.Valid {
			fmt.Fprintf(w, "✅ %s\n", result.Area)
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintf(w, "❌ %s\n", result.Area)
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
	}
	return allValid
}

// run validates the given files, or the configured store when there are none
func run(ctx context.Context, args []string, w io.Writer) (bool, error) {
	if len(args) == 0 {
		cfg, err := config.Load(".env")
		if err != nil {
			return false, err
		}
		if err := cfg.Validate(); err != nil {
			return false, err
		}
		store, err := session.Open(ctx, cfg.Store)
		if err != nil {
			return false, err
		}
		defer store.Close()

		results, err := validateStore(ctx, store)
		if err != nil {
			return false, err
		}
		return report(w, cfg.Store.Driver+" store", results), nil
	}

	allValid := true
	var errs []error
	for _, path := range args {
		results, err := validateFile(ctx, path)
		if err != nil {
			fmt.Fprintf(w, "\n%s %s\n  ❌ %v\n", strings.Repeat("=", 20), path, err)
			errs = append(errs, err)
			continue
		}
		if !report(w, path, results) {
			allValid = false
		}
	}
	return allValid && len(errs) == 0, nil
}

// main validates every area and exits with non-zero status if any are invalid
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	allValid, err := run(ctx, os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			fmt.Printf("Configuration error: %v\n", err)
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All sessions are valid!")
	} else {
		fmt.Println("❌ Some sessions have errors")
		os.Exit(1)
	}
}
