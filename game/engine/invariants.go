package engine

import (
	"errors"
	"fmt"
	"strings"
)

// CheckInvariants reports every structural problem found in s, joined into a
// single error. A session produced by Machine from a valid session passes,
// with one exception: ReorderQueue trusts its caller and can introduce
// duplicates.
func CheckInvariants(s *Session) error {
	if s == nil {
		return errors.New("session is nil")
	}

	var errs []error

	if s.Mode != ModeUnset && !s.Mode.Valid() {
		errs = append(errs, fmt.Errorf("unknown mode %q", string(s.Mode)))
	}
	if len(s.InPlay) > MaxInPlay {
		errs = append(errs, fmt.Errorf("%d teams in play (max %d)", len(s.InPlay), MaxInPlay))
	}
	if s.Score.Team1 < 0 || s.Score.Team2 < 0 {
		errs = append(errs, fmt.Errorf("negative score %d-%d", s.Score.Team1, s.Score.Team2))
	}

	where := make(map[string]string)
	names := make(map[string]bool)
	check := func(list string, teams []Team) {
		for i, t := range teams {
			if t.ID == "" {
				errs = append(errs, fmt.Errorf("%s[%d] has an empty id", list, i))
			} else if prev, dup := where[t.ID]; dup && prev == list {
				errs = append(errs, fmt.Errorf("team %q is listed twice in %s", t.ID, list))
			} else if dup {
				errs = append(errs, fmt.Errorf("team %q appears in both %s and %s", t.ID, prev, list))
			} else {
				where[t.ID] = list
			}

			name := strings.TrimSpace(t.Name)
			if name == "" {
				errs = append(errs, fmt.Errorf("%s[%d] has an empty name", list, i))
			} else if names[name] {
				errs = append(errs, fmt.Errorf("team name %q is used more than once", name))
			} else {
				names[name] = true
			}
		}
	}
	check("queue", s.Queue)
	check("inPlay", s.InPlay)

	return errors.Join(errs...)
}
