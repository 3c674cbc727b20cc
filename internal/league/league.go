package league

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed league data. Returned before any
	// computation starts; no partial analysis is attempted.
	ErrInvalidInput = errors.New("invalid league input")

	// ErrConfiguration marks a bad analysis configuration (sample count,
	// seed, policies). Fatal, reported at setup.
	ErrConfiguration = errors.New("invalid configuration")
)

// Team is a league member. Names are unique within a league and immutable
// once loaded.
type Team struct {
	Name string `json:"name"`
}

// League is the immutable input model for one analysis run: the roster,
// every team's weekly scores independent of opponent, the playoff slot
// count, and the schedule that was actually played (used only for the
// real-season baseline, never for generating alternate schedules).
type League struct {
	Name         string
	Season       string
	Teams        []Team
	Weeks        int
	PlayoffSlots int
	FocalTeam    string

	// Scores maps team name to points per week, index 0 = week 1. Slots
	// for bye weeks are present but never read.
	Scores map[string][]float64

	// Byes maps 0-indexed week to the set of teams sitting out that week.
	Byes map[int]map[string]bool

	Actual Schedule
}

// TeamNames returns the roster in load order.
func (l *League) TeamNames() []string {
	names := make([]string, len(l.Teams))
	for i, t := range l.Teams {
		names[i] = t.Name
	}
	return names
}

// ActiveTeams returns the teams that played in the given 0-indexed week,
// in roster order.
func (l *League) ActiveTeams(week int) []string {
	active := make([]string, 0, len(l.Teams))
	for _, t := range l.Teams {
		if l.Byes[week][t.Name] {
			continue
		}
		active = append(active, t.Name)
	}
	return active
}

// IsActive reports whether the team played in the given 0-indexed week.
func (l *League) IsActive(team string, week int) bool {
	return !l.Byes[week][team]
}

// TotalPoints sums a team's scores over its active weeks. The total is
// schedule-invariant: permuting matchups never changes who scored what.
func (l *League) TotalPoints(team string) float64 {
	total := 0.0
	for w, pts := range l.Scores[team] {
		if l.IsActive(team, w) {
			total += pts
		}
	}
	return total
}

// Validate checks every structural invariant eagerly. byeConfigured says
// whether the caller has a bye result policy; a week with an odd active
// team count is only legal when one is configured.
func (l *League) Validate(byeConfigured bool) error {
	if l.Weeks < 1 {
		return fmt.Errorf("%w: week count %d, need at least 1", ErrInvalidInput, l.Weeks)
	}
	if len(l.Teams) < 2 {
		return fmt.Errorf("%w: team count %d, need at least 2", ErrInvalidInput, len(l.Teams))
	}
	if l.PlayoffSlots < 1 || l.PlayoffSlots >= len(l.Teams) {
		return fmt.Errorf("%w: playoff slots %d must be in [1, %d)", ErrInvalidInput, l.PlayoffSlots, len(l.Teams))
	}

	seen := make(map[string]bool, len(l.Teams))
	for _, t := range l.Teams {
		if t.Name == "" {
			return fmt.Errorf("%w: empty team name", ErrInvalidInput)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicate team %q", ErrInvalidInput, t.Name)
		}
		seen[t.Name] = true
	}

	if l.FocalTeam != "" && !seen[l.FocalTeam] {
		return fmt.Errorf("%w: focal team %q not in league", ErrInvalidInput, l.FocalTeam)
	}

	for _, t := range l.Teams {
		scores, ok := l.Scores[t.Name]
		if !ok || len(scores) != l.Weeks {
			return fmt.Errorf("%w: team %q has %d weekly scores, want %d", ErrInvalidInput, t.Name, len(scores), l.Weeks)
		}
		for w, pts := range scores {
			if !l.IsActive(t.Name, w) {
				continue
			}
			if pts < 0 {
				return fmt.Errorf("%w: team %q week %d has negative score %v", ErrInvalidInput, t.Name, w+1, pts)
			}
		}
	}

	for w := 0; w < l.Weeks; w++ {
		if len(l.ActiveTeams(w))%2 != 0 && !byeConfigured {
			return fmt.Errorf("%w: week %d has an odd active team count and no bye policy is configured", ErrInvalidInput, w+1)
		}
	}

	return nil
}
