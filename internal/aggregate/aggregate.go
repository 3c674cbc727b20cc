// Package aggregate accumulates outcome distributions over a stream of
// evaluated schedules. State is O(teams), never O(schedules), and every
// field is a plain count or sum so partial accumulators merge in any
// order without affecting the result.
package aggregate

import (
	"fmt"

	"scheduleluck/internal/standings"
)

// TeamStats holds one team's counters across all processed schedules.
// Win sums only ever grow by multiples of 0.5, which float64 represents
// exactly, so accumulation and merging are exact.
type TeamStats struct {
	Qualified     int64
	Championships int64
	WinSum        float64
	Placements    []int64 // index rank-1
}

// Stats is the per-run accumulator. One instance per worker during the
// parallel phase; partials are merged once at the end.
type Stats struct {
	Teams     map[string]*TeamStats
	NumTeams  int
	Processed int64
	Excluded  int64
}

// New builds an empty accumulator for the given roster.
func New(teams []string) *Stats {
	s := &Stats{
		Teams:    make(map[string]*TeamStats, len(teams)),
		NumTeams: len(teams),
	}
	for _, t := range teams {
		s.Teams[t] = &TeamStats{Placements: make([]int64, len(teams))}
	}
	return s
}

// Observe folds one schedule's standings into the accumulator.
func (s *Stats) Observe(entries []standings.Entry) {
	s.Processed++
	for _, e := range entries {
		ts := s.Teams[e.Team]
		ts.WinSum += e.WinEquivalent
		ts.Placements[e.Rank-1]++
		if e.Qualified {
			ts.Qualified++
		}
		if e.Rank == 1 {
			ts.Championships++
		}
	}
}

// ObserveExcluded records a schedule whose evaluation failed (non-finite
// score). Excluded schedules never contribute to the statistics but are
// reported so callers can judge coverage.
func (s *Stats) ObserveExcluded() {
	s.Excluded++
}

// Merge adds another accumulator into this one field-wise. Addition is
// commutative and associative, so merge order never affects the result.
func (s *Stats) Merge(other *Stats) error {
	if other.NumTeams != s.NumTeams {
		return fmt.Errorf("cannot merge stats for %d teams into stats for %d teams", other.NumTeams, s.NumTeams)
	}
	s.Processed += other.Processed
	s.Excluded += other.Excluded
	for team, ots := range other.Teams {
		ts, ok := s.Teams[team]
		if !ok {
			return fmt.Errorf("cannot merge stats: unknown team %q", team)
		}
		ts.Qualified += ots.Qualified
		ts.Championships += ots.Championships
		ts.WinSum += ots.WinSum
		for i, c := range ots.Placements {
			ts.Placements[i] += c
		}
	}
	return nil
}

// TeamOutcome is the distilled distribution for one team.
type TeamOutcome struct {
	Team                    string    `json:"team"`
	PlayoffProbability      float64   `json:"playoff_probability"`
	ChampionshipProbability float64   `json:"championship_probability"`
	ExpectedWins            float64   `json:"expected_wins"`
	PlacementProbabilities  []float64 `json:"placement_probabilities"`
}

// Finalize converts raw counters into probabilities and expected wins.
// Read once at the end of a run.
func (s *Stats) Finalize() map[string]TeamOutcome {
	out := make(map[string]TeamOutcome, len(s.Teams))
	n := float64(s.Processed)
	for team, ts := range s.Teams {
		o := TeamOutcome{
			Team:                   team,
			PlacementProbabilities: make([]float64, len(ts.Placements)),
		}
		if s.Processed > 0 {
			o.PlayoffProbability = float64(ts.Qualified) / n
			o.ChampionshipProbability = float64(ts.Championships) / n
			o.ExpectedWins = ts.WinSum / n
			for i, c := range ts.Placements {
				o.PlacementProbabilities[i] = float64(c) / n
			}
		}
		out[team] = o
	}
	return out
}
