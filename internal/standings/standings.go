// Package standings turns one full-season schedule into final standings:
// records, ranks, and playoff qualification. Evaluation is a pure
// function of (league, schedule) so permutation processing can fan out
// across workers freely.
package standings

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"scheduleluck/internal/league"
)

// ErrNonFiniteScore marks a score that is NaN or infinite. The affected
// schedule's evaluation is abandoned; the caller skips the schedule and
// counts it as excluded rather than folding bad numbers into the
// statistics.
var ErrNonFiniteScore = errors.New("non-finite score")

// ByeResult is the mechanical result handed to a team sitting out an
// odd week. League bye rules vary, so this is configuration, not a
// constant.
type ByeResult int

const (
	ByeWin ByeResult = iota
	ByeLoss
	ByeTie
)

// BoundaryPolicy decides playoff qualification when a tie straddles the
// last slot.
type BoundaryPolicy int

const (
	// BoundaryAll counts every team tied at the boundary as qualified,
	// even when that puts more than K teams in. Non-lossy: arbitrary
	// tie-breaking here would bias the luck metric.
	BoundaryAll BoundaryPolicy = iota

	// BoundaryStrict qualifies a tied group only when the whole group
	// fits inside the slot count.
	BoundaryStrict
)

// Options configure the tie-adjacent policies of evaluation.
type Options struct {
	Bye      ByeResult
	Boundary BoundaryPolicy
}

// Entry is one team's line in the final standings of one schedule.
type Entry struct {
	Team          string  `json:"team"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	WinEquivalent float64 `json:"win_equivalent"`
	TotalPoints   float64 `json:"total_points"`
	Rank          int     `json:"rank"`
	Qualified     bool    `json:"qualified"`
}

// Evaluate computes standings for the league under the given schedule.
// Entries come back sorted best-first. Within each week the higher score
// wins; equal scores are a tie for both sides, never silently resolved.
func Evaluate(lg *league.League, sched league.Schedule, opts Options) ([]Entry, error) {
	if len(sched) != lg.Weeks {
		return nil, fmt.Errorf("schedule covers %d weeks, league has %d", len(sched), lg.Weeks)
	}

	records := make(map[string]*Entry, len(lg.Teams))
	entries := make([]Entry, len(lg.Teams))
	for i, t := range lg.Teams {
		entries[i] = Entry{Team: t.Name, TotalPoints: lg.TotalPoints(t.Name)}
		records[t.Name] = &entries[i]
	}

	for w, week := range sched {
		for _, pair := range week.Pairs {
			a, b := lg.Scores[pair.A][w], lg.Scores[pair.B][w]
			if !finite(a) || !finite(b) {
				return nil, fmt.Errorf("%w: matchup %s vs %s, week %d", ErrNonFiniteScore, pair.A, pair.B, w+1)
			}
			switch {
			case a > b:
				records[pair.A].Wins++
				records[pair.B].Losses++
			case b > a:
				records[pair.B].Wins++
				records[pair.A].Losses++
			default:
				records[pair.A].Ties++
				records[pair.B].Ties++
			}
		}
		if week.Bye != "" {
			switch opts.Bye {
			case ByeWin:
				records[week.Bye].Wins++
			case ByeLoss:
				records[week.Bye].Losses++
			case ByeTie:
				records[week.Bye].Ties++
			}
		}
	}

	for i := range entries {
		entries[i].WinEquivalent = float64(entries[i].Wins) + 0.5*float64(entries[i].Ties)
	}

	rank(entries)
	qualify(entries, lg.PlayoffSlots, opts.Boundary)
	return entries, nil
}

// rank orders entries by win-equivalent (ties count as half a win) then
// total points, and assigns standard competition ranks: teams equal on
// both keys share a rank and the next rank skips past the group.
func rank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].WinEquivalent != entries[j].WinEquivalent {
			return entries[i].WinEquivalent > entries[j].WinEquivalent
		}
		return entries[i].TotalPoints > entries[j].TotalPoints
	})

	for i := range entries {
		if i > 0 && sameRankKey(entries[i], entries[i-1]) {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
}

func sameRankKey(a, b Entry) bool {
	return a.WinEquivalent == b.WinEquivalent && a.TotalPoints == b.TotalPoints
}

func qualify(entries []Entry, slots int, policy BoundaryPolicy) {
	for i := range entries {
		if entries[i].Rank > slots {
			continue
		}
		if policy == BoundaryStrict {
			// Size of the group sharing this rank decides whether it
			// fits inside the remaining slots.
			groupEnd := i
			for groupEnd+1 < len(entries) && entries[groupEnd+1].Rank == entries[i].Rank {
				groupEnd++
			}
			if groupEnd+1 > slots {
				continue
			}
		}
		entries[i].Qualified = true
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
