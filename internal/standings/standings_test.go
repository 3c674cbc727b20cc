package standings

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheduleluck/internal/league"
)

func testLeague(slots int, scores map[string][]float64) *league.League {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	lg := &league.League{
		Name:         "Test League",
		PlayoffSlots: slots,
		Scores:       scores,
	}
	for _, name := range names {
		lg.Teams = append(lg.Teams, league.Team{Name: name})
		lg.Weeks = len(scores[name])
	}
	return lg
}

func week(pairs ...league.Pair) league.Week {
	return league.Week{Pairs: pairs}
}

func entryFor(t *testing.T, entries []Entry, team string) Entry {
	t.Helper()
	for _, e := range entries {
		if e.Team == team {
			return e
		}
	}
	t.Fatalf("no entry for team %q", team)
	return Entry{}
}

func TestEvaluateBasicRecords(t *testing.T) {
	lg := testLeague(2, map[string][]float64{
		"A": {100, 90},
		"B": {95, 85},
		"C": {80, 70},
		"D": {60, 110},
	})
	sched := league.Schedule{
		week(league.NewPair("A", "B"), league.NewPair("C", "D")),
		week(league.NewPair("A", "C"), league.NewPair("B", "D")),
	}

	entries, err := Evaluate(lg, sched, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	a := entryFor(t, entries, "A")
	assert.Equal(t, 2, a.Wins)
	assert.Equal(t, 0, a.Losses)
	assert.Equal(t, 1, a.Rank)
	assert.True(t, a.Qualified)
	assert.Equal(t, 190.0, a.TotalPoints)

	d := entryFor(t, entries, "D")
	assert.Equal(t, 1, d.Wins)
	assert.Equal(t, 1, d.Losses)
	assert.Equal(t, 170.0, d.TotalPoints)

	b := entryFor(t, entries, "B")
	assert.Equal(t, 0, b.Wins)
	assert.Equal(t, 2, b.Losses)
	assert.False(t, b.Qualified)
}

func TestTiesRecordedForBothSides(t *testing.T) {
	lg := testLeague(1, map[string][]float64{
		"A": {100},
		"B": {100},
		"C": {90},
		"D": {80},
	})
	sched := league.Schedule{
		week(league.NewPair("A", "B"), league.NewPair("C", "D")),
	}

	entries, err := Evaluate(lg, sched, Options{})
	require.NoError(t, err)

	a := entryFor(t, entries, "A")
	b := entryFor(t, entries, "B")
	assert.Equal(t, 1, a.Ties)
	assert.Equal(t, 1, b.Ties)
	assert.Equal(t, 0.5, a.WinEquivalent)
	assert.Equal(t, 0.5, b.WinEquivalent)

	// Win-equivalents conserve: one win plus two half-ties per week.
	total := 0.0
	for _, e := range entries {
		total += e.WinEquivalent
	}
	assert.Equal(t, float64(len(sched[0].Pairs)), total)
}

func TestWinConservationAcrossSchedules(t *testing.T) {
	lg := testLeague(2, map[string][]float64{
		"A": {100, 90, 95},
		"B": {95, 85, 95},
		"C": {80, 70, 99},
		"D": {60, 110, 20},
	})

	schedules := []league.Schedule{
		{
			week(league.NewPair("A", "B"), league.NewPair("C", "D")),
			week(league.NewPair("A", "C"), league.NewPair("B", "D")),
			week(league.NewPair("A", "D"), league.NewPair("B", "C")),
		},
		{
			week(league.NewPair("A", "D"), league.NewPair("B", "C")),
			week(league.NewPair("A", "B"), league.NewPair("C", "D")),
			week(league.NewPair("A", "C"), league.NewPair("B", "D")),
		},
	}

	for _, sched := range schedules {
		entries, err := Evaluate(lg, sched, Options{})
		require.NoError(t, err)

		total := 0.0
		for _, e := range entries {
			total += e.WinEquivalent
		}
		assert.Equal(t, 6.0, total, "2 matchups x 3 weeks")
	}
}

func TestTotalPointsScheduleInvariant(t *testing.T) {
	lg := testLeague(1, map[string][]float64{
		"A": {100, 90},
		"B": {95, 85},
		"C": {80, 70},
		"D": {60, 110},
	})

	first := league.Schedule{
		week(league.NewPair("A", "B"), league.NewPair("C", "D")),
		week(league.NewPair("A", "C"), league.NewPair("B", "D")),
	}
	second := league.Schedule{
		week(league.NewPair("A", "D"), league.NewPair("B", "C")),
		week(league.NewPair("A", "B"), league.NewPair("C", "D")),
	}

	e1, err := Evaluate(lg, first, Options{})
	require.NoError(t, err)
	e2, err := Evaluate(lg, second, Options{})
	require.NoError(t, err)

	for _, team := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, entryFor(t, e1, team).TotalPoints, entryFor(t, e2, team).TotalPoints)
	}
}

func TestCompetitionRanking(t *testing.T) {
	// B and C finish with identical records and identical points: they
	// share rank 2 and the next team drops to rank 4.
	lg := testLeague(1, map[string][]float64{
		"A": {100, 100},
		"B": {90, 50},
		"C": {50, 90},
		"D": {10, 10},
	})
	sched := league.Schedule{
		week(league.NewPair("A", "D"), league.NewPair("B", "C")),
		week(league.NewPair("A", "D"), league.NewPair("B", "C")),
	}

	entries, err := Evaluate(lg, sched, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, entryFor(t, entries, "A").Rank)
	assert.Equal(t, 2, entryFor(t, entries, "B").Rank)
	assert.Equal(t, 2, entryFor(t, entries, "C").Rank)
	assert.Equal(t, 4, entryFor(t, entries, "D").Rank)
}

func TestBoundaryTieQualification(t *testing.T) {
	// B and C tie across the second and last playoff slot.
	lg := testLeague(2, map[string][]float64{
		"A": {100, 100},
		"B": {90, 50},
		"C": {50, 90},
		"D": {10, 10},
	})
	sched := league.Schedule{
		week(league.NewPair("A", "D"), league.NewPair("B", "C")),
		week(league.NewPair("A", "D"), league.NewPair("B", "C")),
	}

	entries, err := Evaluate(lg, sched, Options{Boundary: BoundaryAll})
	require.NoError(t, err)

	qualified := 0
	for _, e := range entries {
		if e.Qualified {
			qualified++
		}
	}
	assert.Equal(t, 3, qualified, "boundary tie qualifies every tied team")
	assert.True(t, entryFor(t, entries, "B").Qualified)
	assert.True(t, entryFor(t, entries, "C").Qualified)

	entries, err = Evaluate(lg, sched, Options{Boundary: BoundaryStrict})
	require.NoError(t, err)
	assert.True(t, entryFor(t, entries, "A").Qualified)
	assert.False(t, entryFor(t, entries, "B").Qualified)
	assert.False(t, entryFor(t, entries, "C").Qualified)
}

func TestByeResults(t *testing.T) {
	lg := testLeague(1, map[string][]float64{
		"A": {100},
		"B": {90},
		"C": {80},
	})
	sched := league.Schedule{
		{Pairs: []league.Pair{league.NewPair("A", "B")}, Bye: "C"},
	}

	cases := []struct {
		bye          ByeResult
		wins, losses int
		ties         int
	}{
		{ByeWin, 1, 0, 0},
		{ByeLoss, 0, 1, 0},
		{ByeTie, 0, 0, 1},
	}
	for _, tc := range cases {
		entries, err := Evaluate(lg, sched, Options{Bye: tc.bye})
		require.NoError(t, err)
		c := entryFor(t, entries, "C")
		assert.Equal(t, tc.wins, c.Wins)
		assert.Equal(t, tc.losses, c.Losses)
		assert.Equal(t, tc.ties, c.Ties)
	}
}

func TestNonFiniteScoreFailsEvaluation(t *testing.T) {
	lg := testLeague(1, map[string][]float64{
		"A": {math.NaN()},
		"B": {90},
	})
	sched := league.Schedule{
		week(league.NewPair("A", "B")),
	}

	_, err := Evaluate(lg, sched, Options{})
	assert.ErrorIs(t, err, ErrNonFiniteScore)

	lg.Scores["A"][0] = math.Inf(1)
	_, err = Evaluate(lg, sched, Options{})
	assert.ErrorIs(t, err, ErrNonFiniteScore)
}

func TestEvaluateRejectsWrongWeekCount(t *testing.T) {
	lg := testLeague(1, map[string][]float64{
		"A": {100, 90},
		"B": {95, 85},
	})
	_, err := Evaluate(lg, league.Schedule{week(league.NewPair("A", "B"))}, Options{})
	assert.Error(t, err)
}
