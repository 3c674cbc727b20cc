// Package matching enumerates and samples perfect matchings over a
// week's active teams: every team paired exactly once, no team paired
// with itself.
package matching

import (
	"fmt"
	"math"
	"math/rand"

	"scheduleluck/internal/league"
)

// Matching is one week's set of pairs covering all active teams exactly
// once.
type Matching []league.Pair

// Enumerate produces every perfect matching of the given teams exactly
// once. For n teams it returns (n-1)!! matchings; callers that cannot
// afford materializing them should use ForEach.
func Enumerate(teams []string) ([]Matching, error) {
	var out []Matching
	err := ForEach(teams, func(m Matching) bool {
		out = append(out, m)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForEach visits every perfect matching lazily, one at a time. The visit
// function returns false to stop early. Matchings are generated by
// pairing the first remaining team with each candidate partner and
// recursing on the remainder, which yields each matching exactly once.
func ForEach(teams []string, visit func(Matching) bool) error {
	if err := checkTeams(teams); err != nil {
		return err
	}
	acc := make([]league.Pair, 0, len(teams)/2)
	enumerate(teams, acc, visit)
	return nil
}

func enumerate(remaining []string, acc []league.Pair, visit func(Matching) bool) bool {
	if len(remaining) == 0 {
		m := make(Matching, len(acc))
		copy(m, acc)
		return visit(m)
	}

	first := remaining[0]
	rest := remaining[1:]
	for i := range rest {
		next := make([]string, 0, len(rest)-1)
		next = append(next, rest[:i]...)
		next = append(next, rest[i+1:]...)
		if !enumerate(next, append(acc, league.NewPair(first, rest[i])), visit) {
			return false
		}
	}
	return true
}

// SampleOne draws a uniformly random perfect matching without
// enumerating the space: shuffle the teams and pair adjacent entries.
// Every matching corresponds to the same number of shuffled orderings,
// so the draw is uniform over all (n-1)!! matchings.
func SampleOne(teams []string, rng *rand.Rand) (Matching, error) {
	if err := checkTeams(teams); err != nil {
		return nil, err
	}

	shuffled := make([]string, len(teams))
	copy(shuffled, teams)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	m := make(Matching, 0, len(shuffled)/2)
	for i := 0; i < len(shuffled); i += 2 {
		m = append(m, league.NewPair(shuffled[i], shuffled[i+1]))
	}
	return m, nil
}

// Count returns the number of perfect matchings for n teams: (n-1)!! for
// even n, and n!! for odd n (each choice of bye team times the matchings
// of the remainder). Returns +Inf once the count overflows float64.
func Count(n int) float64 {
	if n <= 0 {
		return 0
	}
	if n%2 == 0 {
		return DoubleFactorial(n - 1)
	}
	return DoubleFactorial(n)
}

// DoubleFactorial computes n!! = n * (n-2) * (n-4) * ... down to 1,
// saturating at +Inf. This governs when exhaustive enumeration becomes
// infeasible.
func DoubleFactorial(n int) float64 {
	result := 1.0
	for k := n; k > 1; k -= 2 {
		result *= float64(k)
		if math.IsInf(result, 1) {
			return result
		}
	}
	return result
}

func checkTeams(teams []string) error {
	if len(teams) == 0 {
		return fmt.Errorf("%w: no teams to match", league.ErrInvalidInput)
	}
	if len(teams)%2 != 0 {
		return fmt.Errorf("%w: cannot match %d teams, count must be even", league.ErrInvalidInput, len(teams))
	}
	return nil
}
