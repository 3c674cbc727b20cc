package matching

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"scheduleluck/internal/league"
)

func teamNames(n int) []string {
	teams := make([]string, n)
	for i := range teams {
		teams[i] = fmt.Sprintf("Team %c", 'A'+i)
	}
	return teams
}

// key produces a canonical representation of a matching so duplicates
// can be detected regardless of pair order.
func key(m Matching) string {
	pairs := make([]string, len(m))
	for i, p := range m {
		pairs[i] = p.A + "|" + p.B
	}
	sort.Strings(pairs)
	return fmt.Sprint(pairs)
}

func TestEnumerateProducesDoubleFactorialMatchings(t *testing.T) {
	expected := map[int]int{2: 1, 4: 3, 6: 15, 8: 105}

	for n, want := range expected {
		teams := teamNames(n)
		matchings, err := Enumerate(teams)
		require.NoError(t, err)
		assert.Len(t, matchings, want, "n=%d should yield (n-1)!! matchings", n)

		seen := make(map[string]bool)
		for _, m := range matchings {
			assert.Len(t, m, n/2)

			covered := make(map[string]bool)
			for _, p := range m {
				assert.NotEqual(t, p.A, p.B, "no team pairs with itself")
				assert.False(t, covered[p.A], "team %s appears twice", p.A)
				assert.False(t, covered[p.B], "team %s appears twice", p.B)
				covered[p.A] = true
				covered[p.B] = true
			}
			assert.Len(t, covered, n, "matching must cover all teams")

			k := key(m)
			assert.False(t, seen[k], "duplicate matching %s", k)
			seen[k] = true
		}
	}
}

func TestEnumerateRejectsOddAndEmptyInput(t *testing.T) {
	_, err := Enumerate(teamNames(5))
	assert.ErrorIs(t, err, league.ErrInvalidInput)

	_, err = Enumerate(nil)
	assert.ErrorIs(t, err, league.ErrInvalidInput)
}

func TestForEachStopsEarly(t *testing.T) {
	visited := 0
	err := ForEach(teamNames(6), func(Matching) bool {
		visited++
		return visited < 4
	})
	require.NoError(t, err)
	assert.Equal(t, 4, visited)
}

func TestSampleOneIsValidMatching(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 2; n <= 12; n += 2 {
		m, err := SampleOne(teamNames(n), rng)
		require.NoError(t, err)
		assert.Len(t, m, n/2)

		covered := make(map[string]bool)
		for _, p := range m {
			covered[p.A] = true
			covered[p.B] = true
		}
		assert.Len(t, covered, n)
	}
}

func TestSampleOneRejectsOddInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := SampleOne(teamNames(3), rng)
	assert.ErrorIs(t, err, league.ErrInvalidInput)
}

// TestSampleOneIsUniform checks that repeated sampling converges to the
// uniform distribution over all (n-1)!! matchings, using a chi-squared
// goodness-of-fit test at a 0.999 confidence level.
func TestSampleOneIsUniform(t *testing.T) {
	for _, n := range []int{4, 6} {
		teams := teamNames(n)
		matchings, err := Enumerate(teams)
		require.NoError(t, err)

		const draws = 60000
		counts := make(map[string]int, len(matchings))
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < draws; i++ {
			m, err := SampleOne(teams, rng)
			require.NoError(t, err)
			counts[key(m)]++
		}

		assert.Len(t, counts, len(matchings), "n=%d: every matching should be drawn", n)

		expected := float64(draws) / float64(len(matchings))
		chi2 := 0.0
		for _, m := range matchings {
			diff := float64(counts[key(m)]) - expected
			chi2 += diff * diff / expected
		}

		critical := distuv.ChiSquared{K: float64(len(matchings) - 1)}.Quantile(0.999)
		assert.Less(t, chi2, critical,
			"n=%d: chi-squared statistic %.2f exceeds critical value %.2f", n, chi2, critical)
	}
}

func TestDoubleFactorial(t *testing.T) {
	assert.Equal(t, 1.0, DoubleFactorial(0))
	assert.Equal(t, 1.0, DoubleFactorial(1))
	assert.Equal(t, 3.0, DoubleFactorial(3))
	assert.Equal(t, 8.0, DoubleFactorial(4))
	assert.Equal(t, 15.0, DoubleFactorial(5))
	assert.Equal(t, 105.0, DoubleFactorial(7))
	assert.True(t, math.IsInf(DoubleFactorial(1001), 1), "large inputs saturate at +Inf")
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0.0, Count(0))
	assert.Equal(t, 1.0, Count(2))
	assert.Equal(t, 3.0, Count(4))
	assert.Equal(t, 15.0, Count(6))
	// Odd counts include the choice of bye team.
	assert.Equal(t, 3.0, Count(3))
	assert.Equal(t, 15.0, Count(5))
}
