// Package sampler composes per-week matchings into full-season schedule
// permutations, either exhaustively or by uniform Monte Carlo sampling.
// The permutation space grows double-factorially per week and
// multiplicatively across weeks, so the sampler estimates the space size
// up front and forces Monte Carlo when exhaustive enumeration would not
// finish.
package sampler

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"scheduleluck/internal/league"
	"scheduleluck/internal/matching"
)

// Mode selects the permutation strategy.
type Mode int

const (
	Exhaustive Mode = iota
	MonteCarlo
)

func (m Mode) String() string {
	if m == Exhaustive {
		return "exhaustive"
	}
	return "monte-carlo"
}

// Options configure one sampling run. Seed applies to Monte Carlo mode:
// identical seed and input data reproduce identical aggregate statistics
// bit for bit, which auditing a luck-factor claim depends on.
type Options struct {
	Mode                 Mode
	SampleCount          int
	Seed                 int64
	FeasibilityThreshold float64
	MaxPermutations      int64 // 0 = unlimited
}

// DefaultFeasibilityThreshold caps how many permutations exhaustive mode
// will attempt before being downgraded to Monte Carlo.
const DefaultFeasibilityThreshold = 1e6

// Validate reports configuration errors eagerly, before any work begins.
func (o Options) Validate() error {
	if o.Mode != Exhaustive && o.Mode != MonteCarlo {
		return fmt.Errorf("%w: unknown schedule mode %d", league.ErrConfiguration, o.Mode)
	}
	if o.Mode == MonteCarlo && o.SampleCount <= 0 {
		return fmt.Errorf("%w: monte-carlo mode needs a positive sample count, got %d", league.ErrConfiguration, o.SampleCount)
	}
	if o.MaxPermutations < 0 {
		return fmt.Errorf("%w: permutation budget must not be negative, got %d", league.ErrConfiguration, o.MaxPermutations)
	}
	return nil
}

// Sampler streams schedule permutations for one league.
type Sampler struct {
	lg   *league.League
	opts Options

	mode       Mode
	downgraded bool
	spaceSize  float64

	produced       atomic.Int64
	budgetExceeded atomic.Bool
}

// New validates options, estimates the permutation space, and locks in
// the effective mode. An Exhaustive request whose space exceeds the
// feasibility threshold is forced down to Monte Carlo; the downgrade is
// reported, not silent.
func New(lg *league.League, opts Options) (*Sampler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.FeasibilityThreshold <= 0 {
		opts.FeasibilityThreshold = DefaultFeasibilityThreshold
	}

	s := &Sampler{
		lg:        lg,
		opts:      opts,
		mode:      opts.Mode,
		spaceSize: SpaceSize(lg),
	}

	if s.mode == Exhaustive && s.spaceSize > opts.FeasibilityThreshold {
		if opts.SampleCount <= 0 {
			return nil, fmt.Errorf("%w: exhaustive space of %g permutations exceeds threshold %g and no monte-carlo sample count was configured",
				league.ErrConfiguration, s.spaceSize, opts.FeasibilityThreshold)
		}
		s.mode = MonteCarlo
		s.downgraded = true
	}

	return s, nil
}

// SpaceSize estimates the total number of schedule permutations: the
// product over weeks of the perfect-matching count for that week's
// active teams. Saturates at +Inf.
func SpaceSize(lg *league.League) float64 {
	size := 1.0
	for w := 0; w < lg.Weeks; w++ {
		size *= matching.Count(len(lg.ActiveTeams(w)))
	}
	return size
}

// Mode returns the effective mode after any forced downgrade.
func (s *Sampler) Mode() Mode { return s.mode }

// Downgraded reports whether an exhaustive request was forced down to
// Monte Carlo.
func (s *Sampler) Downgraded() bool { return s.downgraded }

// SpaceSizeEstimate returns the estimated permutation-space size.
func (s *Sampler) SpaceSizeEstimate() float64 { return s.spaceSize }

// Produced returns how many permutations were emitted so far.
func (s *Sampler) Produced() int64 { return s.produced.Load() }

// BudgetExceeded reports whether the stream stopped early because the
// wall-clock or permutation budget ran out. Early termination is a
// normal condition, not a failure; consumers finalize on whatever was
// processed.
func (s *Sampler) BudgetExceeded() bool { return s.budgetExceeded.Load() }

// Stream emits schedule permutations on out until the space or the
// sample count is exhausted, the permutation budget is hit, or ctx is
// cancelled. It closes out when done. Only one full permutation is
// materialized at a time.
func (s *Sampler) Stream(ctx context.Context, out chan<- league.Schedule) error {
	defer close(out)
	if s.mode == Exhaustive {
		return s.streamExhaustive(ctx, out)
	}
	return s.streamMonteCarlo(ctx, out)
}

func (s *Sampler) emit(ctx context.Context, out chan<- league.Schedule, sched league.Schedule) bool {
	if s.opts.MaxPermutations > 0 && s.produced.Load() >= s.opts.MaxPermutations {
		s.budgetExceeded.Store(true)
		return false
	}
	select {
	case <-ctx.Done():
		s.budgetExceeded.Store(true)
		return false
	case out <- sched:
		s.produced.Add(1)
		return true
	}
}

// streamExhaustive enumerates the Cartesian product of per-week matching
// sets with a mixed-radix odometer, so the product is never materialized.
func (s *Sampler) streamExhaustive(ctx context.Context, out chan<- league.Schedule) error {
	weekChoices, err := s.enumerateWeeks()
	if err != nil {
		return err
	}

	idx := make([]int, len(weekChoices))
	for {
		sched := make(league.Schedule, len(weekChoices))
		for w, choices := range weekChoices {
			sched[w] = choices[idx[w]]
		}
		if !s.emit(ctx, out, sched) {
			return nil
		}

		// Advance the odometer, least-significant week first.
		w := len(idx) - 1
		for w >= 0 {
			idx[w]++
			if idx[w] < len(weekChoices[w]) {
				break
			}
			idx[w] = 0
			w--
		}
		if w < 0 {
			return nil
		}
	}
}

// enumerateWeeks materializes each week's legal assignments once. A week
// with an odd active count contributes one assignment per (bye team,
// matching of the remainder) combination.
func (s *Sampler) enumerateWeeks() ([][]league.Week, error) {
	weekChoices := make([][]league.Week, s.lg.Weeks)
	for w := 0; w < s.lg.Weeks; w++ {
		active := s.lg.ActiveTeams(w)
		if len(active)%2 == 0 {
			matchings, err := matching.Enumerate(active)
			if err != nil {
				return nil, fmt.Errorf("week %d: %w", w+1, err)
			}
			choices := make([]league.Week, len(matchings))
			for i, m := range matchings {
				choices[i] = league.Week{Pairs: m}
			}
			weekChoices[w] = choices
			continue
		}

		var choices []league.Week
		rest := make([]string, len(active)-1)
		for b, bye := range active {
			rest = rest[:0]
			rest = append(rest, active[:b]...)
			rest = append(rest, active[b+1:]...)
			matchings, err := matching.Enumerate(rest)
			if err != nil {
				return nil, fmt.Errorf("week %d: %w", w+1, err)
			}
			for _, m := range matchings {
				choices = append(choices, league.Week{Pairs: m, Bye: bye})
			}
		}
		weekChoices[w] = choices
	}
	return weekChoices, nil
}

// streamMonteCarlo draws SampleCount independent uniform schedules. Each
// draw owns an RNG seeded purely from (seed, draw index), so the stream
// content does not depend on which worker consumes which schedule.
func (s *Sampler) streamMonteCarlo(ctx context.Context, out chan<- league.Schedule) error {
	for i := 0; i < s.opts.SampleCount; i++ {
		rng := rand.New(rand.NewSource(drawSeed(s.opts.Seed, int64(i))))
		sched, err := s.sampleSchedule(rng)
		if err != nil {
			return err
		}
		if !s.emit(ctx, out, sched) {
			return nil
		}
	}
	return nil
}

func (s *Sampler) sampleSchedule(rng *rand.Rand) (league.Schedule, error) {
	sched := make(league.Schedule, s.lg.Weeks)
	for w := 0; w < s.lg.Weeks; w++ {
		active := s.lg.ActiveTeams(w)
		var bye string
		if len(active)%2 != 0 {
			// Uniform bye choice times uniform matching of the rest is
			// uniform over all assignments for the week.
			b := rng.Intn(len(active))
			bye = active[b]
			active = append(active[:b:b], active[b+1:]...)
		}
		m, err := matching.SampleOne(active, rng)
		if err != nil {
			return nil, fmt.Errorf("week %d: %w", w+1, err)
		}
		sched[w] = league.Week{Pairs: m, Bye: bye}
	}
	return sched, nil
}

// drawSeed decorrelates per-draw RNG streams while staying a pure
// function of the run seed and the draw index.
func drawSeed(seed, i int64) int64 {
	x := uint64(seed) + uint64(i+1)*0x9e3779b97f4a7c15
	x ^= x >> 31
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	return int64(x)
}
