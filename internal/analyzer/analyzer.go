// Package analyzer orchestrates one analysis run: real-season baseline,
// permutation stream, parallel evaluation, aggregation, and the final
// report. Evaluation is a pure function per schedule, so workers share
// nothing but the inbound channel and merge their partial accumulators
// once at the end.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"scheduleluck/internal/aggregate"
	"scheduleluck/internal/league"
	"scheduleluck/internal/report"
	"scheduleluck/internal/sampler"
	"scheduleluck/internal/standings"
)

// Options configure one analysis run.
type Options struct {
	Sampler   sampler.Options
	Standings standings.Options

	// ByeConfigured says whether a bye result policy was supplied.
	// Leagues with an odd active count in any week refuse to run
	// without one.
	ByeConfigured bool

	// Workers is the evaluation parallelism; 0 means NumCPU.
	Workers int

	// WallClockBudget caps the run's duration; 0 means unlimited.
	WallClockBudget time.Duration
}

// Analyzer runs the full engine for one league.
type Analyzer struct {
	lg   *league.League
	opts Options
	log  *logrus.Logger
}

// New validates the league and configuration eagerly; nothing is
// computed on invalid input.
func New(lg *league.League, opts Options, log *logrus.Logger) (*Analyzer, error) {
	if err := opts.Sampler.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("%w: worker count must not be negative, got %d", league.ErrConfiguration, opts.Workers)
	}
	if err := lg.Validate(opts.ByeConfigured); err != nil {
		return nil, err
	}
	if len(lg.Actual) != lg.Weeks {
		return nil, fmt.Errorf("%w: actual schedule covers %d weeks, league has %d", league.ErrInvalidInput, len(lg.Actual), lg.Weeks)
	}
	return &Analyzer{lg: lg, opts: opts, log: log}, nil
}

// Run streams schedule permutations through the evaluator, accumulates
// outcome distributions, and assembles the report summary.
func (a *Analyzer) Run(ctx context.Context) (*report.Summary, error) {
	runID := uuid.New().String()
	start := time.Now()

	// A non-finite score is a mid-run condition, not a fatal one: the
	// baseline becomes unavailable but the permutation phase still runs
	// and reports its excluded count. Anything else is fatal.
	actual, err := standings.Evaluate(a.lg, a.lg.Actual, a.opts.Standings)
	if err != nil {
		if !errors.Is(err, standings.ErrNonFiniteScore) {
			return nil, fmt.Errorf("evaluate actual season: %w", err)
		}
		if a.log != nil {
			a.log.WithError(err).Warn("Actual season has non-finite scores, baseline omitted from report")
		}
		actual = nil
	}

	smp, err := sampler.New(a.lg, a.opts.Sampler)
	if err != nil {
		return nil, err
	}

	if a.log != nil {
		a.log.WithFields(logrus.Fields{
			"run_id":     runID,
			"league":     a.lg.Name,
			"mode":       smp.Mode().String(),
			"downgraded": smp.Downgraded(),
			"space_size": smp.SpaceSizeEstimate(),
		}).Info("Starting schedule permutation analysis")
	}

	if a.opts.WallClockBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.WallClockBudget)
		defer cancel()
	}

	workers := a.opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	permCh := make(chan league.Schedule, 4*workers)
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- smp.Stream(ctx, permCh)
	}()

	partials := make([]*aggregate.Stats, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		partial := aggregate.New(a.lg.TeamNames())
		partials[i] = partial
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sched := range permCh {
				entries, err := standings.Evaluate(a.lg, sched, a.opts.Standings)
				if err != nil {
					partial.ObserveExcluded()
					if a.log != nil {
						a.log.WithError(err).Debug("Skipping permutation")
					}
					continue
				}
				partial.Observe(entries)
			}
		}()
	}
	wg.Wait()
	if err := <-streamErr; err != nil {
		return nil, err
	}

	total := aggregate.New(a.lg.TeamNames())
	for _, p := range partials {
		if err := total.Merge(p); err != nil {
			return nil, err
		}
	}
	outcomes := total.Finalize()

	summary := a.buildSummary(runID, smp, total, outcomes, actual)

	if a.log != nil {
		a.log.WithFields(logrus.Fields{
			"run_id":          runID,
			"processed":       total.Processed,
			"excluded":        total.Excluded,
			"budget_exceeded": summary.BudgetExceeded,
			"duration":        time.Since(start),
		}).Info("Schedule permutation analysis completed")
	}

	return summary, nil
}

func (a *Analyzer) buildSummary(runID string, smp *sampler.Sampler, total *aggregate.Stats,
	outcomes map[string]aggregate.TeamOutcome, actual []standings.Entry) *report.Summary {

	allPlay := AllPlayRecords(a.lg)
	weekly := WeeklyRankings(a.lg)

	baseline := actual != nil
	if !baseline {
		// Placeholder rows so every team still gets its permutation
		// statistics; the actual-season columns stay zero-valued.
		for _, name := range a.lg.TeamNames() {
			actual = append(actual, standings.Entry{Team: name})
		}
	}

	summary := &report.Summary{
		RunID:           runID,
		LeagueName:      a.lg.Name,
		Season:          a.lg.Season,
		FocalTeam:       a.lg.FocalTeam,
		Mode:            smp.Mode().String(),
		Downgraded:      smp.Downgraded(),
		BudgetExceeded:  smp.BudgetExceeded(),
		SpaceSize:       smp.SpaceSizeEstimate(),
		Seed:            a.opts.Sampler.Seed,
		Processed:       total.Processed,
		Excluded:        total.Excluded,
		BaselineMissing: !baseline,
		Teams:           make([]report.TeamReport, 0, len(actual)),
	}

	for _, e := range actual {
		outcome := outcomes[e.Team]
		ap := allPlay[e.Team]
		scores := activeScores(a.lg, e.Team)

		tr := report.TeamReport{
			Team:          e.Team,
			ActualRank:    e.Rank,
			ActualWins:    e.Wins,
			ActualLosses:  e.Losses,
			ActualTies:    e.Ties,
			ActualWinEq:   e.WinEquivalent,
			MadePlayoffs:  e.Qualified,
			TotalPoints:   e.TotalPoints,
			AllPlayWins:   ap.Wins,
			AllPlayLosses: ap.Losses,
			AllPlayTies:   ap.Ties,
			WeeklyRanks:   weekly[e.Team],

			ExpectedWins:            outcome.ExpectedWins,
			PlayoffProbability:      outcome.PlayoffProbability,
			ChampionshipProbability: outcome.ChampionshipProbability,
			PlacementProbabilities:  outcome.PlacementProbabilities,
		}
		if baseline {
			tr.LuckFactor = e.WinEquivalent - outcome.ExpectedWins
		}
		if len(scores) > 0 && allFinite(scores) {
			tr.AvgPoints = stat.Mean(scores, nil)
			tr.StdDevPoints = stat.StdDev(scores, nil)
		}
		summary.Teams = append(summary.Teams, tr)
	}

	report.SortByActualRank(summary.Teams)
	return summary
}

// AllPlayRecord is a team's record if it had played every other active
// team every week.
type AllPlayRecord struct {
	Wins   int
	Losses int
	Ties   int
}

// AllPlayRecords computes all-play records from the weekly score table.
// Schedule-independent, so it doubles as an analytic cross-check on the
// permutation expected wins.
func AllPlayRecords(lg *league.League) map[string]AllPlayRecord {
	records := make(map[string]AllPlayRecord, len(lg.Teams))
	for w := 0; w < lg.Weeks; w++ {
		active := lg.ActiveTeams(w)
		for i := 0; i < len(active); i++ {
			for j := i + 1; j < len(active); j++ {
				si, sj := lg.Scores[active[i]][w], lg.Scores[active[j]][w]
				ri, rj := records[active[i]], records[active[j]]
				switch {
				case si > sj:
					ri.Wins++
					rj.Losses++
				case sj > si:
					rj.Wins++
					ri.Losses++
				default:
					ri.Ties++
					rj.Ties++
				}
				records[active[i]] = ri
				records[active[j]] = rj
			}
		}
	}
	return records
}

// WeeklyRankings ranks every team's weekly score against the rest of the
// league, week by week. Ties share a rank, the next rank skips. A bye
// week is recorded as rank 0.
func WeeklyRankings(lg *league.League) map[string][]int {
	rankings := make(map[string][]int, len(lg.Teams))
	for _, name := range lg.TeamNames() {
		rankings[name] = make([]int, lg.Weeks)
	}
	for w := 0; w < lg.Weeks; w++ {
		active := lg.ActiveTeams(w)
		sort.SliceStable(active, func(i, j int) bool {
			return lg.Scores[active[i]][w] > lg.Scores[active[j]][w]
		})
		for i, name := range active {
			r := i + 1
			if i > 0 && lg.Scores[name][w] == lg.Scores[active[i-1]][w] {
				r = rankings[active[i-1]][w]
			}
			rankings[name][w] = r
		}
	}
	return rankings
}

func allFinite(scores []float64) bool {
	for _, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func activeScores(lg *league.League, team string) []float64 {
	scores := make([]float64, 0, lg.Weeks)
	for w, pts := range lg.Scores[team] {
		if lg.IsActive(team, w) {
			scores = append(scores, pts)
		}
	}
	return scores
}
