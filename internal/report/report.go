// Package report holds the report-ready output of an analysis run and a
// minimal text renderer. Full presentation is the rendering
// collaborator's job; the Summary struct is the interface to it.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

// TeamReport is one team's line in the final analysis: the real season
// on the left, the permutation distribution on the right.
type TeamReport struct {
	Team          string  `json:"team"`
	ActualRank    int     `json:"actual_rank"`
	ActualWins    int     `json:"actual_wins"`
	ActualLosses  int     `json:"actual_losses"`
	ActualTies    int     `json:"actual_ties"`
	ActualWinEq   float64 `json:"actual_win_equivalent"`
	MadePlayoffs  bool    `json:"made_playoffs"`
	TotalPoints   float64 `json:"total_points"`
	AvgPoints     float64 `json:"avg_points"`
	StdDevPoints  float64 `json:"stddev_points"`
	AllPlayWins   int     `json:"all_play_wins"`
	AllPlayLosses int     `json:"all_play_losses"`
	AllPlayTies   int     `json:"all_play_ties"`

	// WeeklyRanks holds the team's points rank within each week, index 0 =
	// week 1; 0 marks a bye week.
	WeeklyRanks []int `json:"weekly_ranks"`

	ExpectedWins            float64   `json:"expected_wins"`
	LuckFactor              float64   `json:"luck_factor"`
	PlayoffProbability      float64   `json:"playoff_probability"`
	ChampionshipProbability float64   `json:"championship_probability"`
	PlacementProbabilities  []float64 `json:"placement_probabilities"`
}

// Summary is the full output of one analysis run.
type Summary struct {
	RunID      string `json:"run_id"`
	LeagueName string `json:"league_name"`
	Season     string `json:"season"`
	FocalTeam  string `json:"focal_team"`

	Mode           string  `json:"mode"`
	Downgraded     bool    `json:"downgraded"`
	BudgetExceeded bool    `json:"budget_exceeded"`
	SpaceSize      float64 `json:"space_size"`
	Seed           int64   `json:"seed"`
	Processed      int64   `json:"permutations_processed"`
	Excluded       int64   `json:"permutations_excluded"`

	// BaselineMissing is set when the actual season could not be
	// evaluated (non-finite scores); the Actual* and LuckFactor fields
	// are zero-valued and must be ignored.
	BaselineMissing bool `json:"baseline_missing"`

	// Teams is sorted by actual rank.
	Teams []TeamReport `json:"teams"`
}

// Focal returns the focal team's report, or nil when no focal team was
// designated.
func (s *Summary) Focal() *TeamReport {
	for i := range s.Teams {
		if s.Teams[i].Team == s.FocalTeam {
			return &s.Teams[i]
		}
	}
	return nil
}

// WriteJSON writes the summary as indented JSON to the given file.
func (s *Summary) WriteJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// luckVerdict buckets a luck factor the same way the league write-ups
// phrase it.
func luckVerdict(luck float64) string {
	switch {
	case luck > 1.5:
		return "VERY LUCKY"
	case luck > 0.5:
		return "Lucky"
	case luck < -1.5:
		return "VERY UNLUCKY"
	case luck < -0.5:
		return "Unlucky"
	}
	return "Fair"
}

func ordinal(n int) string {
	if n%100 >= 10 && n%100 <= 20 {
		return fmt.Sprintf("%dth", n)
	}
	switch n % 10 {
	case 1:
		return fmt.Sprintf("%dst", n)
	case 2:
		return fmt.Sprintf("%dnd", n)
	case 3:
		return fmt.Sprintf("%drd", n)
	}
	return fmt.Sprintf("%dth", n)
}

// Render writes a plain-text report to w.
func Render(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "SCHEDULE LUCK ANALYSIS — %s (%s)\n", s.LeagueName, s.Season)
	fmt.Fprintf(w, "run %s | mode %s", s.RunID, s.Mode)
	if s.Downgraded {
		fmt.Fprint(w, " (downgraded from exhaustive)")
	}
	fmt.Fprintf(w, " | %d permutations", s.Processed)
	if s.Excluded > 0 {
		fmt.Fprintf(w, " (%d excluded)", s.Excluded)
	}
	if s.BudgetExceeded {
		fmt.Fprint(w, " | budget exceeded, partial results")
	}
	fmt.Fprintln(w)
	if s.BaselineMissing {
		fmt.Fprintln(w, "actual season not evaluable (non-finite scores); record, rank and luck columns omitted")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEAM\tRECORD\tPOINTS\tALL-PLAY\tEXP WINS\tLUCK\tPLAYOFF %\tTITLE %\tVERDICT")
	for _, t := range s.Teams {
		marker := ""
		if t.Team == s.FocalTeam {
			marker = " <-- YOU"
		}
		luck, verdict := fmt.Sprintf("%+.2f", t.LuckFactor), luckVerdict(t.LuckFactor)
		if s.BaselineMissing {
			luck, verdict = "-", "-"
		}
		fmt.Fprintf(tw, "%d\t%s%s\t%d-%d-%d\t%.2f\t%d-%d-%d\t%.2f\t%s\t%.1f%%\t%.1f%%\t%s\n",
			t.ActualRank, t.Team, marker,
			t.ActualWins, t.ActualLosses, t.ActualTies,
			t.TotalPoints,
			t.AllPlayWins, t.AllPlayLosses, t.AllPlayTies,
			t.ExpectedWins, luck,
			t.PlayoffProbability*100, t.ChampionshipProbability*100,
			verdict)
	}
	tw.Flush()

	focal := s.Focal()
	if focal == nil {
		return
	}

	fmt.Fprintf(w, "\n%s — placement distribution\n", focal.Team)
	for i, p := range focal.PlacementProbabilities {
		bar := strings.Repeat("#", int(p*50))
		marker := ""
		if i+1 == focal.ActualRank {
			marker = "  <-- actual"
		}
		fmt.Fprintf(w, "  %4s %6.2f%% %s%s\n", ordinal(i+1), p*100, bar, marker)
	}
	if len(focal.WeeklyRanks) > 0 && len(s.Teams) > 3 {
		top, bottom, played := 0, 0, 0
		for _, r := range focal.WeeklyRanks {
			if r == 0 {
				continue
			}
			played++
			if r <= 3 {
				top++
			}
			if r >= len(s.Teams)-2 {
				bottom++
			}
		}
		fmt.Fprintf(w, "\ntop-3 scoring weeks: %d/%d  bottom-3 scoring weeks: %d/%d\n",
			top, played, bottom, played)
	}

	fmt.Fprintf(w, "\nplayoff probability: %.2f%%  expected wins: %.2f",
		focal.PlayoffProbability*100, focal.ExpectedWins)
	if !s.BaselineMissing {
		fmt.Fprintf(w, "  luck: %+.2f", focal.LuckFactor)
	}
	fmt.Fprintln(w)
}

// SortByActualRank orders team reports by real-season rank, breaking
// rank ties by name so rendering is stable.
func SortByActualRank(teams []TeamReport) {
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].ActualRank != teams[j].ActualRank {
			return teams[i].ActualRank < teams[j].ActualRank
		}
		return teams[i].Team < teams[j].Team
	})
}
