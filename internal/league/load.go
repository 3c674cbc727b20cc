package league

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// dataset mirrors the JSON produced by the data-acquisition side. Scores
// arrive attached to matchup slots there; loading re-attaches them to the
// team, which is what makes schedule permutation meaningful.
type dataset struct {
	LeagueInfo struct {
		Name         string `json:"name"`
		Season       string `json:"season"`
		MyTeam       string `json:"my_team"`
		PlayoffTeams int    `json:"playoff_teams"`
	} `json:"league_info"`
	Teams []Team `json:"teams"`
	Weeks []struct {
		Week     int `json:"week"`
		Matchups []struct {
			Team1  string  `json:"team1"`
			Score1 float64 `json:"score1"`
			Team2  string  `json:"team2"`
			Score2 float64 `json:"score2"`
		} `json:"matchups"`
	} `json:"weeks"`
}

// LoadFile reads a league dataset from a JSON file.
func LoadFile(path string) (*League, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open league dataset: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a league dataset and re-keys every score by (team, week).
// Teams absent from a week's matchups are recorded as on bye that week.
func Load(r io.Reader) (*League, error) {
	var ds dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("%w: decode league dataset: %v", ErrInvalidInput, err)
	}

	sort.Slice(ds.Weeks, func(i, j int) bool { return ds.Weeks[i].Week < ds.Weeks[j].Week })

	lg := &League{
		Name:         ds.LeagueInfo.Name,
		Season:       ds.LeagueInfo.Season,
		FocalTeam:    ds.LeagueInfo.MyTeam,
		PlayoffSlots: ds.LeagueInfo.PlayoffTeams,
		Teams:        ds.Teams,
		Weeks:        len(ds.Weeks),
		Scores:       make(map[string][]float64, len(ds.Teams)),
		Byes:         make(map[int]map[string]bool),
	}

	known := make(map[string]bool, len(ds.Teams))
	for _, t := range ds.Teams {
		known[t.Name] = true
		lg.Scores[t.Name] = make([]float64, len(ds.Weeks))
	}

	lg.Actual = make(Schedule, len(ds.Weeks))
	for w, weekData := range ds.Weeks {
		if weekData.Week != w+1 {
			return nil, fmt.Errorf("%w: weeks are not contiguous from 1 (found week %d at position %d)", ErrInvalidInput, weekData.Week, w+1)
		}

		played := make(map[string]bool, len(known))
		pairs := make([]Pair, 0, len(weekData.Matchups))
		for _, m := range weekData.Matchups {
			for _, side := range []struct {
				team  string
				score float64
			}{{m.Team1, m.Score1}, {m.Team2, m.Score2}} {
				if !known[side.team] {
					return nil, fmt.Errorf("%w: week %d references unknown team %q", ErrInvalidInput, w+1, side.team)
				}
				if played[side.team] {
					return nil, fmt.Errorf("%w: team %q appears twice in week %d", ErrInvalidInput, side.team, w+1)
				}
				played[side.team] = true
				lg.Scores[side.team][w] = side.score
			}
			pairs = append(pairs, NewPair(m.Team1, m.Team2))
		}
		lg.Actual[w] = Week{Pairs: pairs}

		byes := make(map[string]bool)
		for name := range known {
			if !played[name] {
				byes[name] = true
			}
		}
		if len(byes) > 0 {
			lg.Byes[w] = byes
			// A single idle team is a bye; more than one means the
			// dataset is missing scores for active teams.
			if len(byes) > 1 {
				return nil, fmt.Errorf("%w: week %d is missing scores for %d teams", ErrInvalidInput, w+1, len(byes))
			}
			for name := range byes {
				lg.Actual[w].Bye = name
			}
		}
	}

	return lg, nil
}
