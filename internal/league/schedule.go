package league

// Pair is an unordered matchup between two teams. Home/away carries no
// meaning for win-loss computation, so the pair is normalized on
// construction and compares by value.
type Pair struct {
	A string
	B string
}

// NewPair builds a normalized pair. NewPair(x, y) == NewPair(y, x).
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Has reports whether the pair involves the given team.
func (p Pair) Has(team string) bool {
	return p.A == team || p.B == team
}

// Opponent returns the other side of the pair, or "" if the team is not
// in it.
func (p Pair) Opponent(team string) string {
	switch team {
	case p.A:
		return p.B
	case p.B:
		return p.A
	}
	return ""
}

// Week is one week's matchup assignment: a perfect matching over the
// week's active teams, plus the team sitting out when the active count
// was odd ("" when everyone is paired).
type Week struct {
	Pairs []Pair
	Bye   string
}

// Schedule assigns one Week per league week. Alternate schedules are
// transient: built by the sampler, consumed by the evaluator, then
// discarded.
type Schedule []Week
