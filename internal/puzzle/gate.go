package puzzle

import "fmt"

// DefaultMaxFullMoves is the product rule: solutions are at most 3 full
// moves (6 half-moves).
const DefaultMaxFullMoves = 3

// Gate applies the acceptance rules deciding whether a converted solution
// is usable. Rejected puzzles never reach the composer or the store.
type Gate struct {
	MaxFullMoves int
}

// Accept reports whether the algebraic solution passes, with a reason
// when it does not. A full move is a pair of plies, rounded up.
func (g Gate) Accept(san []string) (bool, string) {
	limit := g.MaxFullMoves
	if limit <= 0 {
		limit = DefaultMaxFullMoves
	}
	if len(san) == 0 {
		return false, "empty solution"
	}
	full := (len(san) + 1) / 2
	if full > limit {
		return false, fmt.Sprintf("solution is %d full moves, limit is %d", full, limit)
	}
	return true, ""
}

// MaxHalfMoves is the gate limit expressed in plies, usable as a cheap
// pre-filter before notation conversion.
func (g Gate) MaxHalfMoves() int {
	limit := g.MaxFullMoves
	if limit <= 0 {
		limit = DefaultMaxFullMoves
	}
	return limit * 2
}
