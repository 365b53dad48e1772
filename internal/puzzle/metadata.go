package puzzle

import (
	"fmt"
	"strconv"
	"strings"
)

// Describe derives the puzzle description from the shape of its
// solution. Pure function of the algebraic sequence: a mating final move
// yields a forced-mate description, a checking one a check-based hint,
// anything else the generic best-move prompt.
func Describe(san []string) string {
	if len(san) == 0 {
		return "Find the best move to solve the puzzle."
	}
	full := (len(san) + 1) / 2
	last := san[len(san)-1]
	switch {
	case strings.HasSuffix(last, "#"):
		if full == 1 {
			return "Find the forced mate in 1 move."
		}
		return fmt.Sprintf("Find the forced mate in %d moves.", full)
	case strings.HasSuffix(last, "+"):
		return "Use a check to force the win."
	default:
		return "Find the best move to gain a decisive advantage."
	}
}

// DescribeTheme maps a source theme to a description, falling back to
// the solution-derived description when the theme is unknown.
func DescribeTheme(theme string, san []string) string {
	if n, ok := strings.CutPrefix(theme, "mateIn"); ok {
		if _, err := strconv.Atoi(n); err == nil {
			if n == "1" {
				return "Find the forced checkmate in 1 move."
			}
			return fmt.Sprintf("Find the forced checkmate in %s moves.", n)
		}
	}
	if theme == "advantage" {
		return "Find the best sequence of moves to gain a decisive advantage."
	}
	return Describe(san)
}
