package puzzle

// Titles is the rotating list of grandmaster names used for puzzle
// titles.
var Titles = []string{
	"Magnus Carlsen", "Garry Kasparov", "Bobby Fischer", "Anatoly Karpov",
	"Mikhail Tal", "Jose Raul Capablanca", "Paul Morphy", "Emanuel Lasker",
	"Viswanathan Anand", "Hikaru Nakamura", "Fabiano Caruana", "Wesley So",
	"Ding Liren", "Ian Nepomniachtchi", "Alireza Firouzja", "Levon Aronian",
}

// Themes is the rotating sequence the theme-based fetch mode cycles
// through.
var Themes = []string{"mateIn1", "mateIn2", "advantage", "mateIn3"}

// Cursor names as persisted in the rotation_cursors collection.
const (
	TitleCursor = "grandmasters"
	ThemeCursor = "puzzle_themes"
)

// Cursor is the persisted index of the last-used entry of a rotation
// list. A missing cursor is represented as LastIndex -1, so the first
// advance yields index 0.
type Cursor struct {
	Name      string
	LastIndex int
}

// Advance returns the cursor moved one step through a list of length n.
// Pure: the caller is responsible for persisting the result.
func Advance(c Cursor, n int) Cursor {
	if n <= 0 {
		return c
	}
	if c.LastIndex < 0 {
		c.LastIndex = -1
	}
	c.LastIndex = (c.LastIndex + 1) % n
	return c
}
