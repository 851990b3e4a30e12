// internal/match/selector.go
package match

import "fmt"

// DefaultThreshold is the minimum score a label needs to be selected.
const DefaultThreshold = 0.6

// Coord addresses one cell of a button grid.
type Coord struct {
	Row int
	Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// MatchResult is the best cell seen during one selection pass.
type MatchResult struct {
	Label string
	Coord Coord
	Score float64
}

// Best scans grid row-major and returns the highest-scoring cell.
// A later cell only replaces the current best on a strictly greater score.
// Returns false for an empty grid.
func Best(grid [][]string, target string) (MatchResult, bool) {
	var (
		best  MatchResult
		found bool
	)

	for r, row := range grid {
		for c, label := range row {
			score := Similarity(label, target)
			if !found || score > best.Score {
				best = MatchResult{
					Label: label,
					Coord: Coord{Row: r, Col: c},
					Score: score,
				}
				found = true
			}
		}
	}

	return best, found
}

// Select picks the cell of grid that best matches target.
// The result is returned even when it misses the threshold so callers can
// log near misses; ok is true only when Score >= threshold.
// Selection is pure: invoking the button is the caller's job.
func Select(grid [][]string, target string, threshold float64) (res MatchResult, ok bool) {
	best, found := Best(grid, target)
	if !found {
		return MatchResult{}, false
	}
	return best, best.Score >= threshold
}
