package engine

import (
	"strconv"
	"strings"
)

// Board is a square matrix of cell values where 0 means empty.
// Board values are treated as immutable: operations return new boards.
type Board [][]int

// Source picks random indexes for tile spawning. *rand.Rand from math/rand/v2
// satisfies it; tests inject deterministic sources.
type Source interface {
	IntN(n int) int
}

// lineStrategy describes how a direction extracts lines from the board
type lineStrategy struct {
	columns  bool
	reversed bool
}

var strategies = map[Direction]lineStrategy{
	Left:  {columns: false, reversed: false},
	Right: {columns: false, reversed: true},
	Up:    {columns: true, reversed: false},
	Down:  {columns: true, reversed: true},
}

// NewBoard returns an empty size x size board
func NewBoard(size int) Board {
	b := make(Board, size)
	for i := range b {
		b[i] = make([]int, size)
	}
	return b
}

// Size returns the board dimension
func (b Board) Size() int {
	return len(b)
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for i, row := range b {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// line extracts row or column i, in slide order for the strategy
func (b Board) line(i int, s lineStrategy) []int {
	n := len(b)
	out := make([]int, n)
	for j := 0; j < n; j++ {
		if s.columns {
			out[j] = b[j][i]
		} else {
			out[j] = b[i][j]
		}
	}
	if s.reversed {
		return reversed(out)
	}
	return out
}

// setLine writes a line produced in slide order back into row or column i
func (b Board) setLine(i int, s lineStrategy, line []int) {
	if s.reversed {
		line = reversed(line)
	}
	for j, v := range line {
		if s.columns {
			b[j][i] = v
		} else {
			b[i][j] = v
		}
	}
}

// ApplyMove slides every row or column of the board in the given direction
// and reports whether any cell changed. The input board is left untouched.
func ApplyMove(b Board, dir Direction) (Board, bool) {
	s, ok := strategies[dir]
	if !ok {
		return b.Clone(), false
	}
	out := b.Clone()
	for i := 0; i < len(b); i++ {
		out.setLine(i, s, SlideLine(b.line(i, s)))
	}
	return out, Changed(b, out)
}

// Changed reports whether any cell differs between the two boards
func Changed(before, after Board) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if len(before[i]) != len(after[i]) {
			return true
		}
		for j := range before[i] {
			if before[i][j] != after[i][j] {
				return true
			}
		}
	}
	return false
}

// EmptyCells returns the coordinates of every empty cell in row-major order
func (b Board) EmptyCells() []Position {
	var cells []Position
	for r, row := range b {
		for c, v := range row {
			if v == 0 {
				cells = append(cells, Position{Row: r, Col: c})
			}
		}
	}
	return cells
}

// SpawnTile places a 2 into an empty cell chosen uniformly by src.
// It returns false and the unchanged board when no cell is empty.
func SpawnTile(b Board, src Source) (Board, Position, bool) {
	empty := b.EmptyCells()
	if len(empty) == 0 {
		return b, Position{}, false
	}
	pos := empty[src.IntN(len(empty))]
	out := b.Clone()
	out[pos.Row][pos.Col] = SpawnValue
	return out, pos, true
}

// CanMove reports whether a move in dir would change the board
func CanMove(b Board, dir Direction) bool {
	_, changed := ApplyMove(b, dir)
	return changed
}

// PossibleMoves returns every direction that would change the board
func PossibleMoves(b Board) []Direction {
	var moves []Direction
	for _, dir := range Directions {
		if CanMove(b, dir) {
			moves = append(moves, dir)
		}
	}
	return moves
}

// HasLegalMove reports whether any direction would change the board
func HasLegalMove(b Board) bool {
	for r, row := range b {
		for c, v := range row {
			if v == 0 {
				return true
			}
			if c+1 < len(row) && row[c+1] == v {
				return true
			}
			if r+1 < len(b) && b[r+1][c] == v {
				return true
			}
		}
	}
	return false
}

// String renders the board as rows of centered, equally wide cells
func (b Board) String() string {
	width := 1
	for _, row := range b {
		for _, v := range row {
			if v > 0 && len(strconv.Itoa(v)) > width {
				width = len(strconv.Itoa(v))
			}
		}
	}

	var sb strings.Builder
	for _, row := range b {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == 0 {
				cells[i] = strings.Repeat(" ", width)
				continue
			}
			cells[i] = center(strconv.Itoa(v), width)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
