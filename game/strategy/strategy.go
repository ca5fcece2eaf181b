package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wricardo/tiles/game/engine"
)

// Strategy picks the next direction for a board. ok is false when no
// direction changes the board.
type Strategy interface {
	Name() string
	NextMove(b engine.Board) (dir engine.Direction, ok bool)
}

// Names lists the strategies ByName understands
var Names = []string{"corner", "greedy", "random"}

// ByName returns the named strategy. src is only used by "random"; nil
// falls back to an unseeded source.
func ByName(name string, src engine.Source) (Strategy, error) {
	switch strings.ToLower(name) {
	case "corner", "":
		return NewCorner(), nil
	case "greedy":
		return NewGreedy(), nil
	case "random":
		return NewRandom(src), nil
	}
	return nil, fmt.Errorf("unknown strategy %q (choose one of %s)", name, strings.Join(Names, ", "))
}

// Corner pushes tiles toward the bottom-left corner: it tries down, left,
// right and up in that order and takes the first one that changes the board.
type Corner struct {
	order []engine.Direction
}

func NewCorner() *Corner {
	return &Corner{order: []engine.Direction{engine.Down, engine.Left, engine.Right, engine.Up}}
}

func (c *Corner) Name() string { return "corner" }

func (c *Corner) NextMove(b engine.Board) (engine.Direction, bool) {
	for _, dir := range c.order {
		if engine.CanMove(b, dir) {
			return dir, true
		}
	}
	return "", false
}

// Greedy looks one move ahead and takes the direction whose resulting board
// scores best. Spawns are ignored.
type Greedy struct{}

func NewGreedy() *Greedy { return &Greedy{} }

func (g *Greedy) Name() string { return "greedy" }

func (g *Greedy) NextMove(b engine.Board) (engine.Direction, bool) {
	type candidate struct {
		dir   engine.Direction
		score int
		rank  int
	}

	var candidates []candidate
	for i, dir := range engine.Directions {
		next, changed := engine.ApplyMove(b, dir)
		if !changed {
			continue
		}
		candidates = append(candidates, candidate{dir: dir, score: Score(b, next), rank: i})
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rank < candidates[j].rank
	})
	return candidates[0].dir, true
}

// Score rates the board produced by a move. More empty cells, more merges
// and a largest tile sitting in a corner all count in its favour.
func Score(before, after engine.Board) int {
	merges := engine.CountTiles(before) - engine.CountTiles(after)
	score := len(after.EmptyCells())*16 + merges*8

	max := engine.MaxTile(after)
	n := after.Size()
	for _, p := range []engine.Position{{Row: 0, Col: 0}, {Row: 0, Col: n - 1}, {Row: n - 1, Col: 0}, {Row: n - 1, Col: n - 1}} {
		if after[p.Row][p.Col] == max {
			score += max
			break
		}
	}

	return score + monotonicity(after)
}

// monotonicity counts neighbouring pairs that do not increase away from the
// left and bottom edges
func monotonicity(b engine.Board) int {
	n := b.Size()
	total := 0
	for r := 0; r < n; r++ {
		for c := 0; c+1 < n; c++ {
			if b[r][c] >= b[r][c+1] {
				total++
			}
		}
	}
	for c := 0; c < n; c++ {
		for r := n - 1; r > 0; r-- {
			if b[r][c] >= b[r-1][c] {
				total++
			}
		}
	}
	return total
}

// Random picks uniformly among the directions that change the board
type Random struct {
	src engine.Source
}

func NewRandom(src engine.Source) *Random {
	if src == nil {
		src = engine.NewSource()
	}
	return &Random{src: src}
}

func (r *Random) Name() string { return "random" }

func (r *Random) NextMove(b engine.Board) (engine.Direction, bool) {
	moves := engine.PossibleMoves(b)
	if len(moves) == 0 {
		return "", false
	}
	return moves[r.src.IntN(len(moves))], true
}
