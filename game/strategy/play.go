package strategy

import (
	"sort"

	"github.com/wricardo/tiles/game/engine"
)

// Result summarizes one simulated game
type Result struct {
	Moves   int  `json:"moves"`
	MaxTile int  `json:"max_tile"`
	Sum     int  `json:"sum"`
	Stuck   bool `json:"stuck"`
}

// Play runs s against a fresh engine until the board is stuck or maxMoves
// moves were made. maxMoves <= 0 means no limit.
func Play(config *engine.GameConfig, s Strategy, src engine.Source, maxMoves int) (Result, error) {
	eng, err := engine.NewEngineWithSource(config, src)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for maxMoves <= 0 || res.Moves < maxMoves {
		if eng.IsStuck() {
			res.Stuck = true
			break
		}
		dir, ok := s.NextMove(eng.GetBoard())
		if !ok {
			res.Stuck = true
			break
		}
		eng.Move(dir)
		res.Moves++
	}

	board := eng.GetBoard()
	res.MaxTile = engine.MaxTile(board)
	res.Sum = engine.SumTiles(board)
	return res, nil
}

// Summary aggregates a batch of results
type Summary struct {
	Games      int         `json:"games"`
	AvgMoves   float64     `json:"avg_moves"`
	AvgMaxTile float64     `json:"avg_max_tile"`
	BestTile   int         `json:"best_tile"`
	TileCounts map[int]int `json:"tile_counts"` // max tile -> games reaching it as their max
}

func Summarize(results []Result) Summary {
	s := Summary{Games: len(results), TileCounts: make(map[int]int)}
	if len(results) == 0 {
		return s
	}

	moves, tiles := 0, 0
	for _, r := range results {
		moves += r.Moves
		tiles += r.MaxTile
		s.TileCounts[r.MaxTile]++
		if r.MaxTile > s.BestTile {
			s.BestTile = r.MaxTile
		}
	}
	s.AvgMoves = float64(moves) / float64(len(results))
	s.AvgMaxTile = float64(tiles) / float64(len(results))
	return s
}

// Tiles returns the distinct max tiles of the summary in ascending order
func (s Summary) Tiles() []int {
	tiles := make([]int, 0, len(s.TileCounts))
	for t := range s.TileCounts {
		tiles = append(tiles, t)
	}
	sort.Ints(tiles)
	return tiles
}
