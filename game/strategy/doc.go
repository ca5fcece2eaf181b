// Package strategy holds simple move pickers for automated play and a
// simulator that runs them against a local engine.
//
// Strategies only look at the board; none of them predict spawns:
//   - corner: fixed preference down, left, right, up
//   - greedy: one-move lookahead scored by Score
//   - random: uniform over the directions that change the board
//
// Usage:
//
//	s, err := strategy.ByName("greedy", nil)
//	res, err := strategy.Play(engine.DefaultConfig(), s, engine.NewSeededSource(42), 0)
//	fmt.Println(res.MaxTile, res.Moves)
package strategy
