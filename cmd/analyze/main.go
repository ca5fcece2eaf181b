// Command analyze simulates games on every configuration in a directory and
// prints how far each built-in strategy gets: average moves, average and best
// max tile, and how often each max tile was the final one.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/tiles/game/config"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/strategy"
)

// Analysis is the outcome of one strategy on one configuration
type Analysis struct {
	ConfigID string           `json:"config_id"`
	Strategy string           `json:"strategy"`
	Summary  strategy.Summary `json:"summary"`
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "simulate games per configuration and strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "configs", Usage: "configuration directory", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringSliceFlag{Name: "strategy", Value: strategy.Names, Usage: "strategies to compare"},
			&cli.IntFlag{Name: "games", Value: 20, Usage: "games per configuration and strategy"},
			&cli.IntFlag{Name: "max-moves", Value: 10000, Usage: "move cap per game"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "first seed; game i uses seed+i"},
			&cli.BoolFlag{Name: "json", Usage: "print results as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			results, err := analyzeDir(cmd.String("dir"), cmd.StringSlice("strategy"),
				int(cmd.Int("games")), int(cmd.Int("max-moves")), uint64(cmd.Int("seed")))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printAnalyses(os.Stdout, results)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func analyzeDir(dir string, strategies []string, games, maxMoves int, seed uint64) ([]Analysis, error) {
	manager, err := config.NewManager(dir)
	if err != nil {
		return nil, err
	}
	infos, err := manager.ListConfigs()
	if err != nil {
		return nil, err
	}

	var results []Analysis
	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			return nil, err
		}
		for _, name := range strategies {
			summary, err := analyzeConfig(cfg, name, games, maxMoves, seed)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", info.ConfigID, name, err)
			}
			results = append(results, Analysis{ConfigID: info.ConfigID, Strategy: name, Summary: summary})
		}
	}
	return results, nil
}

// analyzeConfig plays games with the named strategy; game i draws spawns and
// strategy randomness from seed+i
func analyzeConfig(cfg *engine.GameConfig, name string, games, maxMoves int, seed uint64) (strategy.Summary, error) {
	results := make([]strategy.Result, 0, games)
	for i := 0; i < games; i++ {
		s, err := strategy.ByName(name, engine.NewSeededSource(seed+uint64(i)))
		if err != nil {
			return strategy.Summary{}, err
		}
		res, err := strategy.Play(cfg, s, engine.NewSeededSource(seed+uint64(i)), maxMoves)
		if err != nil {
			return strategy.Summary{}, err
		}
		results = append(results, res)
	}
	return strategy.Summarize(results), nil
}

func printAnalyses(w io.Writer, results []Analysis) {
	current := ""
	for _, a := range results {
		if a.ConfigID != current {
			current = a.ConfigID
			fmt.Fprintf(w, "\n=== Analyzing %s ===\n", current)
		}
		s := a.Summary
		fmt.Fprintf(w, "%-8s games=%d avg_moves=%.1f avg_max=%.1f best=%d\n",
			a.Strategy, s.Games, s.AvgMoves, s.AvgMaxTile, s.BestTile)

		counts := make([]string, 0, len(s.TileCounts))
		for _, tile := range s.Tiles() {
			counts = append(counts, fmt.Sprintf("%d:%d", tile, s.TileCounts[tile]))
		}
		fmt.Fprintf(w, "         max tiles %s\n", strings.Join(counts, " "))
	}
}
