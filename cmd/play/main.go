// Command play runs a single local game in the terminal.
//
//	go run ./cmd/play --config big --seed 42
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/tiles/game/config"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/tui"
)

func main() {
	_ = godotenv.Load()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "slide tiles in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory holding the game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigName,
				Usage:   "configuration name",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "seed for tile spawns (0 picks a random seed)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			eng, err := newEngine(cmd.String("config-dir"), cmd.String("config"), uint64(cmd.Int("seed")))
			if err != nil {
				return err
			}

			final, err := tea.NewProgram(tui.New(eng), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("run program: %w", err)
			}
			if m, ok := final.(tui.Model); ok {
				state := m.Engine().GetState()
				fmt.Printf("Max tile %d after %d moves\n", state.MaxTile, state.TotalMoves)
			}
			return nil
		},
	}
}

// newEngine loads the named configuration; seed 0 means non-deterministic spawns
func newEngine(configDir, name string, seed uint64) (*engine.GameEngine, error) {
	manager, err := config.NewManager(configDir)
	if err != nil {
		return nil, err
	}
	cfg, err := manager.LoadConfig(name)
	if err != nil {
		return nil, err
	}

	src := engine.NewSource()
	if seed != 0 {
		src = engine.NewSeededSource(seed)
	}
	return engine.NewEngineWithSource(cfg, src)
}
