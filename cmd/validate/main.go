// Command validate checks the game configuration JSON files in a directory.
// For every file it verifies:
//   - the JSON parses and carries no unknown fields
//   - the engine accepts the configuration (name, sizes, spawn counts, messages)
//   - the "moved" message has exactly one %s for the direction
//   - a simulated game with the corner strategy can make at least one move
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/strategy"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file
func validateConfig(filePath string, simulate bool) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
	}
	if !result.Valid {
		return result
	}

	var sim strategy.Result
	if simulate {
		var err error
		sim, err = strategy.Play(&config, strategy.NewCorner(), engine.NewSeededSource(1), 0)
		if err != nil {
			result.fail("Simulation failed: %v", err)
			return result
		}
		if sim.Moves == 0 {
			result.fail("Board starts with no legal move (initial_tiles %d on %dx%d)", config.InitialTiles, config.GridSize, config.GridSize)
			return result
		}
	}

	result.info("Name: %s", config.Name)
	result.info("Grid: %dx%d", config.GridSize, config.GridSize)
	result.info("Initial tiles: %d", config.InitialTiles)
	result.info("Spawns per move: %d", config.SpawnsPerMove)
	if id := strings.TrimSuffix(result.File, ".json"); id != config.Name {
		result.info("Config ID %q differs from name %q", id, config.Name)
	}
	if simulate {
		result.info("Simulated: corner strategy reached %d in %d moves", sim.MaxTile, sim.Moves)
	}

	return result
}

// validateDir validates every *.json file in dir, printing a concise report.
// It returns false when any file is invalid.
func validateDir(dir string, simulate bool) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file, simulate)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
	}
	return allValid, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "validate",
		Usage: "validate game configuration files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "configs",
				Usage:   "directory holding the *.json configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:  "simulate",
				Value: true,
				Usage: "play one seeded game per config to check it is playable",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ok, err := validateDir(cmd.String("dir"), cmd.Bool("simulate"))
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
