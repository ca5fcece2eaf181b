// Command autoplay plays games against a running server using one of the
// built-in strategies, resetting the board between attempts.
//
//	go run ./cmd/autoplay --url http://localhost:8080 --strategy greedy --attempts 5 --target 512
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/strategy"
)

const sessionFile = ".session"

// options holds the tuning knobs of a run
type options struct {
	maxMoves int
	attempts int
	batch    int
	target   int
	delay    time.Duration
	verbose  bool
}

// attemptResult is what one attempt reached before stopping
type attemptResult struct {
	Moves   int
	MaxTile int
	Stuck   bool
}

func main() {
	_ = godotenv.Load()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "play games on a tiles server with a built-in strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL", Sources: cli.EnvVars("TILES_URL")},
			&cli.StringFlag{Name: "config", Usage: "configuration for a new session (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.StringFlag{Name: "strategy", Value: "corner", Usage: "one of corner, greedy, random"},
			&cli.IntFlag{Name: "max-moves", Value: 3000, Usage: "maximum moves per attempt"},
			&cli.IntFlag{Name: "attempts", Value: 1, Usage: "number of boards to play"},
			&cli.IntFlag{Name: "batch", Value: 1, Usage: "moves planned per request; more than 1 uses bulk moves"},
			&cli.IntFlag{Name: "target", Usage: "stop once this tile appears (0 plays until stuck)"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between requests"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every request"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := strategy.ByName(cmd.String("strategy"), nil)
			if err != nil {
				return err
			}
			opts := options{
				maxMoves: int(cmd.Int("max-moves")),
				attempts: int(cmd.Int("attempts")),
				batch:    int(cmd.Int("batch")),
				target:   int(cmd.Int("target")),
				delay:    cmd.Duration("delay"),
				verbose:  cmd.Bool("verbose"),
			}
			opts.batch = max(1, min(opts.batch, engine.MaxBulkMoves))

			log.Printf("Connecting to game server at %s", cmd.String("url"))
			client := NewClient(cmd.String("url"))
			if err := openSession(ctx, client, cmd.String("continue"), cmd.String("config")); err != nil {
				return err
			}

			best, err := run(ctx, client, s, opts)
			if err != nil {
				return err
			}
			log.Printf("Best tile %d | session %s", best.MaxTile, client.SessionID())
			if opts.target > 0 && best.MaxTile < opts.target {
				return cli.Exit(fmt.Sprintf("target %d not reached", opts.target), 1)
			}
			return nil
		},
	}
}

// openSession resumes the given or saved session, falling back to a new one
func openSession(ctx context.Context, client *Client, resumeID, configID string) error {
	if resumeID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			resumeID = string(bytes.TrimSpace(data))
		}
	}

	if resumeID != "" {
		client.Use(resumeID)
		_, err := client.GetState(ctx)
		if err == nil {
			log.Printf("Resuming session: %s", resumeID)
			return nil
		}
		log.Printf("Failed to resume session %s (may be expired): %v", resumeID, err)
	}

	state, err := client.CreateSession(ctx, configID)
	if err != nil {
		return err
	}
	log.Printf("Session created: %s (%s, %dx%d)", client.SessionID(), state.ConfigName, state.GridSize, state.GridSize)

	if err := os.WriteFile(sessionFile, []byte(client.SessionID()), 0644); err != nil {
		log.Printf("Warning: failed to save session ID: %v", err)
	}
	return nil
}

// run plays opts.attempts boards from a fresh reset each and returns the best attempt
func run(ctx context.Context, client *Client, s strategy.Strategy, opts options) (attemptResult, error) {
	var best attemptResult
	for attempt := 1; attempt <= opts.attempts; attempt++ {
		state, err := client.Reset(ctx)
		if err != nil {
			return best, err
		}

		res, err := playAttempt(ctx, client, s, state, opts)
		if err != nil {
			return best, err
		}
		log.Printf("Attempt %d/%d: moves=%d max=%d stuck=%v", attempt, opts.attempts, res.Moves, res.MaxTile, res.Stuck)

		if res.MaxTile > best.MaxTile {
			best = res
		}
		if opts.target > 0 && best.MaxTile >= opts.target {
			log.Printf("Reached %d on attempt %d", best.MaxTile, attempt)
			break
		}
	}
	return best, nil
}

func playAttempt(ctx context.Context, client *Client, s strategy.Strategy, state *engine.GameState, opts options) (attemptResult, error) {
	var res attemptResult
	for !state.NoMovesLeft && res.Moves < opts.maxMoves {
		if opts.target > 0 && state.MaxTile >= opts.target {
			break
		}

		moves := plan(s, state.Board, min(opts.batch, opts.maxMoves-res.Moves))
		if len(moves) == 0 {
			break
		}

		if len(moves) == 1 {
			result, err := client.Move(ctx, moves[0])
			if err != nil {
				return res, err
			}
			if opts.verbose {
				log.Printf("%s changed=%v max=%d", moves[0], result.Changed, result.GameState.MaxTile)
			}
			state = result.GameState
			res.Moves++
		} else {
			result, err := client.BulkMove(ctx, moves)
			if err != nil {
				return res, err
			}
			if opts.verbose {
				log.Printf("bulk %d/%d changed=%d max=%d->%d", result.MovesExecuted, result.RequestedMoves,
					result.Changes, result.MaxTileBefore, result.MaxTileAfter)
			}
			state = result.GameState
			res.Moves += result.MovesExecuted
		}

		if opts.delay > 0 {
			time.Sleep(opts.delay)
		}
	}

	res.MaxTile = state.MaxTile
	res.Stuck = state.NoMovesLeft
	return res, nil
}

// plan picks up to n moves ahead on a local copy of the board. Spawns are not
// predicted, so later moves in a batch may turn out to be no-ops on the server.
func plan(s strategy.Strategy, b engine.Board, n int) []engine.Direction {
	var moves []engine.Direction
	for len(moves) < n {
		dir, ok := s.NextMove(b)
		if !ok {
			break
		}
		moves = append(moves, dir)
		b, _ = engine.ApplyMove(b, dir)
	}
	return moves
}
