// Command autoplay plays a puzzle end to end through the REST API: it
// creates (or resumes) a session, asks the server for a shortest solution,
// replays it with bulk moves and checks that the puzzle ends up solved.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/sokoban/game/engine"
)

var errNoSolution = errors.New("puzzle has no solution")

type options struct {
	configName  string
	continueID  string
	sessionFile string
	chunk       int
	delay       time.Duration
}

// Report summarises a finished run
type Report struct {
	SessionID string
	Moves     int
	Pushes    int
	Notation  string
	State     *engine.GameState
}

// startSession resumes the requested or saved session, or creates a new one
func startSession(ctx context.Context, client *Client, opts options) error {
	savedID := opts.continueID
	if savedID == "" && opts.sessionFile != "" {
		if data, err := os.ReadFile(opts.sessionFile); err == nil {
			savedID = string(bytes.TrimSpace(data))
		}
	}

	if savedID != "" {
		client.sessionID = savedID
		_, err := client.GetState(ctx)
		if err == nil {
			log.WithField("session", savedID).Info("resuming session")
			return nil
		}
		log.WithField("session", savedID).WithError(err).Warn("failed to resume session, creating a new one")
	}

	if _, err := client.CreateSession(ctx, opts.configName); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	log.WithField("session", client.sessionID).Info("session created")

	if opts.sessionFile != "" {
		if err := os.WriteFile(opts.sessionFile, []byte(client.sessionID), 0644); err != nil {
			log.WithError(err).Warn("failed to save session ID")
		}
	}
	return nil
}

// play solves the session's puzzle from its initial board and replays the
// solution in chunks of opts.chunk moves
func play(ctx context.Context, client *Client, opts options) (*Report, error) {
	if err := startSession(ctx, client, opts); err != nil {
		return nil, err
	}

	state, err := client.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset: %w", err)
	}
	logger := log.WithFields(log.Fields{
		"session": client.sessionID,
		"puzzle":  state.ConfigName,
	})

	solution, err := client.Solve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to solve: %w", err)
	}
	if !solution.Solvable {
		return nil, fmt.Errorf("%w (%d states visited)", errNoSolution, solution.StatesVisited)
	}
	logger.WithFields(log.Fields{
		"moves":   solution.MoveCount,
		"visited": solution.StatesVisited,
	}).Info("solution found")

	chunk := opts.chunk
	if chunk <= 0 || chunk > engine.MaxBulkMoves {
		chunk = engine.MaxBulkMoves
	}

	played := 0
	for played < len(solution.Moves) {
		batch := solution.Moves[played:min(played+chunk, len(solution.Moves))]
		result, err := client.BulkMove(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("bulk move failed: %w", err)
		}
		state = result.GameState
		played += result.MovesExecuted

		if result.MovesExecuted < len(batch) && !result.Solved {
			return nil, fmt.Errorf("replay stopped on move %d: %s", played+1, result.StoppedReason)
		}
		logger.WithFields(log.Fields{
			"played":    played,
			"on_target": fmt.Sprintf("%d/%d", state.BlocksOnTarget, state.TotalBlocks),
		}).Debug("replayed chunk")

		if opts.delay > 0 && played < len(solution.Moves) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.delay):
			}
		}
	}

	if state == nil || !state.Solved {
		// An empty solution means the initial board was already solved
		if state, err = client.GetState(ctx); err != nil {
			return nil, err
		}
		if !state.Solved {
			return nil, fmt.Errorf("replayed %d moves but the puzzle is not solved", played)
		}
	}

	return &Report{
		SessionID: client.sessionID,
		Moves:     played,
		Pushes:    state.Pushes,
		Notation:  solution.Notation,
		State:     state,
	}, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "solve a puzzle through the server and replay the solution",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "server URL"},
			&cli.StringFlag{Name: "config", Usage: "puzzle ID to play"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "file remembering the last session ID"},
			&cli.IntFlag{Name: "chunk", Value: engine.MaxBulkMoves, Usage: "moves per bulk request"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between bulk requests"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("v") {
				log.SetLevel(log.DebugLevel)
			}
			log.WithField("url", cmd.String("url")).Info("connecting to server")

			report, err := play(ctx, NewClient(cmd.String("url")), options{
				configName:  cmd.String("config"),
				continueID:  cmd.String("continue"),
				sessionFile: cmd.String("session-file"),
				chunk:       cmd.Int("chunk"),
				delay:       cmd.Duration("delay"),
			})
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"session": report.SessionID,
				"moves":   report.Moves,
				"pushes":  report.Pushes,
			}).Infof("🎉 solved: %s", report.Notation)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
