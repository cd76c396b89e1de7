// Command sokoban solves Sokoban puzzles and serves them for play.
//
// It has three commands:
//  1. "solve" – reads a board from a file or stdin and prints a shortest solution
//  2. "serve" – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  3. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, puzzle and session directories, solver limits,
// debug logging, and optional ngrok tunneling for external access.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/sokoban/api"
	"github.com/wricardo/sokoban/game/config"
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
	"github.com/wricardo/sokoban/transport/mcp"
	"github.com/wricardo/sokoban/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sokoban Solver"
)

const banner = `Sokoban Solver

Type the board one row at a time and finish with an empty line,
or type the name of a .txt file holding the board.

  #  wall          $  block         .  target
  *  block on a target              @  player
  +  player on a target             (space) floor
`

// serverOptions collects the flags shared by serve and mcp
type serverOptions struct {
	host        string
	port        int
	puzzleDir   string
	sessionsDir string
	solver      service.SolverOptions

	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// cliSolverOptions are the solve command's defaults: no state limit and no
// timeout. serve and mcp default to service.DefaultSolverOptions.
var cliSolverOptions = service.SolverOptions{Workers: 1}

func solverFlags(defaults service.SolverOptions) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "max-states",
			Value:   defaults.MaxStates,
			Usage:   "abort a search after visiting this many boards (0 = unlimited)",
			Sources: cli.EnvVars("SOLVER_MAX_STATES"),
		},
		&cli.IntFlag{
			Name:    "workers",
			Value:   defaults.Workers,
			Usage:   "goroutines expanding each search layer",
			Sources: cli.EnvVars("SOLVER_WORKERS"),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Value:   defaults.Timeout,
			Usage:   "abort a search after this long (0 = no limit)",
			Sources: cli.EnvVars("SOLVER_TIMEOUT"),
		},
	}
}

func serverFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "puzzle-dir",
			Value:   "puzzles",
			Usage:   "directory containing puzzles",
			Sources: cli.EnvVars("PUZZLE_DIR"),
		},
		&cli.StringFlag{
			Name:    "sessions-dir",
			Value:   "sessions",
			Usage:   "directory where sessions are persisted",
			Sources: cli.EnvVars("SESSIONS_DIR"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "expose the server through an ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "custom ngrok domain",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}, solverFlags(service.DefaultSolverOptions)...)
}

func readSolverOptions(cmd *cli.Command) service.SolverOptions {
	return service.SolverOptions{
		MaxStates: cmd.Int("max-states"),
		Workers:   cmd.Int("workers"),
		Timeout:   cmd.Duration("timeout"),
	}
}

func readServerOptions(cmd *cli.Command) serverOptions {
	return serverOptions{
		host:        cmd.String("host"),
		port:        cmd.Int("port"),
		puzzleDir:   cmd.String("puzzle-dir"),
		sessionsDir: cmd.String("sessions-dir"),
		solver:      readSolverOptions(cmd),
		ngrok:       cmd.Bool("ngrok"),
		ngrokAuth:   cmd.String("ngrok-auth"),
		ngrokDomain: cmd.String("ngrok-domain"),
	}
}

// newApp builds the command tree. in and out back the interactive solver.
func newApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "sokoban",
		Usage:   "solve Sokoban puzzles and serve them for play",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "solve",
				Usage:     "print a shortest solution for a board read from FILE or stdin",
				ArgsUsage: "[FILE]",
				Flags:     solverFlags(cliSolverOptions),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSolve(ctx, in, out, cmd.Args().First(), readSolverOptions(cmd))
				},
			},
			{
				Name:  "serve",
				Usage: "run the HTTP server with API, WebSocket, and MCP endpoint",
				Flags: serverFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runHTTPServer(ctx, readServerOptions(cmd))
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp"},
				Usage:   "run an MCP stdio server backed by a local HTTP API",
				Flags:   serverFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCPWithInternalServer(ctx, readServerOptions(cmd))
				},
			},
		},
	}
}

// loadBoard reads the board from path, or interactively from in
func loadBoard(in io.Reader, out io.Writer, path string) (*engine.Board, error) {
	var layout []string
	if path != "" {
		puzzle, err := engine.LoadPuzzleConfig(path)
		if err != nil {
			return nil, err
		}
		layout = puzzle.Layout
	} else {
		fmt.Fprint(out, banner, "\n")
		lines, err := engine.ReadBoardLines(in, out)
		if err != nil {
			return nil, err
		}
		layout = lines
	}
	return engine.Parse(layout)
}

// runSolve loads a board and prints its shortest solution. A board without
// a solution is not an error.
func runSolve(ctx context.Context, in io.Reader, out io.Writer, path string, opts service.SolverOptions) error {
	board, err := loadBoard(in, out, path)
	if err != nil {
		return err
	}

	logger := log.WithField("component", "solver")
	solveOpts := []engine.SolveOption{
		engine.WithMaxStates(opts.MaxStates),
		engine.WithWorkers(opts.Workers),
		engine.WithLogger(logger),
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	started := time.Now()
	sol, err := engine.SolveContext(ctx, board, solveOpts...)
	if err != nil {
		return err
	}
	if sol == nil {
		fmt.Fprintln(out, "no solution found")
		return nil
	}

	logger.WithFields(log.Fields{
		"visited":  sol.Stats.Visited,
		"expanded": sol.Stats.Expanded,
		"elapsed":  time.Since(started),
	}).Debug("search finished")

	fmt.Fprintln(out, sol.String())
	return nil
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts serverOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gameService, err := initializeServices(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", opts.host, opts.port)
	handler := newRouter(api.NewServer(gameService, hub), mcp.NewClient(fmt.Sprintf("http://%s", addr)))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errc := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithFields(log.Fields{
			"api":       fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("%s v%s listening on %s", AppName, Version, addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errc:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("server stopped")
	return err
}

// newRouter mounts the API at the root and the MCP proxy at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/mcp", mcpClient)
	return mainRouter
}

// runNgrokTunnel serves handler through ngrok until ctx is done
func runNgrokTunnel(ctx context.Context, opts serverOptions, handler http.Handler) {
	logger := log.WithField("component", "ngrok")
	if opts.ngrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	tunnel := ngrokConfig.HTTPEndpoint()
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		logger.WithField("domain", opts.ngrokDomain).Info("using custom ngrok domain")
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		logger.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	logger.WithFields(log.Fields{
		"api":       url + "/api",
		"websocket": url + "/ws?session=<session_id>",
		"mcp":       url + "/mcp",
	}).Infof("ngrok tunnel established: %s", url)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.WithError(err).Warn("ngrok server error")
	}
	logger.Info("ngrok tunnel closed")
}

// initializeServices wires session/config managers and the game service.
// Background routines stop when ctx is done.
func initializeServices(ctx context.Context, opts serverOptions) (service.GameService, error) {
	configManager, err := config.NewManager(opts.puzzleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(opts.sessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.WithError(err).Warn("failed to load persisted sessions")
	}

	gameService := service.NewGameService(sessionManager, configManager,
		service.WithSolverOptions(opts.solver))

	go sessionCleanupRoutine(ctx, sessionManager, time.Hour, 24*time.Hour)
	go filesystemSyncRoutine(ctx, sessionManager, persistence, 5*time.Second)

	return gameService, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(maxAge)
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their files are deleted
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncWithFilesystem(manager, persistence)
		}
	}
}

func syncWithFilesystem(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.WithField("session", sess.ID).Debug("pruned session from memory (file deleted)")
		}
	}

	if pruned > 0 {
		log.WithField("pruned", pruned).Info("filesystem sync removed orphaned sessions")
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening on host:port, otherwise it starts one on a random
// loopback port.
func runStdioMCPWithInternalServer(ctx context.Context, opts serverOptions) error {
	// Stdout carries the protocol
	log.SetOutput(os.Stderr)

	externalURL := fmt.Sprintf("http://%s:%d", opts.host, opts.port)
	baseURL := externalURL

	if !apiAvailable(ctx, externalURL) {
		gameService, err := initializeServices(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr())
		log.WithField("addr", listener.Addr().String()).Info("started internal HTTP server for MCP stdio")
	} else {
		log.WithField("url", externalURL).Info("using external API server for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a Sokoban API answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
