package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sokoban/api"
	"github.com/wricardo/sokoban/game/config"
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
	"github.com/wricardo/sokoban/transport/mcp"
)

const corridor = "#######\n#@ $ .#\n#     #\n#######\n"

func writePuzzle(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write puzzle: %v", err)
	}
	return path
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Sokoban Solver" {
		t.Errorf("Expected app name %q, got %q", "Sokoban Solver", AppName)
	}
}

func TestRunSolve(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		expected string
	}{
		{
			name:     "text file",
			file:     "corridor.txt",
			content:  corridor,
			expected: "length: 3 moves: [ → → → ]\n",
		},
		{
			name:     "json document",
			file:     "corridor.json",
			content:  `{"name":"Corridor","description":"one block","layout":["#######","#@ $ .#","#     #","#######"]}`,
			expected: "length: 3 moves: [ → → → ]\n",
		},
		{
			name:     "already solved",
			file:     "solved.txt",
			content:  "####\n#@*#\n####\n",
			expected: "length: 0 moves: [ ]\n",
		},
		{
			name:     "no solution",
			file:     "stuck.txt",
			content:  "#####\n#$@.#\n#####\n",
			expected: "no solution found\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePuzzle(t, tt.file, tt.content)

			var out bytes.Buffer
			if err := runSolve(context.Background(), nil, &out, path, service.SolverOptions{Workers: 1}); err != nil {
				t.Fatalf("runSolve failed: %v", err)
			}
			if out.String() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out.String())
			}
		})
	}
}

func TestSolverFlagDefaults(t *testing.T) {
	defaults := func(name string) (int, time.Duration) {
		t.Helper()
		for _, c := range newApp(nil, io.Discard).Commands {
			if c.Name != name {
				continue
			}
			var states int
			var timeout time.Duration
			for _, f := range c.Flags {
				switch f := f.(type) {
				case *cli.IntFlag:
					if f.Name == "max-states" {
						states = f.Value
					}
				case *cli.DurationFlag:
					if f.Name == "timeout" {
						timeout = f.Value
					}
				}
			}
			return states, timeout
		}
		t.Fatalf("no %s command", name)
		return 0, 0
	}

	if states, timeout := defaults("solve"); states != 0 || timeout != 0 {
		t.Errorf("Expected solve to be unbounded, got max-states=%d timeout=%v", states, timeout)
	}
	states, timeout := defaults("serve")
	if states != service.DefaultSolverOptions.MaxStates || timeout != service.DefaultSolverOptions.Timeout {
		t.Errorf("Expected serve to use the service defaults, got max-states=%d timeout=%v", states, timeout)
	}
}

func TestRunSolve_WideBoardFileAndStdin(t *testing.T) {
	row := "#@$." + strings.Repeat(" ", engine.MaxLayoutColumns) + "#"
	expected := "length: 1 moves: [ → ]\n"

	var fromFile bytes.Buffer
	path := writePuzzle(t, "wide.txt", row+"\n")
	if err := runSolve(context.Background(), nil, &fromFile, path, service.SolverOptions{Workers: 1}); err != nil {
		t.Fatalf("runSolve from file failed: %v", err)
	}
	if fromFile.String() != expected {
		t.Errorf("Expected %q from file, got %q", expected, fromFile.String())
	}

	var fromStdin bytes.Buffer
	if err := runSolve(context.Background(), strings.NewReader(row+"\n\n"), &fromStdin, "", service.SolverOptions{Workers: 1}); err != nil {
		t.Fatalf("runSolve from stdin failed: %v", err)
	}
	if !strings.HasSuffix(fromStdin.String(), expected) {
		t.Errorf("Expected stdin output to end with %q, got %q", expected, fromStdin.String())
	}
}

func TestRunSolve_Interactive(t *testing.T) {
	input := strings.Join([]string{
		"#######",
		"#@ $ .x",
		"#@ $ .#",
		"#####",
		"#     #",
		"#######",
		"",
	}, "\n")

	var out bytes.Buffer
	err := runSolve(context.Background(), strings.NewReader(input), &out, "", service.SolverOptions{Workers: 2})
	if err != nil {
		t.Fatalf("runSolve failed: %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, banner) {
		t.Error("Expected the banner before reading the board")
	}
	if strings.Count(got, "--> [") != 2 {
		t.Errorf("Expected two rejected lines, got output:\n%s", got)
	}
	if !strings.HasSuffix(got, "length: 3 moves: [ → → → ]\n") {
		t.Errorf("Expected the corridor solution, got output:\n%s", got)
	}
}

func TestRunSolve_Errors(t *testing.T) {
	t.Run("two players", func(t *testing.T) {
		path := writePuzzle(t, "two.txt", "######\n#@$.@#\n######\n")
		err := runSolve(context.Background(), nil, &bytes.Buffer{}, path, service.SolverOptions{})
		if !errors.Is(err, engine.ErrMalformedBoard) {
			t.Errorf("Expected ErrMalformedBoard, got %v", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		err := runSolve(context.Background(), strings.NewReader("\n"), &bytes.Buffer{}, "", service.SolverOptions{})
		if !errors.Is(err, engine.ErrEmptyBoard) {
			t.Errorf("Expected ErrEmptyBoard, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		err := runSolve(context.Background(), nil, &bytes.Buffer{}, filepath.Join(t.TempDir(), "nope.txt"), service.SolverOptions{})
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("state limit", func(t *testing.T) {
		path := writePuzzle(t, "corridor.txt", corridor)
		err := runSolve(context.Background(), nil, &bytes.Buffer{}, path, service.SolverOptions{MaxStates: 2, Workers: 1})
		if !errors.Is(err, engine.ErrSearchLimit) {
			t.Errorf("Expected ErrSearchLimit, got %v", err)
		}
	})
}

func TestApp_Solve(t *testing.T) {
	path := writePuzzle(t, "corridor.txt", corridor)

	var out bytes.Buffer
	app := newApp(strings.NewReader(""), &out)
	if err := app.Run(context.Background(), []string{"sokoban", "solve", "--workers", "2", path}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := out.String(); got != "length: 3 moves: [ → → → ]\n" {
		t.Errorf("Unexpected output %q", got)
	}
}

func newTestOptions(t *testing.T) serverOptions {
	t.Helper()
	puzzleDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(puzzleDir, "corridor.txt"), []byte(corridor), 0644); err != nil {
		t.Fatalf("Failed to write puzzle: %v", err)
	}
	return serverOptions{
		host:        "localhost",
		port:        8080,
		puzzleDir:   puzzleDir,
		sessionsDir: filepath.Join(t.TempDir(), "sessions"),
		solver:      service.DefaultSolverOptions,
	}
}

func TestInitializeServices(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameService, err := initializeServices(ctx, newTestOptions(t))
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	info, err := gameService.CreateSession(ctx, "corridor")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	result, err := gameService.Solve(ctx, info.ID)
	if err != nil {
		t.Fatalf("Failed to solve: %v", err)
	}
	if result.Notation != "length: 3 moves: [ → → → ]" {
		t.Errorf("Unexpected notation %q", result.Notation)
	}
}

func TestInitializeServices_InvalidPuzzleDir(t *testing.T) {
	opts := newTestOptions(t)
	opts.puzzleDir = "/non/existent/path"

	if _, err := initializeServices(context.Background(), opts); err == nil {
		t.Error("Expected error for non-existent puzzle directory")
	}
}

func TestSyncWithFilesystem(t *testing.T) {
	opts := newTestOptions(t)
	configs, err := config.NewManager(opts.puzzleDir)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	persistence, err := session.NewFilePersistence(opts.sessionsDir, configs)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	manager := session.NewManagerWithPersistence(persistence)

	puzzle, err := configs.LoadConfig("corridor")
	if err != nil {
		t.Fatalf("Failed to load puzzle: %v", err)
	}
	kept, _ := manager.Create("", puzzle)
	dropped, _ := manager.Create("", puzzle)

	if pruned := syncWithFilesystem(manager, persistence); pruned != 0 {
		t.Errorf("Expected nothing pruned, got %d", pruned)
	}

	if err := persistence.Delete(dropped.ID); err != nil {
		t.Fatalf("Failed to delete session file: %v", err)
	}
	if pruned := syncWithFilesystem(manager, persistence); pruned != 1 {
		t.Errorf("Expected 1 pruned session, got %d", pruned)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session in memory, got %d", manager.Count())
	}
	if _, err := manager.Get(kept.ID); err != nil {
		t.Errorf("Expected %s to survive the sync: %v", kept.ID, err)
	}
}

func TestNewRouter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameService, err := initializeServices(ctx, newTestOptions(t))
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	ts := httptest.NewServer(newRouter(api.NewServer(gameService, nil), mcp.NewClient("http://localhost:0")))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /api/health, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/mcp")
	if err != nil {
		t.Fatalf("MCP request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 from GET /mcp, got %d", resp.StatusCode)
	}

	if !apiAvailable(ctx, ts.URL) {
		t.Error("Expected the API to be reported as available")
	}
}

func TestAPIAvailable_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	if apiAvailable(context.Background(), url) {
		t.Error("Expected a closed server to be unavailable")
	}
}
