package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyedidia/generic/mapset"
)

var (
	unsolvableBoard = []string{
		"######",
		"#@ $ #",
		"######",
		"#   .#",
		"######",
	}
	twoBlockBoard = []string{
		"########",
		"#      #",
		"#@$ $..#",
		"########",
	}
	roomBoard = []string{
		"######",
		"#    #",
		"# $$ #",
		"# .. #",
		"#  @ #",
		"######",
	}
)

// refMove applies the move rule directly on a character grid
func refMove(grid [][]rune, dx, dy int) ([][]rune, bool) {
	py, px := -1, -1
	for y, row := range grid {
		for x, c := range row {
			if c == '@' || c == '+' {
				px, py = x, y
			}
		}
	}
	at := func(x, y int) rune {
		if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
			return '#'
		}
		return grid[y][x]
	}
	isBlock := func(c rune) bool { return c == '$' || c == '*' }
	isTarget := func(c rune) bool { return c == '.' || c == '*' || c == '+' }

	nx, ny := px+dx, py+dy
	next := at(nx, ny)
	if next == '#' {
		return nil, false
	}
	bx, by := nx+dx, ny+dy
	if isBlock(next) {
		beyond := at(bx, by)
		if beyond == '#' || isBlock(beyond) {
			return nil, false
		}
	}

	out := make([][]rune, len(grid))
	for y := range grid {
		out[y] = append([]rune(nil), grid[y]...)
	}
	leave := func(x, y int) {
		if isTarget(out[y][x]) {
			out[y][x] = '.'
		} else {
			out[y][x] = ' '
		}
	}
	if isBlock(next) {
		if isTarget(out[by][bx]) {
			out[by][bx] = '*'
		} else {
			out[by][bx] = '$'
		}
	}
	leave(px, py)
	if isTarget(out[ny][nx]) {
		out[ny][nx] = '+'
	} else {
		out[ny][nx] = '@'
	}
	return out, true
}

func refSolved(grid [][]rune) bool {
	for _, row := range grid {
		for _, c := range row {
			if c == '$' {
				return false
			}
		}
	}
	return true
}

func refGrid(lines []string) [][]rune {
	grid := make([][]rune, len(lines))
	for i, l := range lines {
		grid[i] = []rune(l)
	}
	return grid
}

func refKey(g [][]rune) string {
	var sb strings.Builder
	for _, row := range g {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

var refDeltas = [][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

// refReachable counts the distinct boards reachable from lines
func refReachable(lines []string) int {
	grid := refGrid(lines)
	seen := map[string]bool{refKey(grid): true}
	queue := [][][]rune{grid}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range refDeltas {
			next, ok := refMove(cur, d[0], d[1])
			if !ok || seen[refKey(next)] {
				continue
			}
			seen[refKey(next)] = true
			queue = append(queue, next)
		}
	}
	return len(seen)
}

// refShortest returns the length of a shortest solution, or -1
func refShortest(lines []string) int {
	grid := refGrid(lines)
	if refSolved(grid) {
		return 0
	}
	type item struct {
		grid  [][]rune
		depth int
	}
	seen := map[string]bool{refKey(grid): true}
	queue := []item{{grid, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range refDeltas {
			next, ok := refMove(cur.grid, d[0], d[1])
			if !ok {
				continue
			}
			if refSolved(next) {
				return cur.depth + 1
			}
			k := refKey(next)
			if seen[k] {
				continue
			}
			seen[k] = true
			queue = append(queue, item{next, cur.depth + 1})
		}
	}
	return -1
}

func TestSolveSinglePush(t *testing.T) {
	b := mustParse(t, "@$.")

	sol, ok := Solve(b)
	require.True(t, ok)
	assert.Equal(t, 1, sol.MoveCount)
	assert.Equal(t, []Direction{Right}, sol.Moves)
	assert.Equal(t, "length: 1 moves: [ → ]", sol.String())
}

func TestSolveAlreadySolved(t *testing.T) {
	b := mustParse(t, "#*@#")

	sol, ok := Solve(b)
	require.True(t, ok)
	assert.Equal(t, 0, sol.MoveCount)
	assert.Empty(t, sol.Moves)
	assert.Equal(t, "length: 0 moves: [ ]", sol.String())
}

func TestSolveUnsolvable(t *testing.T) {
	tests := map[string][]string{
		"block against wall": {"#$@.#"},
		"unreachable target": unsolvableBoard,
	}

	for name, layout := range tests {
		t.Run(name, func(t *testing.T) {
			sol, ok := Solve(mustParse(t, layout...))
			assert.False(t, ok)
			assert.Nil(t, sol)

			sol, err := SolveContext(context.Background(), mustParse(t, layout...))
			assert.NoError(t, err)
			assert.Nil(t, sol)
		})
	}
}

func TestSolveIsShortest(t *testing.T) {
	tests := map[string][]string{
		"single push":  {"@$."},
		"corridor":     {"#@ $ .#"},
		"two blocks":   twoBlockBoard,
		"room":         roomBoard,
		"default":      DefaultPuzzle.Layout,
		"around block": {"    ", " $. ", " @  "},
	}

	for name, layout := range tests {
		t.Run(name, func(t *testing.T) {
			b := mustParse(t, layout...)
			want := refShortest(layout)
			require.NotEqual(t, -1, want, "reference search found no solution")

			sol, ok := Solve(b)
			require.True(t, ok)
			assert.Equal(t, want, sol.MoveCount)
			assert.Len(t, sol.Moves, sol.MoveCount)

			end, err := Replay(b, sol.Moves)
			require.NoError(t, err)
			assert.True(t, end.IsSolved())
		})
	}
}

func TestSolveKnownLengths(t *testing.T) {
	sol, ok := Solve(mustParse(t, roomBoard...))
	require.True(t, ok)
	assert.Equal(t, 9, sol.MoveCount)

	sol, ok = Solve(mustParse(t, twoBlockBoard...))
	require.True(t, ok)
	assert.Equal(t, 15, sol.MoveCount)
}

func TestSolveDefaultPuzzle(t *testing.T) {
	b := mustParse(t, DefaultPuzzle.Layout...)

	sol, ok := Solve(b)
	require.True(t, ok)
	assert.Equal(t, 7, sol.MoveCount)
}

func TestSolvePrefersDirectionOrder(t *testing.T) {
	// Down-Right-Down and Right-Down-Down are both shortest; Down is tried first
	b := mustParse(t,
		"@  ",
		"   ",
		" $ ",
		" . ",
	)

	sol, ok := Solve(b)
	require.True(t, ok)
	assert.Equal(t, []Direction{Down, Right, Down}, sol.Moves)
	assert.Equal(t, []string{"down", "right", "down"}, sol.Names())
	assert.Equal(t, "↓ → ↓", sol.Arrows())
}

func TestSolveWorkersMatchSerial(t *testing.T) {
	for _, layout := range [][]string{twoBlockBoard, roomBoard, DefaultPuzzle.Layout, unsolvableBoard} {
		serial, err := SolveContext(context.Background(), mustParse(t, layout...))
		require.NoError(t, err)

		for _, workers := range []int{2, 4, 8} {
			parallel, err := SolveContext(context.Background(), mustParse(t, layout...), WithWorkers(workers))
			require.NoError(t, err)
			if diff := cmp.Diff(serial, parallel); diff != "" {
				t.Errorf("workers=%d result mismatch (-serial +parallel):\n%s", workers, diff)
			}
		}
	}
}

func TestSolveMaxStates(t *testing.T) {
	b := mustParse(t, twoBlockBoard...)

	sol, err := SolveContext(context.Background(), b, WithMaxStates(3))
	assert.Nil(t, sol)
	assert.ErrorIs(t, err, ErrSearchLimit)

	sol, err = SolveContext(context.Background(), b, WithMaxStates(3), WithWorkers(4))
	assert.Nil(t, sol)
	assert.ErrorIs(t, err, ErrSearchLimit)
}

func TestSolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := mustParse(t, roomBoard...)

	_, err := SolveContext(ctx, b)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = SolveContext(ctx, b, WithWorkers(4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveLogsLayers(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	_, err := SolveContext(context.Background(), mustParse(t, twoBlockBoard...), WithLogger(log.NewEntry(logger)))
	require.NoError(t, err)

	require.NotEmpty(t, hook.AllEntries())
	entry := hook.LastEntry()
	assert.Equal(t, "expanding search layer", entry.Message)
	assert.Contains(t, entry.Data, "depth")
	assert.Contains(t, entry.Data, "frontier")
}

func TestSolveStats(t *testing.T) {
	sol, ok := Solve(mustParse(t, twoBlockBoard...))
	require.True(t, ok)

	assert.Equal(t, sol.MoveCount, sol.Stats.Depth)
	assert.Positive(t, sol.Stats.Expanded)
	assert.GreaterOrEqual(t, sol.Stats.Visited, sol.Stats.Expanded)
}

func TestSearchEnqueuesEachBoardOnce(t *testing.T) {
	// The target is walled off, so the search runs to exhaustion
	sealed := []string{
		"#######",
		"#     #",
		"# $ @ #",
		"#     #",
		"#######",
		"###.###",
		"#######",
	}
	want := refReachable(sealed)

	for _, tt := range []struct {
		name    string
		workers int
	}{
		{"serial", 1},
		{"parallel", 3},
	} {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, sealed...)
			s := &searcher{
				opts:    solveOptions{workers: tt.workers},
				visited: mapset.New[string](),
			}

			sol, err := s.run(context.Background(), root)
			require.NoError(t, err)
			require.Nil(t, sol)

			assert.Equal(t, s.visited.Size(), len(s.nodes))
			assert.Equal(t, len(s.nodes), s.expanded)
			assert.Equal(t, want, len(s.nodes))

			seen := make(map[string]int, len(s.nodes))
			for i := range s.nodes {
				b, err := Replay(root, reconstruct(s.nodes, i))
				require.NoError(t, err)
				if first, dup := seen[b.Key()]; dup {
					t.Fatalf("nodes %d and %d hold the same board:\n%s", first, i, strings.Join(Render(b), "\n"))
				}
				seen[b.Key()] = i
			}
		})
	}
}
