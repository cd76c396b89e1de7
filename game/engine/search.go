package engine

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"
	"golang.org/x/sync/errgroup"
)

// checkInterval is how many expansions happen between context checks
const checkInterval = 1024

// node is one entry of the search arena. parent is an index into the same
// arena, -1 for the root.
type node struct {
	board  *Board
	depth  int
	move   Direction
	parent int
}

// SearchStats summarises the work done by one search
type SearchStats struct {
	Expanded int `json:"expanded"`
	Visited  int `json:"visited"`
	Depth    int `json:"depth"`
}

// Solution is a shortest move sequence solving a board
type Solution struct {
	MoveCount int         `json:"move_count"`
	Moves     []Direction `json:"moves"`
	Stats     SearchStats `json:"stats"`
}

// SolveOption configures SolveContext
type SolveOption func(*solveOptions)

type solveOptions struct {
	maxStates int
	workers   int
	logger    *log.Entry
}

// WithMaxStates aborts the search with ErrSearchLimit once more than n
// distinct boards have been visited. Zero means unlimited.
func WithMaxStates(n int) SolveOption {
	return func(o *solveOptions) {
		o.maxStates = n
	}
}

// WithWorkers expands each depth layer with n concurrent workers. Results
// are merged in frontier order, so the reported solution matches the
// single-threaded search.
func WithWorkers(n int) SolveOption {
	return func(o *solveOptions) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithLogger sets the entry that receives per-layer progress at debug level
func WithLogger(l *log.Entry) SolveOption {
	return func(o *solveOptions) {
		o.logger = l
	}
}

// Solve runs a breadth-first search from b and returns a shortest solution,
// or false when no sequence of moves solves the board.
func Solve(b *Board) (*Solution, bool) {
	sol, err := SolveContext(context.Background(), b)
	if err != nil || sol == nil {
		return nil, false
	}
	return sol, true
}

// SolveContext is Solve with cancellation, limits and optional parallel
// layer expansion. An exhausted search returns (nil, nil).
func SolveContext(ctx context.Context, b *Board, opts ...SolveOption) (*Solution, error) {
	o := solveOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	s := &searcher{
		opts:    o,
		visited: mapset.New[string](),
	}
	return s.run(ctx, b)
}

type searcher struct {
	opts     solveOptions
	nodes    []node
	visited  mapset.Set[string]
	expanded int
}

func (s *searcher) run(ctx context.Context, root *Board) (*Solution, error) {
	if root.IsSolved() {
		return s.solution([]Direction{}), nil
	}

	s.nodes = append(s.nodes, node{board: root, parent: -1})
	s.visited.Put(root.Key())

	if s.opts.workers > 1 {
		return s.runLayers(ctx)
	}
	return s.runSerial(ctx)
}

func (s *searcher) runSerial(ctx context.Context) (*Solution, error) {
	depth := 0
	for head := 0; head < len(s.nodes); head++ {
		if head%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		n := s.nodes[head]
		if n.depth > depth {
			depth = n.depth
			s.logLayer(depth, len(s.nodes)-head)
		}

		s.expanded++
		for _, d := range Directions {
			next, ok := Apply(n.board, d)
			if !ok {
				continue
			}
			if sol, done, err := s.offer(head, d, next); done || err != nil {
				return sol, err
			}
		}
		// Expanded boards are only needed again through their parent links
		s.nodes[head].board = nil
	}
	return nil, nil
}

func (s *searcher) runLayers(ctx context.Context) (*Solution, error) {
	start := 0
	for start < len(s.nodes) {
		end := len(s.nodes)
		s.logLayer(s.nodes[start].depth, end-start)

		successors := make([][len(Directions)]*Board, end-start)
		chunk := (end - start + s.opts.workers - 1) / s.opts.workers

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.workers)
		for lo := start; lo < end; lo += chunk {
			hi := min(lo+chunk, end)
			g.Go(func() error {
				for j := lo; j < hi; j++ {
					if (j-lo)%checkInterval == 0 {
						if err := gctx.Err(); err != nil {
							return err
						}
					}
					for k, d := range Directions {
						if next, ok := Apply(s.nodes[j].board, d); ok {
							successors[j-start][k] = next
						}
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for j := start; j < end; j++ {
			s.expanded++
			for k, d := range Directions {
				next := successors[j-start][k]
				if next == nil {
					continue
				}
				if sol, done, err := s.offer(j, d, next); done || err != nil {
					return sol, err
				}
			}
			s.nodes[j].board = nil
		}
		start = end
	}
	return nil, nil
}

// offer runs the goal test and the visited check for a successor of the
// node at index parent. done is true when the search must stop.
func (s *searcher) offer(parent int, d Direction, b *Board) (*Solution, bool, error) {
	if b.IsSolved() {
		moves := append(reconstruct(s.nodes, parent), d)
		return s.solution(moves), true, nil
	}

	key := b.Key()
	if s.visited.Has(key) {
		return nil, false, nil
	}
	if s.opts.maxStates > 0 && s.visited.Size() >= s.opts.maxStates {
		return nil, true, fmt.Errorf("%w: %d states visited", ErrSearchLimit, s.visited.Size())
	}

	s.visited.Put(key)
	s.nodes = append(s.nodes, node{
		board:  b,
		depth:  s.nodes[parent].depth + 1,
		move:   d,
		parent: parent,
	})
	return nil, false, nil
}

func (s *searcher) solution(moves []Direction) *Solution {
	return &Solution{
		MoveCount: len(moves),
		Moves:     moves,
		Stats: SearchStats{
			Expanded: s.expanded,
			Visited:  s.visited.Size(),
			Depth:    len(moves),
		},
	}
}

func (s *searcher) logLayer(depth, frontier int) {
	if s.opts.logger == nil {
		return
	}
	s.opts.logger.WithFields(log.Fields{
		"depth":    depth,
		"frontier": frontier,
		"visited":  s.visited.Size(),
	}).Debug("expanding search layer")
}
