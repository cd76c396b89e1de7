package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/sokoban/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	solver   SolverOptions
	logger   *log.Entry
	mu       sync.RWMutex
}

// Option configures the service
type Option func(*gameServiceImpl)

// WithSolverOptions bounds the solver runs started by Solve and SolveLayout
func WithSolverOptions(opts SolverOptions) Option {
	return func(s *gameServiceImpl) {
		s.solver = opts
	}
}

// WithLogger sets the entry used for service logs
func WithLogger(l *log.Entry) Option {
	return func(s *gameServiceImpl) {
		s.logger = l
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		solver:   DefaultSolverOptions,
		logger:   log.WithField("component", "service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given puzzle name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Snapshot(),
		PuzzleConfig:   sess.Config,
	}
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}
	return sess, nil
}

func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.WithFields(log.Fields{
			"session": sessionID,
			"after":   after,
		}).WithError(err).Warn("failed to persist session")
	}
}

// CreateSession creates a new play session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.PuzzleConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available puzzles", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	s.logger.WithFields(log.Fields{
		"session": session.ID,
		"config":  configID,
	}).Info("session created")

	return s.sessionInfo(session, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	// Touching the access time is a write
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getSession(sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(sessionID)
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	prevPos := sess.Engine.GetPlayerPosition()
	prevPushes := sess.Engine.GetState().Pushes
	success := sess.Engine.Move(direction)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   success,
		GameState: state.Snapshot(),
		Message:   state.Message,
		Events:    events,
	}

	if success {
		push := state.Pushes > prevPushes
		result.Events = append(result.Events, moveEvents(state, direction, push, len(sess.Engine.Path()))...)
		result.Step = &StepInfo{
			Idx:            1,
			Dir:            direction,
			From:           prevPos,
			To:             state.PlayerPos,
			Push:           push,
			BlocksOnTarget: state.BlocksOnTarget,
			Success:        true,
			Solved:         state.Solved,
		}
	} else {
		result.AttemptedTo = attemptedCell(state, prevPos, direction)
	}

	s.persist(sessionID, "move")
	return result, nil
}

// BulkMove executes multiple moves in sequence
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	start := sess.Engine.GetState()
	result.StartPos = start.PlayerPos
	startPushes := start.Pushes

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		if sess.Engine.IsSolved() {
			result.StoppedReason = "puzzle solved"
			result.StopReasonCode = "solved"
			result.StoppedOnMove = i + 1
			break
		}

		prevPos := sess.Engine.GetPlayerPosition()
		prevPushes := sess.Engine.GetState().Pushes
		if !sess.Engine.Move(move) {
			st := sess.Engine.GetState()
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s", i+1, move)
			result.StoppedOnMove = i + 1
			result.AttemptedTo = attemptedCell(st, prevPos, move)
			result.StopReasonCode = stopReasonCode(result.AttemptedTo)
			break
		}

		result.MovesExecuted++
		st := sess.Engine.GetState()
		push := st.Pushes > prevPushes
		result.Events = append(result.Events, moveEvents(st, move, push, len(sess.Engine.Path()))...)
		result.Steps = append(result.Steps, StepInfo{
			Idx:            i + 1,
			Dir:            move,
			From:           prevPos,
			To:             st.PlayerPos,
			Push:           push,
			BlocksOnTarget: st.BlocksOnTarget,
			Success:        true,
			Solved:         st.Solved,
		})
	}

	end := sess.Engine.GetState()
	result.GameState = end.Snapshot()
	result.EndPos = end.PlayerPos
	result.PushesDelta = end.Pushes - startPushes
	result.Solved = end.Solved
	result.Message = end.Message
	if end.Solved && result.StopReasonCode == "" {
		result.StopReasonCode = "solved"
	}

	// Decision aids
	result.PossibleMoves = sess.Engine.GetPossibleMoves()
	result.LocalView3x3 = buildLocal3x3(end)

	s.persist(sessionID, "bulk_move")
	return result, nil
}

// Reset restores the initial board of a session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset().Snapshot()

	s.persist(sessionID, "reset")
	return state, nil
}

// Undo reverts the last successful move of a session
func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	success := sess.Engine.Undo()
	state := sess.Engine.GetState()
	result := &MoveResult{
		Success:   success,
		GameState: state.Snapshot(),
		Message:   state.Message,
	}
	if success {
		result.Events = []GameEvent{{
			Type:      "undo",
			Message:   fmt.Sprintf("Undid last move, player back at (%d,%d)", state.PlayerPos.X, state.PlayerPos.Y),
			Timestamp: time.Now(),
			Position:  state.PlayerPos,
		}}
		s.persist(sessionID, "undo")
	}
	return result, nil
}

// GetGameState retrieves the current play state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState().Snapshot(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return paginateHistory(sess.Engine.GetMoveHistory(), opts), nil
}

func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = slices.Clone(history[start:end])
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// Solve searches for a shortest solution from the current board of a session
func (s *gameServiceImpl) Solve(ctx context.Context, sessionID string) (*SolveResult, error) {
	board, err := s.currentBoard(sessionID)
	if err != nil {
		return nil, err
	}
	return s.solve(ctx, board, log.Fields{"session": sessionID})
}

// Hint suggests the next move of a shortest solution for a session
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	board, err := s.currentBoard(sessionID)
	if err != nil {
		return nil, err
	}
	if board.IsSolved() {
		return &HintResult{Message: "Puzzle already solved"}, nil
	}

	ctx, cancel := s.solverContext(ctx)
	defer cancel()

	d, ok, err := engine.Hint(ctx, board, s.solverOptions(log.Fields{"session": sessionID})...)
	if err != nil {
		s.logger.WithField("session", sessionID).WithError(err).Warn("hint search stopped")
		return nil, err
	}

	if !ok {
		return &HintResult{Message: "No solution from here; undo or reset"}, nil
	}
	return &HintResult{
		Available: true,
		Direction: string(d),
		Arrow:     d.Arrow(),
		Message:   fmt.Sprintf("Try moving %s", d),
	}, nil
}

// currentBoard touches a session and returns its board. Boards are
// immutable, so callers may search it without holding the lock.
func (s *gameServiceImpl) currentBoard(sessionID string) (*engine.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState().Board, nil
}

// SolveLayout parses an inline layout and solves it
func (s *gameServiceImpl) SolveLayout(ctx context.Context, layout []string) (*SolveResult, error) {
	if err := engine.CheckLayoutSize(layout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if err := engine.ValidateLayout(layout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	board, err := engine.Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	return s.solve(ctx, board, log.Fields{"rows": board.Size.Y, "columns": board.Size.X})
}

func (s *gameServiceImpl) solverContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.solver.Timeout > 0 {
		return context.WithTimeout(ctx, s.solver.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *gameServiceImpl) solverOptions(fields log.Fields) []engine.SolveOption {
	opts := []engine.SolveOption{
		engine.WithMaxStates(s.solver.MaxStates),
		engine.WithLogger(s.logger.WithFields(fields)),
	}
	if s.solver.Workers > 1 {
		opts = append(opts, engine.WithWorkers(s.solver.Workers))
	}
	return opts
}

func (s *gameServiceImpl) solve(ctx context.Context, board *engine.Board, fields log.Fields) (*SolveResult, error) {
	ctx, cancel := s.solverContext(ctx)
	defer cancel()

	logger := s.logger.WithFields(fields)
	started := time.Now()
	sol, err := engine.SolveContext(ctx, board, s.solverOptions(fields)...)
	elapsed := time.Since(started)
	if err != nil {
		logger.WithError(err).Warn("solver stopped")
		return nil, err
	}

	result := &SolveResult{
		Moves:      []string{},
		Duration:   elapsed,
		DurationMs: elapsed.Milliseconds(),
	}
	if sol != nil {
		result.Solvable = true
		result.MoveCount = sol.MoveCount
		result.Moves = sol.Names()
		result.Arrows = sol.Arrows()
		result.Notation = sol.String()
		result.StatesVisited = sol.Stats.Visited
		result.StatesExpanded = sol.Stats.Expanded
		result.Depth = sol.Stats.Depth
	}

	logger.WithFields(log.Fields{
		"solvable": result.Solvable,
		"moves":    result.MoveCount,
		"elapsed":  elapsed,
	}).Info("solver finished")
	return result, nil
}

// ListConfigs returns available puzzles
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific puzzle
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.PuzzleConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a puzzle to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.PuzzleConfig) error {
	if config != nil {
		if err := engine.CheckLayoutSize(config.Layout); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidLayout, err)
		}
	}
	return s.configs.SaveConfig(configName, config)
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Puzzle reset to initial state",
		Timestamp: time.Now(),
	}
}

// moveEvents generates events for a successful move
func moveEvents(state *engine.GameState, direction string, push bool, played int) []GameEvent {
	pos := state.PlayerPos
	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", direction, pos.X, pos.Y),
		Timestamp: time.Now(),
		Position:  pos,
	}}

	if push {
		events = append(events, GameEvent{
			Type:      "push",
			Message:   fmt.Sprintf("Block pushed, %d/%d on target", state.BlocksOnTarget, state.TotalBlocks),
			Timestamp: time.Now(),
			Position:  pos,
		})
	}

	if state.Solved {
		events = append(events, GameEvent{
			Type:      "solved",
			Message:   fmt.Sprintf("Solved in %d moves with %d pushes", played, state.Pushes),
			Timestamp: time.Now(),
		})
	}
	return events
}

// attemptedCell describes the cell a rejected move tried to enter
func attemptedCell(state *engine.GameState, from engine.Position, direction string) *AttemptInfo {
	d, err := engine.ParseDirection(direction)
	if err != nil {
		return &AttemptInfo{X: from.X, Y: from.Y, TileChar: "?", TileType: "invalid_direction"}
	}

	target := from.Add(d.Delta())
	info := &AttemptInfo{X: target.X, Y: target.Y}
	if state.Board == nil || !engine.InBounds(target, state.Board.Size) {
		info.TileChar = "#"
		info.TileType = "boundary"
		return info
	}

	info.TileChar, info.TileType = cellCharAndType(state.Board, target)
	info.Passable = info.TileType != "wall"
	return info
}

func stopReasonCode(info *AttemptInfo) string {
	switch info.TileType {
	case "boundary":
		return "blocked_boundary"
	case "wall":
		return "blocked_wall"
	case "block", "block_on_target":
		return "blocked_block"
	case "invalid_direction":
		return "invalid_direction"
	}
	return "blocked"
}

// cellCharAndType maps a board cell to its glyph and a readable type
func cellCharAndType(b *engine.Board, p engine.Position) (string, string) {
	target := b.HasTarget(p)
	switch {
	case b.HasWall(p):
		return string(engine.WallChar), "wall"
	case b.HasBlock(p) && target:
		return string(engine.BlockOnTarget), "block_on_target"
	case b.HasBlock(p):
		return string(engine.BlockChar), "block"
	case b.Player == p && target:
		return string(engine.PlayerOnTarget), "player_on_target"
	case b.Player == p:
		return string(engine.PlayerChar), "player"
	case target:
		return string(engine.TargetChar), "target"
	default:
		return string(engine.FloorChar), "floor"
	}
}

// buildLocal3x3 renders the cells around the player; outside the grid reads as wall
func buildLocal3x3(state *engine.GameState) []string {
	if state == nil || state.Board == nil {
		return nil
	}
	px, py := state.PlayerPos.X, state.PlayerPos.Y
	lines := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		var row strings.Builder
		for dx := -1; dx <= 1; dx++ {
			p := engine.Position{X: px + dx, Y: py + dy}
			if !engine.InBounds(p, state.Board.Size) {
				row.WriteRune(engine.WallChar)
				continue
			}
			ch, _ := cellCharAndType(state.Board, p)
			row.WriteString(ch)
		}
		lines = append(lines, row.String())
	}
	return lines
}
