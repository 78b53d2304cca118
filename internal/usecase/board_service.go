package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/thatssomoneybaby/nba-site/internal/domain/draft"
	"github.com/thatssomoneybaby/nba-site/internal/domain/player"
)

// BoardService owns the draft-board state of every profile: the loaded row
// set, the drafted-id set, the ephemeral roster match, and the filter
// configuration. All mutation goes through its methods; reads recompute the
// visible row list from scratch so the view is a pure function of state.
type BoardService struct {
	repo   draft.Repository
	logger *slog.Logger

	mu     sync.Mutex
	boards map[string]*boardState
	seed   []player.Row
}

type boardState struct {
	players []player.Row
	drafted map[string]struct{}
	roster  map[string]struct{}
	filters draft.FilterState

	// Generation counters guard against a slow live sync clobbering the
	// result of a newer one.
	issuedSeq  uint64
	appliedSeq uint64
}

// BoardView is one render-ready snapshot.
type BoardView struct {
	Rows         []BoardRow        `json:"rows"`
	Filters      draft.FilterState `json:"filters"`
	Counts       BoardCounts       `json:"counts"`
	RosterTotals *player.Totals    `json:"roster_totals,omitempty"`
}

// BoardRow decorates a player row with per-profile flags.
type BoardRow struct {
	player.Row
	Drafted  bool `json:"drafted"`
	OnRoster bool `json:"on_roster"`
}

type BoardCounts struct {
	Total     int `json:"total"`
	Drafted   int `json:"drafted"`
	Remaining int `json:"remaining"`
}

// FilterUpdate is a partial filter mutation; nil fields stay untouched.
type FilterUpdate struct {
	Query           *string
	Position        *string
	HideDrafted     *bool
	SortKey         *string
	SortDirection   *string
	HighlightRoster *bool
	OnlyRoster      *bool
}

func NewBoardService(repo draft.Repository, logger *slog.Logger) *BoardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardService{
		repo:   repo,
		logger: logger,
		boards: make(map[string]*boardState),
	}
}

// SeedRows sets the row set every not-yet-seen profile starts from. Boards
// already hydrated keep their current rows.
func (s *BoardService) SeedRows(rows []player.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seed = make([]player.Row, len(rows))
	copy(s.seed, rows)
}

// LoadPlayers replaces the row set wholesale. Drafted ids and filters are
// untouched; ids that no longer resolve simply match nothing.
func (s *BoardService) LoadPlayers(ctx context.Context, profileID string, rows []player.Row) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BoardService.LoadPlayers")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	board.setPlayers(rows)
}

// BeginSync reserves a generation for a live refresh. The matching
// ApplyPlayers call is ignored when a newer generation already applied.
func (s *BoardService) BeginSync(ctx context.Context, profileID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	board.issuedSeq++
	return board.issuedSeq
}

// ApplyPlayers installs the outcome of a live sync. Returns false when the
// generation is stale and the rows were discarded.
func (s *BoardService) ApplyPlayers(ctx context.Context, profileID string, seq uint64, rows []player.Row) bool {
	ctx, span := startUsecaseSpan(ctx, "usecase.BoardService.ApplyPlayers")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	if seq <= board.appliedSeq {
		s.logger.WarnContext(ctx, "stale sync result discarded",
			"profile_id", profileID,
			"seq", seq,
			"applied_seq", board.appliedSeq,
		)
		return false
	}
	board.appliedSeq = seq
	board.setPlayers(rows)
	return true
}

// ToggleDrafted flips one player's drafted mark and persists the set.
// Returns whether the player is drafted after the flip.
func (s *BoardService) ToggleDrafted(ctx context.Context, profileID, playerID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BoardService.ToggleDrafted")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return false, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	_, drafted := board.drafted[playerID]
	if drafted {
		delete(board.drafted, playerID)
	} else {
		board.drafted[playerID] = struct{}{}
	}
	s.persistDrafted(ctx, profileID, board)

	return !drafted, nil
}

// ClearDrafted empties the drafted set. The caller must pass explicit
// confirmation; an unconfirmed clear is rejected, not ignored.
func (s *BoardService) ClearDrafted(ctx context.Context, profileID string, confirmed bool) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.BoardService.ClearDrafted")
	defer span.End()

	if !confirmed {
		return fmt.Errorf("%w: clearing drafted players requires confirmation", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	board.drafted = make(map[string]struct{})
	s.persistDrafted(ctx, profileID, board)

	return nil
}

// SetFilters applies a partial filter update and persists the whole record.
func (s *BoardService) SetFilters(ctx context.Context, profileID string, update FilterUpdate) (draft.FilterState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BoardService.SetFilters")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	next := board.filters
	if update.Query != nil {
		next.Query = *update.Query
	}
	if update.Position != nil {
		next.Position = *update.Position
	}
	if update.HideDrafted != nil {
		next.HideDrafted = *update.HideDrafted
	}
	if update.SortKey != nil {
		next.SortKey = strings.TrimSpace(*update.SortKey)
	}
	if update.SortDirection != nil {
		next.SortDirection = draft.SortDirection(strings.TrimSpace(*update.SortDirection))
	}
	if update.HighlightRoster != nil {
		next.HighlightRoster = *update.HighlightRoster
	}
	if update.OnlyRoster != nil {
		next.OnlyRoster = *update.OnlyRoster
	}

	if err := next.Validate(); err != nil {
		return board.filters, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	board.filters = next
	if err := s.repo.SaveFilters(ctx, profileID, next); err != nil {
		s.logger.WarnContext(ctx, "persist filters failed", "profile_id", profileID, "error", err)
	}

	return next, nil
}

// SetRoster replaces the ephemeral "my roster" id set wholesale.
func (s *BoardService) SetRoster(ctx context.Context, profileID string, playerIDs []string) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BoardService.SetRoster")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	board.roster = make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if id == "" {
			continue
		}
		board.roster[id] = struct{}{}
	}
}

// Rows returns a copy of the currently loaded row set.
func (s *BoardService) Rows(ctx context.Context, profileID string) []player.Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	out := make([]player.Row, len(board.players))
	copy(out, board.players)
	return out
}

// Snapshot computes the visible, sorted, flagged row list plus counters and
// roster totals for one profile.
func (s *BoardService) Snapshot(ctx context.Context, profileID string) BoardView {
	ctx, span := startUsecaseSpan(ctx, "usecase.BoardService.Snapshot")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	visible := visibleRows(board)

	rows := make([]BoardRow, 0, len(visible))
	for _, row := range visible {
		_, drafted := board.drafted[row.ID]
		_, onRoster := board.roster[row.ID]
		rows = append(rows, BoardRow{
			Row:      row,
			Drafted:  drafted,
			OnRoster: onRoster && board.filters.HighlightRoster,
		})
	}

	view := BoardView{
		Rows:    rows,
		Filters: board.filters,
		Counts: BoardCounts{
			Total:     len(board.players),
			Drafted:   len(board.drafted),
			Remaining: len(board.players) - len(board.drafted),
		},
	}

	if len(board.roster) > 0 {
		totals := totalsLocked(board, board.roster)
		view.RosterTotals = &totals
	}

	return view
}

// Totals sums stat categories over the given ids. Ids missing from the
// current dataset are ignored; an empty set yields zero totals.
func (s *BoardService) Totals(ctx context.Context, profileID string, playerIDs []string) player.Totals {
	ctx, span := startUsecaseSpan(ctx, "usecase.BoardService.Totals")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.board(ctx, profileID)
	set := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		set[id] = struct{}{}
	}
	return totalsLocked(board, set)
}

func totalsLocked(board *boardState, ids map[string]struct{}) player.Totals {
	var totals player.Totals
	for _, row := range board.players {
		if _, ok := ids[row.ID]; ok {
			totals.Add(row)
		}
	}
	return totals
}

// board returns the profile's state, hydrating persisted records on first
// touch. Any persistence read failure degrades to defaults. Callers hold mu.
func (s *BoardService) board(ctx context.Context, profileID string) *boardState {
	if board, ok := s.boards[profileID]; ok {
		return board
	}

	board := &boardState{
		drafted: make(map[string]struct{}),
		roster:  make(map[string]struct{}),
		filters: draft.DefaultFilters(),
	}
	if len(s.seed) > 0 {
		board.setPlayers(s.seed)
	}

	if drafted, found, err := s.repo.LoadDrafted(ctx, profileID); err != nil {
		s.logger.WarnContext(ctx, "load drafted state failed, using empty set", "profile_id", profileID, "error", err)
	} else if found {
		for _, id := range drafted {
			if id != "" {
				board.drafted[id] = struct{}{}
			}
		}
	}

	if filters, found, err := s.repo.LoadFilters(ctx, profileID); err != nil {
		s.logger.WarnContext(ctx, "load filter state failed, using defaults", "profile_id", profileID, "error", err)
	} else if found {
		filters.Normalize()
		board.filters = filters
	}

	s.boards[profileID] = board
	return board
}

func (s *BoardService) persistDrafted(ctx context.Context, profileID string, board *boardState) {
	ids := make([]string, 0, len(board.drafted))
	for id := range board.drafted {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := s.repo.SaveDrafted(ctx, profileID, ids); err != nil {
		s.logger.WarnContext(ctx, "persist drafted state failed", "profile_id", profileID, "error", err)
	}
}

func (b *boardState) setPlayers(rows []player.Row) {
	b.players = make([]player.Row, len(rows))
	copy(b.players, rows)
}

// visibleRows applies every active predicate, then stable-sorts. Rows with
// equal sort keys keep their original relative order in both directions.
func visibleRows(board *boardState) []player.Row {
	filters := board.filters
	query := strings.ToLower(strings.TrimSpace(filters.Query))
	position := strings.ToLower(strings.TrimSpace(filters.Position))

	rows := make([]player.Row, 0, len(board.players))
	for _, row := range board.players {
		if query != "" &&
			!strings.Contains(strings.ToLower(row.Name), query) &&
			!strings.Contains(strings.ToLower(row.Team), query) {
			continue
		}
		if position != "" && !strings.Contains(strings.ToLower(row.Position), position) {
			continue
		}
		if filters.HideDrafted {
			if _, drafted := board.drafted[row.ID]; drafted {
				continue
			}
		}
		if filters.OnlyRoster {
			if _, onRoster := board.roster[row.ID]; !onRoster {
				continue
			}
		}
		rows = append(rows, row)
	}

	descending := filters.SortDirection == draft.SortDescending
	key := filters.SortKey
	sort.SliceStable(rows, func(i, j int) bool {
		cmp := compareRows(rows[i], rows[j], key)
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})

	return rows
}

func compareRows(a, b player.Row, key string) int {
	if draft.NumericSortKey(key) {
		av, bv := numericField(a, key), numericField(b, key)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(stringField(a, key), stringField(b, key))
}

func numericField(row player.Row, key string) float64 {
	switch key {
	case draft.SortKeyGames:
		return row.Games
	case draft.SortKeyMinutes:
		return row.Minutes
	case draft.SortKeyFantasy:
		return row.Fantasy
	case draft.SortKeyPoints:
		return row.Points
	case draft.SortKeyRebounds:
		return row.Rebounds
	case draft.SortKeyAssists:
		return row.Assists
	case draft.SortKeySteals:
		return row.Steals
	case draft.SortKeyBlocks:
		return row.Blocks
	default:
		return 0
	}
}

func stringField(row player.Row, key string) string {
	switch key {
	case draft.SortKeyTeam:
		return row.Team
	case draft.SortKeyPosition:
		return row.Position
	default:
		return row.Name
	}
}
