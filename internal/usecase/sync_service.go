package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/thatssomoneybaby/nba-site/internal/domain/player"
	"github.com/thatssomoneybaby/nba-site/internal/domain/statmap"
	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
)

// leagueURLIDRegex captures the trailing numeric league id of a league URL,
// e.g. ".../nba/12345" or ".../nba/12345/".
var leagueURLIDRegex = regexp.MustCompile(`/(\d+)(?:$|[/?#])`)

// LeagueSelector names a league one of three ways; Key wins, then URL, then
// Name.
type LeagueSelector struct {
	Key  string
	URL  string
	Name string
}

// LeagueRef is one discovered league.
type LeagueRef struct {
	Key  string `json:"league_key"`
	ID   string `json:"league_id,omitempty"`
	Name string `json:"name,omitempty"`
}

// SyncResult reports the outcome of one live board refresh.
type SyncResult struct {
	League  LeagueRef `json:"league"`
	Players int       `json:"players"`
	Applied bool      `json:"applied"`
}

// SyncService pulls live league data from the fantasy provider and feeds the
// projected rows into the board.
type SyncService struct {
	provider FantasyProvider
	board    *BoardService
	pool     *ants.Pool
	logger   *slog.Logger
}

// NewSyncService wires the provider to the board. pool may be nil, in which
// case rows are projected on the calling goroutine.
func NewSyncService(provider FantasyProvider, board *BoardService, pool *ants.Pool, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		provider: provider,
		board:    board,
		pool:     pool,
		logger:   logger,
	}
}

// Games lists the signed-in user's fantasy games.
func (s *SyncService) Games(ctx context.Context, session ProviderSession) (deepscan.Node, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Games")
	defer span.End()

	return s.provider.ListGames(ctx, session)
}

// Leagues lists the user's leagues across every game key found.
func (s *SyncService) Leagues(ctx context.Context, session ProviderSession) ([]LeagueRef, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Leagues")
	defer span.End()

	return s.discoverLeagues(ctx, session)
}

// Teams lists the teams of one league.
func (s *SyncService) Teams(ctx context.Context, session ProviderSession, leagueKey string) (deepscan.Node, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Teams")
	defer span.End()

	if strings.TrimSpace(leagueKey) == "" {
		return nil, fmt.Errorf("%w: league key is required", ErrInvalidInput)
	}
	return s.provider.ListTeams(ctx, session, leagueKey)
}

// ResolveLeague turns a selector into a concrete league key. When no league
// matches, the discovered candidates ride along for the caller to present.
func (s *SyncService) ResolveLeague(ctx context.Context, session ProviderSession, sel LeagueSelector) (LeagueRef, []LeagueRef, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.ResolveLeague")
	defer span.End()

	if key := strings.TrimSpace(sel.Key); key != "" {
		return LeagueRef{Key: key, Name: key}, nil, nil
	}
	if strings.TrimSpace(sel.URL) == "" && strings.TrimSpace(sel.Name) == "" {
		return LeagueRef{}, nil, fmt.Errorf("%w: provide a league key, url or name", ErrInvalidInput)
	}

	leagues, err := s.discoverLeagues(ctx, session)
	if err != nil {
		return LeagueRef{}, nil, err
	}

	if rawURL := strings.TrimSpace(sel.URL); rawURL != "" {
		m := leagueURLIDRegex.FindStringSubmatch(rawURL)
		if m == nil {
			return LeagueRef{}, leagues, fmt.Errorf("%w: could not parse a league id from url", ErrInvalidInput)
		}
		id := m[1]
		for _, league := range leagues {
			if league.ID == id || strings.HasSuffix(league.Key, ".l."+id) {
				return league, nil, nil
			}
		}
	}

	if name := strings.TrimSpace(sel.Name); name != "" {
		for _, league := range leagues {
			if strings.EqualFold(strings.TrimSpace(league.Name), name) {
				return league, nil, nil
			}
		}
	}

	return LeagueRef{}, leagues, fmt.Errorf("%w: league not found", ErrNotFound)
}

// SyncBoard refreshes one profile's board from live league data: settings
// drive the stat mapping, the player listing becomes the new row set. A
// refresh that loses the race to a newer one reports Applied false.
func (s *SyncService) SyncBoard(ctx context.Context, profileID string, session ProviderSession, sel LeagueSelector, query PlayerQuery) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncBoard")
	defer span.End()

	league, _, err := s.ResolveLeague(ctx, session, sel)
	if err != nil {
		return SyncResult{}, err
	}

	seq := s.board.BeginSync(ctx, profileID)

	settings, err := s.provider.LeagueSettings(ctx, session, league.Key)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch league settings league_key=%s: %w", league.Key, err)
	}
	labels, weights := statmap.Build(settings)

	listing, err := s.provider.LeaguePlayers(ctx, session, league.Key, query)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch league players league_key=%s: %w", league.Key, err)
	}

	records := ExtractPlayerRecords(listing)
	rows := s.projectAll(records, labels, weights)

	applied := s.board.ApplyPlayers(ctx, profileID, seq, rows)
	if !applied {
		s.logger.InfoContext(ctx, "board sync superseded by a newer refresh",
			"profile_id", profileID,
			"league_key", league.Key,
		)
	}

	return SyncResult{League: league, Players: len(rows), Applied: applied}, nil
}

// SyncRoster fetches one team's roster, matches it against the loaded rows
// and installs the result as the profile's roster set.
func (s *SyncService) SyncRoster(ctx context.Context, profileID string, session ProviderSession, teamKey string) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncRoster")
	defer span.End()

	teamKey = strings.TrimSpace(teamKey)
	if teamKey == "" {
		return nil, fmt.Errorf("%w: team key is required", ErrInvalidInput)
	}

	payload, err := s.provider.TeamRoster(ctx, session, teamKey)
	if err != nil {
		return nil, fmt.Errorf("fetch roster team_key=%s: %w", teamKey, err)
	}

	ids := MatchRoster(payload, s.board.Rows(ctx, profileID))
	s.board.SetRoster(ctx, profileID, ids)

	return ids, nil
}

// projectAll maps raw records to rows, preserving record order. With a pool
// the projections run concurrently; each writes its own slot.
func (s *SyncService) projectAll(records []deepscan.Node, labels statmap.Labels, weights statmap.Weights) []player.Row {
	rows := make([]player.Row, len(records))
	if s.pool == nil {
		for i, record := range records {
			rows[i] = ProjectRow(record, labels, weights)
		}
		return rows
	}

	var wg sync.WaitGroup
	for i, record := range records {
		i, record := i, record
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			rows[i] = ProjectRow(record, labels, weights)
		}); err != nil {
			// Pool saturated or closed; fall back inline.
			rows[i] = ProjectRow(record, labels, weights)
			wg.Done()
		}
	}
	wg.Wait()

	return rows
}

func (s *SyncService) discoverLeagues(ctx context.Context, session ProviderSession) ([]LeagueRef, error) {
	games, err := s.provider.ListGames(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("fetch games: %w", err)
	}

	gameKeys := collectGameKeys(games)
	if len(gameKeys) == 0 {
		return nil, fmt.Errorf("%w: no fantasy games for this account", ErrNotFound)
	}

	listing, err := s.provider.ListLeagues(ctx, session, strings.Join(gameKeys, ","))
	if err != nil {
		return nil, fmt.Errorf("fetch leagues: %w", err)
	}

	return collectLeagues(listing), nil
}

func collectGameKeys(payload deepscan.Node) []string {
	seen := make(map[string]struct{})
	var keys []string
	deepscan.Walk(payload, func(n deepscan.Node) {
		key := deepscan.ID(n["game_key"])
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	})
	return keys
}

func collectLeagues(payload deepscan.Node) []LeagueRef {
	seen := make(map[string]struct{})
	var leagues []LeagueRef
	deepscan.Walk(payload, func(n deepscan.Node) {
		if inner, ok := n["league"].(map[string]any); ok {
			n = inner
		}
		key := deepscan.ID(n["league_key"])
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		name := deepscan.String(n, "name")
		id := deepscan.ID(n["league_id"])
		if name == "" && id == "" {
			return
		}
		seen[key] = struct{}{}
		leagues = append(leagues, LeagueRef{Key: key, ID: id, Name: name})
	})
	return leagues
}
