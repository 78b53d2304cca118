package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/thatssomoneybaby/nba-site/internal/domain/player"
	"github.com/thatssomoneybaby/nba-site/internal/domain/statmap"
	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
	"github.com/valyala/bytebufferpool"
)

const (
	exportDefaultTeamLimit = 3
	exportMaxTeamLimit     = 20
	exportRosterFanOut     = 4
)

var filenameSafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// ExportOptions selects which league and teams end up in the CSV.
type ExportOptions struct {
	League     LeagueSelector
	TeamFilter []string // case-insensitive name/nickname matches
	TeamKeys   []string // exact team_key matches
	Limit      int      // max teams, clamped to [1, 20], default 3

	// Budget > 0 adds a value column splitting the budget proportionally to
	// the chosen metric ("avg" by default, or "total").
	Budget float64
	Metric string
}

// ExportResult carries the rendered CSV plus naming metadata.
type ExportResult struct {
	League   LeagueRef
	Filename string
	CSV      []byte
}

// TeamRef is one team discovered in a league.
type TeamRef struct {
	Key      string
	Name     string
	Nickname string
}

type exportRow struct {
	teamLabel string
	teamKey   string
	playerID  string
	name      string
	pos       string
	teamAbbr  string
	games     float64
	fptsTotal float64
	fptsAvg   float64
	value     float64
}

// ExportService renders league rosters as a CSV sheet with per-player
// fantasy production, reconciled against the league's full player listing.
type ExportService struct {
	provider FantasyProvider
	resolver *SyncService
	logger   *slog.Logger
	now      func() time.Time
}

func NewExportService(provider FantasyProvider, resolver *SyncService, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		provider: provider,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// ExportRosters fetches the selected teams' rosters and renders them to CSV.
func (s *ExportService) ExportRosters(ctx context.Context, session ProviderSession, opts ExportOptions) (ExportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ExportService.ExportRosters")
	defer span.End()

	league, _, err := s.resolver.ResolveLeague(ctx, session, opts.League)
	if err != nil {
		return ExportResult{}, err
	}

	settings, err := s.provider.LeagueSettings(ctx, session, league.Key)
	if err != nil {
		return ExportResult{}, fmt.Errorf("fetch league settings league_key=%s: %w", league.Key, err)
	}
	labels, weights := statmap.Build(settings)

	listing, err := s.provider.LeaguePlayers(ctx, session, league.Key, PlayerQuery{})
	if err != nil {
		return ExportResult{}, fmt.Errorf("fetch league players league_key=%s: %w", league.Key, err)
	}

	byID := make(map[string]player.Row)
	var rows []player.Row
	for _, record := range ExtractPlayerRecords(listing) {
		row := ProjectRow(record, labels, weights)
		if row.ID != "" {
			byID[row.ID] = row
		}
		rows = append(rows, row)
	}
	byName := player.NameIndex(rows)

	teams, err := s.selectTeams(ctx, session, league.Key, opts)
	if err != nil {
		return ExportResult{}, err
	}

	// One roster fetch per team, bounded fan-out, results in team order.
	p := pool.NewWithResults[[]deepscan.Node]().
		WithContext(ctx).
		WithMaxGoroutines(exportRosterFanOut)
	for _, team := range teams {
		team := team
		p.Go(func(ctx context.Context) ([]deepscan.Node, error) {
			payload, err := s.provider.TeamRoster(ctx, session, team.Key)
			if err != nil {
				return nil, fmt.Errorf("fetch roster team_key=%s: %w", team.Key, err)
			}
			return ExtractPlayerRecords(payload), nil
		})
	}
	rosters, err := p.Wait()
	if err != nil {
		return ExportResult{}, err
	}

	var exportRows []exportRow
	for i, team := range teams {
		label := team.Nickname
		if label == "" {
			label = team.Name
		}
		for _, record := range rosters[i] {
			info := s.reconcile(record, byID, byName, labels, weights)
			exportRows = append(exportRows, exportRow{
				teamLabel: label,
				teamKey:   team.Key,
				playerID:  info.ID,
				name:      info.Name,
				pos:       info.Position,
				teamAbbr:  info.Team,
				games:     info.Games,
				fptsTotal: info.Fantasy,
				fptsAvg:   fantasyAverage(info),
			})
		}
	}

	withValue := applyBudget(exportRows, opts.Budget, opts.Metric)
	csv := renderCSV(exportRows, withValue)

	return ExportResult{
		League:   league,
		Filename: exportFilename(league.Key, s.now()),
		CSV:      csv,
	}, nil
}

// reconcile resolves a roster record against the league listing, falling
// back to projecting the roster record itself when the listing misses it.
func (s *ExportService) reconcile(record deepscan.Node, byID map[string]player.Row, byName map[string]player.Row, labels statmap.Labels, weights statmap.Weights) player.Row {
	id := deepscan.ID(record["player_id"])
	if id == "" {
		id = deepscan.ID(record["editorial_player_id"])
	}
	if id != "" {
		if row, ok := byID[id]; ok {
			return row
		}
	}
	if name := fullName(record); name != "" {
		if row, ok := byName[player.NormalizeName(name)]; ok {
			return row
		}
	}
	return ProjectRow(record, labels, weights)
}

func (s *ExportService) selectTeams(ctx context.Context, session ProviderSession, leagueKey string, opts ExportOptions) ([]TeamRef, error) {
	payload, err := s.provider.ListTeams(ctx, session, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("fetch teams league_key=%s: %w", leagueKey, err)
	}

	var teams []TeamRef
	seen := make(map[string]struct{})
	deepscan.Walk(payload, func(n deepscan.Node) {
		key := deepscan.ID(n["team_key"])
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		name := teamName(n)
		nickname := deepscan.String(n, "team_name", "nickname")
		if nickname == "" {
			nickname = name
		}
		teams = append(teams, TeamRef{Key: key, Name: name, Nickname: nickname})
	})

	teams = filterTeams(teams, opts.TeamFilter, opts.TeamKeys)
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: no teams matched the filter", ErrNotFound)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = exportDefaultTeamLimit
	}
	if limit > exportMaxTeamLimit {
		limit = exportMaxTeamLimit
	}
	if len(teams) > limit {
		teams = teams[:limit]
	}

	return teams, nil
}

func filterTeams(teams []TeamRef, nameFilters, keyFilters []string) []TeamRef {
	wanted := make([]string, 0, len(nameFilters))
	for _, f := range nameFilters {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			wanted = append(wanted, f)
		}
	}
	keys := make(map[string]struct{}, len(keyFilters))
	for _, k := range keyFilters {
		if k = strings.TrimSpace(k); k != "" {
			keys[k] = struct{}{}
		}
	}
	if len(wanted) == 0 && len(keys) == 0 {
		return teams
	}

	out := teams[:0]
	for _, team := range teams {
		if _, ok := keys[team.Key]; ok {
			out = append(out, team)
			continue
		}
		nick := strings.ToLower(team.Nickname)
		name := strings.ToLower(team.Name)
		for _, w := range wanted {
			if nick == w || name == w || strings.Contains(nick, w) || strings.Contains(name, w) {
				out = append(out, team)
				break
			}
		}
	}
	return out
}

// fantasyAverage is per-game production; with no games played the season
// total is treated as already per-game.
func fantasyAverage(row player.Row) float64 {
	if row.Games > 0 {
		return row.Fantasy / row.Games
	}
	return row.Fantasy
}

// applyBudget fills the value column in place and reports whether it should
// be rendered.
func applyBudget(rows []exportRow, budget float64, metric string) bool {
	if budget <= 0 || len(rows) == 0 {
		return false
	}
	useTotal := strings.EqualFold(strings.TrimSpace(metric), "total")

	var sum float64
	for _, row := range rows {
		if useTotal {
			sum += row.fptsTotal
		} else {
			sum += row.fptsAvg
		}
	}
	if sum <= 0 {
		return false
	}

	for i := range rows {
		share := rows[i].fptsAvg
		if useTotal {
			share = rows[i].fptsTotal
		}
		rows[i].value = budget * (share / sum)
	}
	return true
}

func renderCSV(rows []exportRow, withValue bool) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("team,team_key,player_id,name,pos,team_abbr,gp,fpts_total,fpts_avg")
	if withValue {
		buf.WriteString(",value")
	}
	buf.WriteByte('\n')

	for _, row := range rows {
		buf.WriteString(csvEscape(row.teamLabel))
		buf.WriteByte(',')
		buf.WriteString(csvEscape(row.teamKey))
		buf.WriteByte(',')
		buf.WriteString(csvEscape(row.playerID))
		buf.WriteByte(',')
		buf.WriteString(csvEscape(row.name))
		buf.WriteByte(',')
		buf.WriteString(csvEscape(row.pos))
		buf.WriteByte(',')
		buf.WriteString(csvEscape(row.teamAbbr))
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatFloat(row.games, 'f', -1, 64))
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatFloat(row.fptsTotal, 'f', 2, 64))
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatFloat(row.fptsAvg, 'f', 2, 64))
		if withValue {
			buf.WriteByte(',')
			buf.WriteString(strconv.FormatFloat(row.value, 'f', 2, 64))
		}
		buf.WriteByte('\n')
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func csvEscape(value string) string {
	if !strings.ContainsAny(value, "\",\n") {
		return value
	}
	return "\"" + strings.ReplaceAll(value, "\"", "\"\"") + "\""
}

func teamName(n deepscan.Node) string {
	switch name := n["name"].(type) {
	case string:
		return name
	case map[string]any:
		return deepscan.String(name, "full", "nickname")
	}
	return deepscan.String(n, "team_name")
}

func exportFilename(leagueKey string, now time.Time) string {
	part := filenameSafeRegex.ReplaceAllString(leagueKey, "_")
	if part == "" {
		part = "league"
	}
	return fmt.Sprintf("%s_rosters_%s.csv", part, now.UTC().Format("2006-01-02"))
}
