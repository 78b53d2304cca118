package usecase

import (
	"context"

	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
)

// ProviderSession supplies the OAuth access token for one signed-in profile.
// Invalidate drops the cached access token so the next AccessToken call
// refreshes it.
type ProviderSession interface {
	SessionID() string
	AccessToken(ctx context.Context) (string, error)
	Invalidate()
}

// FantasyProvider is the outbound contract to the fantasy data source.
// Responses come back as raw decoded JSON; the provider's nesting is too
// irregular to model with structs, so callers deep-scan the nodes instead.
type FantasyProvider interface {
	ListGames(ctx context.Context, session ProviderSession) (deepscan.Node, error)
	ListLeagues(ctx context.Context, session ProviderSession, gameKeysCsv string) (deepscan.Node, error)
	ListTeams(ctx context.Context, session ProviderSession, leagueKey string) (deepscan.Node, error)
	LeagueSettings(ctx context.Context, session ProviderSession, leagueKey string) (deepscan.Node, error)
	LeaguePlayers(ctx context.Context, session ProviderSession, leagueKey string, opts PlayerQuery) (deepscan.Node, error)
	TeamRoster(ctx context.Context, session ProviderSession, teamKey string) (deepscan.Node, error)
}

// PlayerQuery narrows a league players listing. Zero values are omitted from
// the request.
type PlayerQuery struct {
	SortType string
	Date     string
}
