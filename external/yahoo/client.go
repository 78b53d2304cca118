// Package yahoo talks to the Yahoo Fantasy Sports v2 API on behalf of a
// signed-in profile.
package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/thatssomoneybaby/nba-site/internal/platform/cache"
	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
	"github.com/thatssomoneybaby/nba-site/internal/platform/logging"
	"github.com/thatssomoneybaby/nba-site/internal/platform/resilience"
	"github.com/thatssomoneybaby/nba-site/internal/usecase"
)

const defaultBaseURL = "https://fantasysports.yahooapis.com/fantasy/v2"

var bearerRegex = regexp.MustCompile(`Bearer\s+\S+`)
var errYahooTransient = crerr.New("yahoo transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements usecase.FantasyProvider. Responses are cached per
// session so repeated board refreshes do not hammer the provider.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	responses      *cache.Store
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     cfg.MaxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
		responses:      cache.NewStore(cacheTTL),
	}
}

func (c *Client) ListGames(ctx context.Context, session usecase.ProviderSession) (deepscan.Node, error) {
	return c.doJSON(ctx, session, "/users;use_login=1/games")
}

func (c *Client) ListLeagues(ctx context.Context, session usecase.ProviderSession, gameKeysCsv string) (deepscan.Node, error) {
	path := fmt.Sprintf("/users;use_login=1/games;game_keys=%s/leagues", url.PathEscape(gameKeysCsv))
	return c.doJSON(ctx, session, path)
}

func (c *Client) ListTeams(ctx context.Context, session usecase.ProviderSession, leagueKey string) (deepscan.Node, error) {
	path := fmt.Sprintf("/league/%s/teams", url.PathEscape(leagueKey))
	return c.doJSON(ctx, session, path)
}

func (c *Client) LeagueSettings(ctx context.Context, session usecase.ProviderSession, leagueKey string) (deepscan.Node, error) {
	path := fmt.Sprintf("/league/%s/settings", url.PathEscape(leagueKey))
	return c.doJSON(ctx, session, path)
}

func (c *Client) LeaguePlayers(ctx context.Context, session usecase.ProviderSession, leagueKey string, opts usecase.PlayerQuery) (deepscan.Node, error) {
	// out=stats is required; without it the listing omits the stat arrays.
	segments := []string{"out=stats"}
	if s := strings.TrimSpace(opts.SortType); s != "" {
		segments = append(segments, "sort_type="+url.PathEscape(s))
	}
	if d := strings.TrimSpace(opts.Date); d != "" {
		segments = append(segments, "date="+url.PathEscape(d))
	}
	path := fmt.Sprintf("/league/%s/players;%s", url.PathEscape(leagueKey), strings.Join(segments, ";"))
	return c.doJSON(ctx, session, path)
}

func (c *Client) TeamRoster(ctx context.Context, session usecase.ProviderSession, teamKey string) (deepscan.Node, error) {
	path := fmt.Sprintf("/team/%s/roster", url.PathEscape(teamKey))
	return c.doJSON(ctx, session, path)
}

// Forget drops the cached responses of one session, typically on logout.
func (c *Client) Forget(ctx context.Context, sessionID string) {
	c.responses.DeletePrefix(ctx, sessionID+":")
}

func (c *Client) doJSON(ctx context.Context, session usecase.ProviderSession, path string) (deepscan.Node, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: no provider session", usecase.ErrUnauthorized)
	}
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "yahoo circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: fantasy provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if strings.Contains(fullURL, "?") {
		fullURL += "&format=json"
	} else {
		fullURL += "?format=json"
	}

	// Responses are user-scoped; the cache and flight keys carry the
	// session id so profiles never see each other's payloads.
	key := session.SessionID() + ":" + path
	out, err := c.responses.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		raw, reqErr := c.fetch(ctx, session, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errYahooTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		if reqErr != nil {
			return nil, reqErr
		}

		var decoded map[string]any
		if err := sonic.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("decode provider payload: %w", err)
		}
		return decoded, nil
	})
	if err != nil {
		return nil, err
	}

	node, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	return node, nil
}

// fetch performs the request with retry on transient failures. A 401 gets one
// token refresh before it is surfaced as unauthorized.
func (c *Client) fetch(ctx context.Context, session usecase.ProviderSession, fullURL string) ([]byte, error) {
	refreshed := false
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		token, err := session.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: obtain access token: %v", usecase.ErrUnauthorized, err)
		}

		raw, status, err := c.executeRequest(ctx, fullURL, token)
		switch {
		case err != nil:
			lastErr = err
		case status >= 200 && status < 300:
			return raw, nil
		case status == http.StatusUnauthorized && !refreshed:
			// The refresh retry is free; it does not consume an attempt.
			session.Invalidate()
			refreshed = true
			attempt--
			continue
		case status == http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: provider rejected the access token", usecase.ErrUnauthorized)
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: provider status=%d body=%s", errYahooTransient, status, abbreviateBody(raw))
		default:
			return nil, fmt.Errorf("provider status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "yahoo request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) executeRequest(ctx context.Context, fullURL, token string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: send request: %s", errYahooTransient, sanitizeText(err.Error(), token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response body: %v", errYahooTransient, err)
	}

	return raw, resp.StatusCode, nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func sanitizeText(value, token string) string {
	value = strings.TrimSpace(value)
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return bearerRegex.ReplaceAllString(value, "Bearer REDACTED")
}
