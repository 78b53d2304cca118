package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/panjf2000/ants/v2"
	"github.com/thatssomoneybaby/nba-site/external/yahoo"
	"github.com/thatssomoneybaby/nba-site/internal/config"
	"github.com/thatssomoneybaby/nba-site/internal/infrastructure/dataset"
	"github.com/thatssomoneybaby/nba-site/internal/interfaces/httpapi"
	"github.com/thatssomoneybaby/nba-site/internal/platform/logging"
	"github.com/thatssomoneybaby/nba-site/internal/platform/resilience"
	"github.com/thatssomoneybaby/nba-site/internal/usecase"
	"golang.org/x/oauth2"
)

// NewHTTPServer assembles the whole service: persistence, the board and
// sync services, the Yahoo client, and the HTTP router. The returned cleanup
// releases everything the server holds besides its listener.
func NewHTTPServer(cfg config.Config, logger *slog.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repo, db, err := newDraftRepository(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	pool, err := ants.NewPool(cfg.SyncWorkers)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, fmt.Errorf("create sync worker pool: %w", err)
	}

	board := usecase.NewBoardService(repo, logger)
	seedBoard(cfg, board, logger)

	authenticator := yahoo.NewAuthenticator(yahoo.AuthConfig{
		ClientID:     cfg.YahooClientID,
		ClientSecret: cfg.YahooClientSecret,
		RedirectURL:  cfg.YahooRedirectURI,
	})
	sessionStore := yahoo.NewSessionStore(authenticator)
	client := yahoo.NewClient(yahoo.ClientConfig{
		BaseURL:    cfg.YahooBaseURL,
		Timeout:    cfg.YahooTimeout,
		MaxRetries: cfg.YahooMaxRetries,
		CacheTTL:   cfg.YahooCacheTTL,
		Logger:     logging.Default(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.YahooCircuitEnabled,
			FailureThreshold: cfg.YahooCircuitFailureCount,
			OpenTimeout:      cfg.YahooCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.YahooCircuitHalfOpenMax,
		},
	})

	syncService := usecase.NewSyncService(client, board, pool, logger)
	exportService := usecase.NewExportService(client, syncService, logger)

	sessions := &sessionManager{store: sessionStore, client: client}
	handler := httpapi.NewHandler(board, syncService, exportService, sessions, authenticator, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		pool.Release()
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	cleanup := func(context.Context) error {
		pool.Release()
		if db != nil {
			return db.Close()
		}
		return nil
	}

	return server, cleanup, nil
}

// seedBoard loads the bundled (or configured) season-average sheet so the
// board renders before anyone signs in to a live league.
func seedBoard(cfg config.Config, board *usecase.BoardService, logger *slog.Logger) {
	rows, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		logger.Warn("dataset load failed, board starts empty", "path", cfg.DatasetPath, "error", err)
		return
	}

	board.SeedRows(rows)
	logger.Info("dataset loaded", "players", len(rows))
}

// sessionManager adapts the yahoo session store for the HTTP layer and ties
// provider cache eviction to logout.
type sessionManager struct {
	store  *yahoo.SessionStore
	client *yahoo.Client
}

func (m *sessionManager) Ensure(sid string) (usecase.ProviderSession, string) {
	session, id := m.store.Ensure(sid)
	return session, id
}

func (m *sessionManager) Get(sid string) (usecase.ProviderSession, bool) {
	session, ok := m.store.Get(sid)
	if !ok {
		return nil, false
	}
	return session, true
}

func (m *sessionManager) Install(sid string, token *oauth2.Token) {
	m.store.Install(sid, token)
}

func (m *sessionManager) Drop(ctx context.Context, sid string) {
	m.store.Drop(sid)
	m.client.Forget(ctx, sid)
}
