package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/thatssomoneybaby/nba-site/internal/usecase"
	"golang.org/x/oauth2"
)

const (
	sessionCookieName = "sid"
	sessionCookieTTL  = 7 * 24 * time.Hour
	defaultProfileID  = "default"
)

// ProviderAuth starts and completes the fantasy provider's OAuth flow.
type ProviderAuth interface {
	Enabled() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// SessionManager maps browser session ids to provider sessions.
type SessionManager interface {
	// Ensure returns the session for sid, minting a fresh one (and a fresh
	// id) when sid is empty or unknown.
	Ensure(sid string) (usecase.ProviderSession, string)
	// Get returns the session only when it holds provider credentials.
	Get(sid string) (usecase.ProviderSession, bool)
	Install(sid string, token *oauth2.Token)
	Drop(ctx context.Context, sid string)
}

type Handler struct {
	boardService  *usecase.BoardService
	syncService   *usecase.SyncService
	exportService *usecase.ExportService
	sessions      SessionManager
	auth          ProviderAuth
	logger        *slog.Logger
	validator     *validator.Validate
}

func NewHandler(
	boardService *usecase.BoardService,
	syncService *usecase.SyncService,
	exportService *usecase.ExportService,
	sessions SessionManager,
	auth ProviderAuth,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		boardService:  boardService,
		syncService:   syncService,
		exportService: exportService,
		sessions:      sessions,
		auth:          auth,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// profileID scopes board state per caller. The API is single-user by
// default; multiple browser profiles opt in via the header.
func profileID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Profile-ID")); id != "" {
		return id
	}
	return defaultProfileID
}

// requireSession resolves the caller's authenticated provider session from
// the sid cookie. Callers that only need board state never hit this path.
func (h *Handler) requireSession(r *http.Request) (usecase.ProviderSession, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, fmt.Errorf("%w: no active session, sign in first", usecase.ErrUnauthorized)
	}

	session, ok := h.sessions.Get(cookie.Value)
	if !ok {
		return nil, fmt.Errorf("%w: session is not authenticated, sign in first", usecase.ErrUnauthorized)
	}

	return session, nil
}

func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func setSessionCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(sessionCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) decodeBody(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
