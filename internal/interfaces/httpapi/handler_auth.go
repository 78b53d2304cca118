package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/thatssomoneybaby/nba-site/internal/usecase"
)

// BeginAuth redirects the browser into the provider's OAuth consent flow.
// The session id doubles as the OAuth state parameter.
func (h *Handler) BeginAuth(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BeginAuth")
	defer span.End()

	if !h.auth.Enabled() {
		writeError(ctx, w, fmt.Errorf("%w: yahoo oauth is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	_, sid := h.sessions.Ensure(sessionIDFromRequest(r))
	setSessionCookie(w, sid)

	http.Redirect(w, r, h.auth.AuthCodeURL(sid), http.StatusFound)
}

func (h *Handler) CompleteAuth(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CompleteAuth")
	defer span.End()

	if !h.auth.Enabled() {
		writeError(ctx, w, fmt.Errorf("%w: yahoo oauth is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	query := r.URL.Query()
	if reason := strings.TrimSpace(query.Get("error")); reason != "" {
		writeError(ctx, w, fmt.Errorf("%w: provider denied authorization: %s", usecase.ErrUnauthorized, reason))
		return
	}

	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		writeError(ctx, w, fmt.Errorf("%w: authorization code is missing", usecase.ErrInvalidInput))
		return
	}

	sid := sessionIDFromRequest(r)
	if sid == "" || query.Get("state") != sid {
		writeError(ctx, w, fmt.Errorf("%w: oauth state does not match session", usecase.ErrInvalidInput))
		return
	}

	token, err := h.auth.Exchange(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "oauth code exchange failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.sessions.Install(sid, token)
	setSessionCookie(w, sid)

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Logout")
	defer span.End()

	if sid := sessionIDFromRequest(r); sid != "" {
		h.sessions.Drop(ctx, sid)
	}
	clearSessionCookie(w)

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "signed_out"})
}
