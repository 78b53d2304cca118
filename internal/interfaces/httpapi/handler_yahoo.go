package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGames")
	defer span.End()

	session, err := h.requireSession(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	payload, err := h.syncService.Games(ctx, session)
	if err != nil {
		h.logger.WarnContext(ctx, "list games failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	session, err := h.requireSession(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagues, err := h.syncService.Leagues(ctx, session)
	if err != nil {
		h.logger.WarnContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagues)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	session, err := h.requireSession(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueKey := strings.TrimSpace(r.PathValue("leagueKey"))
	payload, err := h.syncService.Teams(ctx, session, leagueKey)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "league_key", leagueKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}
