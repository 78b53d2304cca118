package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/thatssomoneybaby/nba-site/internal/usecase"
)

type filterUpdateRequest struct {
	Query           *string `json:"query"`
	Position        *string `json:"pos"`
	HideDrafted     *bool   `json:"hide_drafted"`
	SortKey         *string `json:"sort_key" validate:"omitempty,max=16"`
	SortDirection   *string `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
	HighlightRoster *bool   `json:"highlight_roster"`
	OnlyRoster      *bool   `json:"only_roster"`
}

type syncBoardRequest struct {
	LeagueKey  string `json:"league_key"`
	LeagueURL  string `json:"league_url"`
	LeagueName string `json:"league_name"`
	SortType   string `json:"sort_type" validate:"omitempty,oneof=season average lastmonth lastweek"`
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type rosterRequest struct {
	TeamKey   string   `json:"team_key"`
	PlayerIDs []string `json:"player_ids" validate:"omitempty,dive,required"`
}

type toggleDraftedDTO struct {
	PlayerID string `json:"player_id"`
	Drafted  bool   `json:"drafted"`
}

type syncResultDTO struct {
	League  usecase.LeagueRef `json:"league"`
	Players int               `json:"players"`
	Applied bool              `json:"applied"`
}

type rosterResultDTO struct {
	PlayerIDs []string `json:"player_ids"`
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBoard")
	defer span.End()

	view := h.boardService.Snapshot(ctx, profileID(r))
	writeSuccess(ctx, w, http.StatusOK, view)
}

func (h *Handler) ToggleDrafted(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleDrafted")
	defer span.End()

	playerID := strings.TrimSpace(r.PathValue("playerID"))
	drafted, err := h.boardService.ToggleDrafted(ctx, profileID(r), playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "toggle drafted failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toggleDraftedDTO{PlayerID: playerID, Drafted: drafted})
}

func (h *Handler) ClearDrafted(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearDrafted")
	defer span.End()

	confirmed := strings.EqualFold(r.URL.Query().Get("confirm"), "true")
	if err := h.boardService.ClearDrafted(ctx, profileID(r), confirmed); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.boardService.Snapshot(ctx, profileID(r)))
}

func (h *Handler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateFilters")
	defer span.End()

	var req filterUpdateRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	filters, err := h.boardService.SetFilters(ctx, profileID(r), usecase.FilterUpdate{
		Query:           req.Query,
		Position:        req.Position,
		HideDrafted:     req.HideDrafted,
		SortKey:         req.SortKey,
		SortDirection:   req.SortDirection,
		HighlightRoster: req.HighlightRoster,
		OnlyRoster:      req.OnlyRoster,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, filters)
}

func (h *Handler) SyncBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncBoard")
	defer span.End()

	session, err := h.requireSession(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req syncBoardRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.SyncBoard(ctx, profileID(r), session,
		usecase.LeagueSelector{
			Key:  req.LeagueKey,
			URL:  req.LeagueURL,
			Name: req.LeagueName,
		},
		usecase.PlayerQuery{
			SortType: req.SortType,
			Date:     req.Date,
		},
	)
	if err != nil {
		h.logger.WarnContext(ctx, "board sync failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, syncResultDTO{
		League:  result.League,
		Players: result.Players,
		Applied: result.Applied,
	})
}

// SetRoster accepts either a provider team key to fetch and match a live
// roster, or an explicit player id list.
func (h *Handler) SetRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetRoster")
	defer span.End()

	var req rosterRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	profile := profileID(r)
	if teamKey := strings.TrimSpace(req.TeamKey); teamKey != "" {
		session, err := h.requireSession(r)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		ids, err := h.syncService.SyncRoster(ctx, profile, session, teamKey)
		if err != nil {
			h.logger.WarnContext(ctx, "roster sync failed", "team_key", teamKey, "error", err)
			writeError(ctx, w, err)
			return
		}

		writeSuccess(ctx, w, http.StatusOK, rosterResultDTO{PlayerIDs: ids})
		return
	}

	if len(req.PlayerIDs) == 0 {
		writeError(ctx, w, fmt.Errorf("%w: either team_key or player_ids is required", usecase.ErrInvalidInput))
		return
	}

	h.boardService.SetRoster(ctx, profile, req.PlayerIDs)
	writeSuccess(ctx, w, http.StatusOK, rosterResultDTO{PlayerIDs: req.PlayerIDs})
}

func (h *Handler) ExportRosters(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExportRosters")
	defer span.End()

	session, err := h.requireSession(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	opts, err := exportOptionsFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.exportService.ExportRosters(ctx, session, opts)
	if err != nil {
		h.logger.WarnContext(ctx, "roster export failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.CSV)
}

func exportOptionsFromQuery(r *http.Request) (usecase.ExportOptions, error) {
	query := r.URL.Query()

	opts := usecase.ExportOptions{
		League: usecase.LeagueSelector{
			Key:  query.Get("league_key"),
			URL:  query.Get("league_url"),
			Name: query.Get("league_name"),
		},
		TeamFilter: query["team"],
		TeamKeys:   query["team_key"],
		Metric:     query.Get("metric"),
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return usecase.ExportOptions{}, fmt.Errorf("%w: invalid limit: %v", usecase.ErrInvalidInput, err)
		}
		opts.Limit = limit
	}
	if raw := strings.TrimSpace(query.Get("budget")); raw != "" {
		budget, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return usecase.ExportOptions{}, fmt.Errorf("%w: invalid budget: %v", usecase.ErrInvalidInput, err)
		}
		opts.Budget = budget
	}
	if opts.Metric != "" && opts.Metric != "avg" && opts.Metric != "total" {
		return usecase.ExportOptions{}, fmt.Errorf("%w: metric must be avg or total", usecase.ErrInvalidInput)
	}

	return opts, nil
}
