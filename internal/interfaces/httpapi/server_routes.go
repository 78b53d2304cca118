package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerBoardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/board", handler.GetBoard)
	mux.HandleFunc("POST /v1/board/drafted/{playerID}", handler.ToggleDrafted)
	mux.HandleFunc("DELETE /v1/board/drafted", handler.ClearDrafted)
	mux.HandleFunc("PUT /v1/board/filters", handler.UpdateFilters)
	mux.HandleFunc("POST /v1/board/sync", handler.SyncBoard)
	mux.HandleFunc("POST /v1/board/roster", handler.SetRoster)
	mux.HandleFunc("GET /v1/board/export.csv", handler.ExportRosters)
}

func registerProviderRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/yahoo/games", handler.ListGames)
	mux.HandleFunc("GET /v1/yahoo/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/yahoo/teams/{leagueKey}", handler.ListTeams)
}

func registerAuthRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/auth/yahoo", handler.BeginAuth)
	mux.HandleFunc("GET /v1/auth/yahoo/callback", handler.CompleteAuth)
	mux.HandleFunc("POST /v1/auth/logout", handler.Logout)
}
