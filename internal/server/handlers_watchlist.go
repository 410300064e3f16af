package server

import (
	"net/http"

	"github.com/bobmcallan/simvest/internal/common"
)

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

// handleWatchlist routes GET, POST and DELETE on /api/watchlist.
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost, http.MethodDelete) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if r.Method == http.MethodGet {
		list, err := s.app.WatchlistService.List(ctx, userID)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, list)
		return
	}

	var req symbolRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	symbol := normalizeSymbol(req.Symbol)
	if symbol == "" {
		s.writeAppError(w, r, common.Validationf("Missing symbol"))
		return
	}

	switch r.Method {
	case http.MethodPost:
		if err := s.app.WatchlistService.Add(ctx, userID, symbol); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, symbolRequest{Symbol: symbol})
	case http.MethodDelete:
		if err := s.app.WatchlistService.Remove(ctx, userID, symbol); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, symbolRequest{Symbol: symbol})
	}
}
