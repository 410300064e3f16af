package server

import (
	"net/http"
	"strconv"

	"github.com/bobmcallan/simvest/internal/common"
)

// handleStockList handles GET /api/stock.
func (s *Server) handleStockList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	stocks, err := s.app.MarketService.ListStocks(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stocks)
}

// stockSymbol reads the trailing {symbol} segment, writing 400 when absent.
func (s *Server) stockSymbol(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	symbol := normalizeSymbol(PathParam(r, prefix, ""))
	if symbol == "" {
		s.writeAppError(w, r, common.Validationf("Missing symbol"))
		return "", false
	}
	return symbol, true
}

// handleStockData handles GET /api/stock/data/{symbol}.
func (s *Server) handleStockData(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol, ok := s.stockSymbol(w, r, "/api/stock/data/")
	if !ok {
		return
	}
	snap, err := s.app.MarketService.GetStockData(r.Context(), symbol)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// handleStockHistory handles GET /api/stock/hist_data/{symbol}.
func (s *Server) handleStockHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol, ok := s.stockSymbol(w, r, "/api/stock/hist_data/")
	if !ok {
		return
	}
	history, err := s.app.MarketService.GetHistory(r.Context(), symbol)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, history)
}

// handleStockChart handles GET /api/stock/chart/{symbol}.
func (s *Server) handleStockChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol, ok := s.stockSymbol(w, r, "/api/stock/chart/")
	if !ok {
		return
	}
	png, err := s.app.MarketService.GetHistoryChart(r.Context(), symbol)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleStockNews handles GET /api/stock/news/{symbol}.
func (s *Server) handleStockNews(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol, ok := s.stockSymbol(w, r, "/api/stock/news/")
	if !ok {
		return
	}
	articles, err := s.app.MarketService.GetNews(r.Context(), symbol)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, articles)
}

// handleStockSentiment handles GET /api/stock/news/sentiment/{symbol}.
func (s *Server) handleStockSentiment(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol, ok := s.stockSymbol(w, r, "/api/stock/news/sentiment/")
	if !ok {
		return
	}
	score, err := s.app.MarketService.GetNewsSentiment(r.Context(), symbol)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, score)
}
