package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/simvest/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/signup", s.handleSignup)
	mux.HandleFunc("/api/auth/login", s.handleLogin)

	// User
	mux.HandleFunc("/api/user", s.handleUser)

	// Watchlist
	mux.HandleFunc("/api/watchlist", s.handleWatchlist)

	// Portfolio
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/portfolio/buy", s.handleBuy)
	mux.HandleFunc("/api/portfolio/sell", s.handleSell)

	// Stocks. The most specific prefix wins, so /news/sentiment/ never
	// reaches the news handler.
	mux.HandleFunc("/api/stock", s.handleStockList)
	mux.HandleFunc("/api/stock/data/", s.handleStockData)
	mux.HandleFunc("/api/stock/hist_data/", s.handleStockHistory)
	mux.HandleFunc("/api/stock/chart/", s.handleStockChart)
	mux.HandleFunc("/api/stock/news/sentiment/", s.handleStockSentiment)
	mux.HandleFunc("/api/stock/news/", s.handleStockNews)
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"storage": s.app.Storage.Backend(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}
