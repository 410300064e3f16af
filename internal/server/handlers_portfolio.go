package server

import (
	"encoding/json"
	"net/http"

	"github.com/bobmcallan/simvest/internal/common"
)

type tradeRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity json.RawMessage `json:"quantity"`
}

type buyResponse struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

type sellResponse struct {
	Symbol      string  `json:"symbol"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	RealizedPnL float64 `json:"realised_pnl"`
}

// handlePortfolio handles GET /api/portfolio.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	views, err := s.app.PortfolioService.View(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, views)
}

// decodeTrade reads a trade body. The symbol is required; the quantity is
// returned unparsed so the ledger keeps its own check order.
func (s *Server) decodeTrade(w http.ResponseWriter, r *http.Request) (string, json.RawMessage, bool) {
	var req tradeRequest
	if !DecodeJSON(w, r, &req) {
		return "", nil, false
	}
	symbol := normalizeSymbol(req.Symbol)
	if symbol == "" {
		s.writeAppError(w, r, common.Validationf("Missing symbol"))
		return "", nil, false
	}
	return symbol, req.Quantity, true
}

// handleBuy handles POST /api/portfolio/buy.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	symbol, rawQty, ok := s.decodeTrade(w, r)
	if !ok {
		return
	}

	// Buy checks the stock before the quantity, so an unparseable quantity
	// is passed on as zero and rejected there.
	quantity, err := parseQuantity(rawQty)
	if err != nil {
		quantity = 0
	}

	res, err := s.app.PortfolioService.Buy(r.Context(), userID, symbol, quantity)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, buyResponse{
		Symbol:   res.Symbol,
		Quantity: res.Quantity,
		Price:    res.Price.InexactFloat64(),
	})
}

// handleSell handles POST /api/portfolio/sell.
func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	symbol, rawQty, ok := s.decodeTrade(w, r)
	if !ok {
		return
	}
	quantity, err := parseQuantity(rawQty)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	res, err := s.app.PortfolioService.Sell(r.Context(), userID, symbol, quantity)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sellResponse{
		Symbol:      res.Symbol,
		Quantity:    res.Quantity,
		Price:       res.Price.InexactFloat64(),
		RealizedPnL: res.RealizedDelta.InexactFloat64(),
	})
}
