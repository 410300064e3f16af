package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/simvest/internal/models"
)

func TestPortfolio_LedgerFlow(t *testing.T) {
	h := newTestHarness(t)
	token := h.signupAndLogin("frank")

	h.quotes.SetPrice("AAPL", 100)
	rr := h.do(http.MethodPost, "/api/portfolio/buy", token, `{"symbol":"aapl","quantity":10}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var buy buyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &buy))
	assert.Equal(t, buyResponse{Symbol: "AAPL", Quantity: 10, Price: 100}, buy)

	h.quotes.SetPrice("AAPL", 150)
	rr = h.do(http.MethodPost, "/api/portfolio/sell", token, `{"symbol":"AAPL","quantity":4}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var sell sellResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sell))
	assert.Equal(t, 200.0, sell.RealizedPnL)

	rr = h.do(http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var views []models.PositionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Apple Inc", views[0].Name)
	assert.Equal(t, int64(6), views[0].TotalUnits)
	assert.Equal(t, 600.0, views[0].TotalPaid)
	assert.Equal(t, 900.0, views[0].TotalCurrentWorth)
	assert.Equal(t, 300.0, views[0].TotalPnL)

	h.quotes.SetPrice("AAPL", 120)
	rr = h.do(http.MethodPost, "/api/portfolio/sell", token, `{"symbol":"AAPL","quantity":6}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = h.do(http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var profile struct {
		RealizedPnL float64 `json:"realised_pnl"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, 320.0, profile.RealizedPnL)

	rr = h.do(http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestBuy_ErrorOrderAndQuantityParsing(t *testing.T) {
	h := newTestHarness(t)
	token := h.signupAndLogin("gina")
	h.quotes.SetPrice("AAPL", 10)

	rr := h.do(http.MethodPost, "/api/portfolio/buy", token, `{"symbol":"ZZZ","quantity":1.5}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Stock does not exist in our database.", decodeError(t, rr).Error)

	for _, body := range []string{
		`{"symbol":"AAPL","quantity":1.5}`,
		`{"symbol":"AAPL","quantity":"3"}`,
		`{"symbol":"AAPL","quantity":0}`,
		`{"symbol":"AAPL","quantity":-2}`,
		`{"symbol":"AAPL"}`,
	} {
		rr = h.do(http.MethodPost, "/api/portfolio/buy", token, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "Invalid quantity.", decodeError(t, rr).Error, body)
	}

	rr = h.do(http.MethodPost, "/api/portfolio/buy", token, `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSell_Errors(t *testing.T) {
	h := newTestHarness(t)
	token := h.signupAndLogin("hank")

	rr := h.do(http.MethodPost, "/api/portfolio/sell", token, `{"symbol":"AAPL","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid quantity.", decodeError(t, rr).Error)

	rr = h.do(http.MethodPost, "/api/portfolio/sell", token, `{"symbol":"AAPL","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "No such stock exists in your portfolio.", decodeError(t, rr).Error)

	h.quotes.SetPrice("AAPL", 10)
	rr = h.do(http.MethodPost, "/api/portfolio/buy", token, `{"symbol":"AAPL","quantity":2}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = h.do(http.MethodPost, "/api/portfolio/sell", token, `{"symbol":"AAPL","quantity":3}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "You do not own enough units to sell.", decodeError(t, rr).Error)
}

func TestBuy_ProviderUnavailable(t *testing.T) {
	h := newTestHarness(t)
	token := h.signupAndLogin("ivy")
	h.quotes.Err = assert.AnError

	rr := h.do(http.MethodPost, "/api/portfolio/buy", token, `{"symbol":"AAPL","quantity":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))
	e := decodeError(t, rr)
	assert.Equal(t, "API limit reached. Please try again later.", e.Error)
	assert.Equal(t, "service_unavailable", e.Code)
}

func TestBuy_SingleCatalogLookup(t *testing.T) {
	h := newTestHarness(t)
	token := h.signupAndLogin("lena")
	h.quotes.SetPrice("AAPL", 10)

	before := h.stocks.gets.Load()
	rr := h.do(http.MethodPost, "/api/portfolio/buy", token, `{"symbol":"AAPL","quantity":2}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(1), h.stocks.gets.Load()-before)

	before = h.stocks.gets.Load()
	rr = h.do(http.MethodPost, "/api/portfolio/buy", token, `{"symbol":"AAPL","quantity":"2"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, int64(1), h.stocks.gets.Load()-before)
}

func TestBuy_OverflowingQuantity(t *testing.T) {
	h := newTestHarness(t)
	token := h.signupAndLogin("mona")
	h.quotes.SetPrice("AAPL", 1)

	body := `{"symbol":"AAPL","quantity":5000000000000000000}`
	rr := h.do(http.MethodPost, "/api/portfolio/buy", token, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = h.do(http.MethodPost, "/api/portfolio/buy", token, body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid quantity.", decodeError(t, rr).Error)

	rr = h.do(http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var views []models.PositionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, int64(5_000_000_000_000_000_000), views[0].TotalUnits)
}
