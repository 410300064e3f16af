package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/simvest/internal/app"
	"github.com/bobmcallan/simvest/internal/cache"
	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
	"github.com/bobmcallan/simvest/internal/storage/memory"
	testcommon "github.com/bobmcallan/simvest/test/common"
)

type testHarness struct {
	t          *testing.T
	stocks     *countingStockStore
	server     *Server
	app        *app.App
	quotes     *testcommon.MockQuoteClient
	news       *testcommon.MockNewsClient
	classifier *testcommon.MockClassifier
}

// countingStorage wraps the memory store and counts stock lookups.
type countingStorage struct {
	*memory.Manager
	stocks *countingStockStore
}

func (c *countingStorage) StockStore() interfaces.StockStore { return c.stocks }

type countingStockStore struct {
	interfaces.StockStore
	gets atomic.Int64
}

func (c *countingStockStore) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	c.gets.Add(1)
	return c.StockStore.GetStock(ctx, symbol)
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Portfolio.WatchlistLimit = 3
	logger := common.NewSilentLogger()

	mem := memory.NewManager(logger)
	store := &countingStorage{Manager: mem, stocks: &countingStockStore{StockStore: mem}}
	require.NoError(t, store.SaveStocks(context.Background(), []models.Stock{
		{Symbol: "AAPL", Name: "Apple Inc"},
		{Symbol: "MSFT", Name: "Microsoft Corp"},
		{Symbol: "NVDA", Name: "Nvidia Corp"},
		{Symbol: "AMZN", Name: "Amazon.com Inc"},
	}))

	h := &testHarness{
		t:          t,
		stocks:     store.stocks,
		quotes:     testcommon.NewMockQuoteClient(),
		news:       &testcommon.MockNewsClient{},
		classifier: &testcommon.MockClassifier{Scores: map[string]float64{}},
	}
	h.app = app.New(cfg, logger, app.Deps{
		Storage:       store,
		Cache:         cache.NewMemoryCache(),
		QuoteClient:   h.quotes,
		HistoryClient: testcommon.NewMockHistoryClient(),
		NewsClient:    h.news,
		Classifier:    h.classifier,
	})
	h.server = NewServer(h.app)
	t.Cleanup(func() { h.app.Close() })
	return h
}

// do sends a request through the full middleware chain.
func (h *testHarness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(h.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rr, req)
	return rr
}

// signupAndLogin creates an account and returns its bearer token.
func (h *testHarness) signupAndLogin(username string) string {
	h.t.Helper()
	rr := h.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"first_name": "Test",
		"last_name":  "User",
		"username":   username,
		"password":   "hunter22",
	})
	require.Equal(h.t, http.StatusOK, rr.Code, rr.Body.String())

	rr = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "hunter22",
	})
	require.Equal(h.t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(h.t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e), rr.Body.String())
	return e
}
