// Package market serves instrument data: the catalog, current data, price
// history and news with its sentiment.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/simvest/internal/cache"
	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
)

const (
	providerUnavailableMessage  = "API limit reached. Please try again later."
	sentimentUnavailableMessage = "Sentiment analysis is unavailable. Please try again later."
)

// Service implements MarketService
type Service struct {
	catalog    interfaces.InstrumentCatalog
	quotes     interfaces.QuoteService
	history    interfaces.HistoryClient
	news       interfaces.NewsClient
	classifier interfaces.SentimentClassifier
	cache      interfaces.Cache
	historyTTL time.Duration
	newsTTL    time.Duration
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a new market service. history, news, classifier and
// cache may be nil; the matching endpoints then report ServiceUnavailable.
func NewService(
	catalog interfaces.InstrumentCatalog,
	quotes interfaces.QuoteService,
	history interfaces.HistoryClient,
	news interfaces.NewsClient,
	classifier interfaces.SentimentClassifier,
	c interfaces.Cache,
	cacheCfg common.CacheConfig,
	logger *common.Logger,
) *Service {
	return &Service{
		catalog:    catalog,
		quotes:     quotes,
		history:    history,
		news:       news,
		classifier: classifier,
		cache:      c,
		historyTTL: cacheCfg.GetHistoryTTL(),
		newsTTL:    cacheCfg.GetNewsTTL(),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) ListStocks(ctx context.Context) ([]models.Stock, error) {
	stocks, err := s.catalog.ListStocks(ctx)
	if err != nil {
		return nil, err
	}
	if stocks == nil {
		stocks = []models.Stock{}
	}
	return stocks, nil
}

func (s *Service) GetStockData(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
	st, err := s.catalog.GetStock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	q, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	snap := models.NewStockSnapshot(*st, *q)
	return &snap, nil
}

// bars returns one year of daily bars ending today, oldest first.
func (s *Service) bars(ctx context.Context, symbol string) ([]models.HistoricalBar, error) {
	if _, err := s.catalog.GetStock(ctx, symbol); err != nil {
		return nil, err
	}

	to := s.now().UTC()
	from := to.AddDate(-1, 0, 0)
	key := fmt.Sprintf("history:%s:%s", symbol, to.Format("2006-01-02"))

	var bars []models.HistoricalBar
	if s.cache != nil {
		if ok, err := cache.GetJSON(ctx, s.cache, key, &bars); err == nil && ok {
			return bars, nil
		}
	}

	if s.history == nil {
		return nil, common.Unavailable(fmt.Errorf("history provider not configured"), providerUnavailableMessage)
	}
	bars, err := s.history.GetEOD(ctx, symbol, interfaces.WithDateRange(from, to))
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("History fetch failed")
		return nil, common.Unavailable(err, providerUnavailableMessage)
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, bars, s.historyTTL); err != nil {
			s.logger.Debug().Err(err).Str("key", key).Msg("History cache write failed")
		}
	}
	return bars, nil
}

func (s *Service) GetHistory(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	bars, err := s.bars(ctx, symbol)
	if err != nil {
		return nil, err
	}
	h := models.NewPriceHistory(bars)
	return &h, nil
}

func (s *Service) GetHistoryChart(ctx context.Context, symbol string) ([]byte, error) {
	bars, err := s.bars(ctx, symbol)
	if err != nil {
		return nil, err
	}
	png, err := RenderCloseChart(symbol, bars)
	if err != nil {
		return nil, common.NotFoundf("Not enough price history to chart %s.", symbol)
	}
	return png, nil
}

func (s *Service) GetNews(ctx context.Context, symbol string) ([]models.NewsArticle, error) {
	st, err := s.catalog.GetStock(ctx, symbol)
	if err != nil {
		return nil, err
	}

	key := "news:" + st.Symbol
	var articles []models.NewsArticle
	if s.cache != nil {
		if ok, err := cache.GetJSON(ctx, s.cache, key, &articles); err == nil && ok {
			return articles, nil
		}
	}

	if s.news == nil {
		return nil, common.Unavailable(fmt.Errorf("news provider not configured"), providerUnavailableMessage)
	}
	articles, err = s.news.GetEverything(ctx, st.Symbol+" "+st.Name)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("News fetch failed")
		return nil, common.Unavailable(err, providerUnavailableMessage)
	}
	if articles == nil {
		articles = []models.NewsArticle{}
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, articles, s.newsTTL); err != nil {
			s.logger.Debug().Err(err).Str("key", key).Msg("News cache write failed")
		}
	}
	return articles, nil
}

// GetNewsSentiment scores the titles of the current news articles.
func (s *Service) GetNewsSentiment(ctx context.Context, symbol string) (*models.SentimentScore, error) {
	articles, err := s.GetNews(ctx, symbol)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(articles))
	for _, a := range articles {
		if a.Title != "" {
			titles = append(titles, a.Title)
		}
	}
	if len(titles) == 0 {
		score := models.NewSentimentScore(nil)
		return &score, nil
	}

	if s.classifier == nil {
		return nil, common.Unavailable(fmt.Errorf("sentiment classifier not configured"), sentimentUnavailableMessage)
	}
	probs, err := s.classifier.ClassifyHeadlines(ctx, titles)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Sentiment classification failed")
		return nil, common.Unavailable(err, sentimentUnavailableMessage)
	}

	score := models.NewSentimentScore(probs)
	s.logger.Debug().
		Str("symbol", symbol).
		Int("headlines", len(titles)).
		Float64("bullish", score.BullishPercent).
		Msg("News sentiment scored")
	return &score, nil
}

var _ interfaces.MarketService = (*Service)(nil)
