// Package memory implements the storage interfaces in process memory.
// It backs local development and tests; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/models"
)

type positionKey struct {
	userID string
	symbol string
}

// Manager implements interfaces.StorageManager and every store interface.
// A single mutex serializes writes, which also serializes ledger updates per user.
type Manager struct {
	mu         sync.RWMutex
	users      map[string]*models.User
	usernames  map[string]string
	stocks     map[string]models.Stock
	watchlists map[string][]models.WatchlistEntry
	positions  map[positionKey]*models.Position
	now        func() time.Time
	logger     *common.Logger
}

// NewManager returns an empty in-memory store.
func NewManager(logger *common.Logger) *Manager {
	logger.Info().Msg("In-memory storage manager initialized")
	return &Manager{
		users:      make(map[string]*models.User),
		usernames:  make(map[string]string),
		stocks:     make(map[string]models.Stock),
		watchlists: make(map[string][]models.WatchlistEntry),
		positions:  make(map[positionKey]*models.Position),
		now:        time.Now,
		logger:     logger,
	}
}

func (m *Manager) UserStore() interfaces.UserStore           { return m }
func (m *Manager) StockStore() interfaces.StockStore         { return m }
func (m *Manager) WatchlistStore() interfaces.WatchlistStore { return m }
func (m *Manager) PortfolioStore() interfaces.PortfolioStore { return m }
func (m *Manager) Backend() string                           { return "memory" }
func (m *Manager) Close() error                              { return nil }

// --- users ---

func (m *Manager) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, taken := m.usernames[key]; taken {
		return common.ErrDuplicate
	}
	if _, taken := m.users[user.ID]; taken {
		return common.ErrDuplicate
	}
	u := *user
	m.users[u.ID] = &u
	m.usernames[key] = u.ID
	return nil
}

func (m *Manager) GetUser(_ context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *Manager) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	id, ok := m.usernames[strings.ToLower(username)]
	m.mu.RUnlock()
	if !ok {
		return nil, common.ErrNotFound
	}
	return m.GetUser(ctx, id)
}

// --- stocks ---

func (m *Manager) SaveStocks(_ context.Context, stocks []models.Stock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range stocks {
		m.stocks[s.Symbol] = s
	}
	return nil
}

func (m *Manager) GetStock(_ context.Context, symbol string) (*models.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stocks[symbol]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (m *Manager) ListStocks(_ context.Context) ([]models.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Stock, 0, len(m.stocks))
	for _, s := range m.stocks {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Manager) CountStocks(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stocks), nil
}

// --- watchlist ---

func (m *Manager) ListWatchlist(_ context.Context, userID string) ([]models.WatchlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.watchlists[userID]
	out := make([]models.WatchlistEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *Manager) AddToWatchlist(_ context.Context, entry models.WatchlistEntry, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.watchlists[entry.UserID]
	for _, e := range entries {
		if e.Symbol == entry.Symbol {
			return common.ErrDuplicate
		}
	}
	if len(entries) >= limit {
		return common.ErrLimitReached
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = m.now()
	}
	m.watchlists[entry.UserID] = append(entries, entry)
	return nil
}

func (m *Manager) RemoveFromWatchlist(_ context.Context, userID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.watchlists[userID]
	for i, e := range entries {
		if e.Symbol == symbol {
			m.watchlists[userID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

// --- portfolio ---

func (m *Manager) GetPosition(_ context.Context, userID, symbol string) (*models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[positionKey{userID, symbol}]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *Manager) ListPositions(_ context.Context, userID string) ([]models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Position
	for k, p := range m.positions {
		if k.userID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Manager) UpdatePosition(_ context.Context, userID, symbol string, fn interfaces.LedgerFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return common.ErrNotFound
	}

	key := positionKey{userID, symbol}
	tx := &models.LedgerTx{RealizedPnL: user.RealizedPnL}
	if p, ok := m.positions[key]; ok {
		cp := *p
		tx.Position = &cp
	}

	if err := fn(tx); err != nil {
		return err
	}

	if tx.Position == nil || tx.Position.Units == 0 {
		delete(m.positions, key)
	} else {
		p := *tx.Position
		p.UserID = userID
		p.Symbol = symbol
		p.UpdatedAt = m.now()
		m.positions[key] = &p
	}
	user.RealizedPnL = tx.RealizedPnL
	return nil
}
