package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/models"
)

// userRecord is the stored form of a user. Money is kept as decimal strings.
type userRecord struct {
	UserID       string    `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	UsernameKey  string    `json:"username_key"`
	PasswordHash string    `json:"password_hash"`
	RealizedPnL  string    `json:"realized_pnl"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *userRecord) toModel() (*models.User, error) {
	pnl, err := parseDecimal(r.RealizedPnL)
	if err != nil {
		return nil, fmt.Errorf("user %s realized_pnl: %w", r.UserID, err)
	}
	return &models.User{
		ID:           r.UserID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		RealizedPnL:  pnl,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// UserStore implements interfaces.UserStore using SurrealDB.
type UserStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewUserStore(db *surrealdb.DB, logger *common.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := s.GetUserByUsername(ctx, user.Username); err == nil {
		return common.ErrDuplicate
	}

	rec := userRecord{
		UserID:       user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Username:     user.Username,
		UsernameKey:  strings.ToLower(user.Username),
		PasswordHash: user.PasswordHash,
		RealizedPnL:  user.RealizedPnL.String(),
		CreatedAt:    user.CreatedAt,
	}
	sql := "CREATE type::record('user', $id) CONTENT $user"
	vars := map[string]any{"id": user.ID, "user": rec}

	if _, err := surrealdb.Query[[]userRecord](ctx, s.db, sql, vars); err != nil {
		if isDuplicateError(err) {
			return common.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	rec, err := surrealdb.Select[userRecord](ctx, s.db, surrealmodels.NewRecordID(tableUser, userID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	if rec == nil || rec.UserID == "" {
		return nil, common.ErrNotFound
	}
	return rec.toModel()
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	sql := "SELECT * FROM user WHERE username_key = $key LIMIT 1"
	rows, err := queryRows[userRecord](ctx, s.db, sql, map[string]any{"key": strings.ToLower(username)})
	if err != nil {
		return nil, fmt.Errorf("failed to query user by username: %w", err)
	}
	if len(rows) == 0 {
		return nil, common.ErrNotFound
	}
	return rows[0].toModel()
}
