// Package storage selects and constructs the configured storage backend.
package storage

import (
	"context"
	"fmt"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
	"github.com/bobmcallan/simvest/internal/storage/memory"
	"github.com/bobmcallan/simvest/internal/storage/postgres"
	"github.com/bobmcallan/simvest/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendSurrealDB = "surrealdb"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

// NewStorageManager creates a storage manager based on the configuration.
// Supported backends: "surrealdb" (default), "postgres", "memory".
func NewStorageManager(ctx context.Context, logger *common.Logger, config common.StorageConfig) (interfaces.StorageManager, error) {
	backend := config.Backend
	if backend == "" {
		backend = BackendSurrealDB
	}

	switch backend {
	case BackendSurrealDB:
		return surrealdb.NewManager(ctx, logger, config.SurrealDB)

	case BackendPostgres:
		return postgres.NewManager(ctx, logger, config.Postgres)

	case BackendMemory:
		logger.Warn().Msg("Using in-memory storage; data is lost on restart")
		return memory.NewManager(logger), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: surrealdb, postgres, memory)", backend)
	}
}
