package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/simvest/internal/common"
	tcommon "github.com/bobmcallan/simvest/tests/common"
)

var dbCounter atomic.Int64

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}

// testManager returns a Manager on a fresh database inside the shared container.
func testManager(t *testing.T) *Manager {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	name := fmt.Sprintf("%s_%d", strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_")), dbCounter.Add(1))

	m, err := NewManager(context.Background(), testLogger(), common.SurrealDBConfig{
		Address:   sc.Address(),
		Namespace: "simvest_test",
		Database:  name,
		Username:  "root",
		Password:  "root",
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}
