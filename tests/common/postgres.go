package common

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresUser     = "simvest"
	PostgresPassword = "simvest"
	PostgresDatabase = "simvest"
)

var postgres sharedContainer

// PostgresContainer is the shared Postgres instance for the test run.
type PostgresContainer struct {
	*sharedContainer
}

// StartPostgres starts a shared Postgres container for the test run.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	postgres.start(t, "Postgres", testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     PostgresUser,
			"POSTGRES_PASSWORD": PostgresPassword,
			"POSTGRES_DB":       PostgresDatabase,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(60 * time.Second),
	}, "5432/tcp")

	return &PostgresContainer{&postgres}
}

// Host returns the mapped host.
func (c *PostgresContainer) Host() string { return c.host }

// Port returns the mapped port.
func (c *PostgresContainer) Port() int {
	p, _ := strconv.Atoi(c.port)
	return p
}

// DSN returns a connection URL for the test database.
func (c *PostgresContainer) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		PostgresUser, PostgresPassword, c.host, c.port, PostgresDatabase)
}

// Cleanup terminates the container.
func (c *PostgresContainer) Cleanup() {
	c.cleanup()
}
