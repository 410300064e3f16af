package common

import (
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var redisShared sharedContainer

// RedisContainer is the shared Redis instance for the test run.
type RedisContainer struct {
	*sharedContainer
}

// StartRedis starts a shared Redis container for the test run.
func StartRedis(t *testing.T) *RedisContainer {
	t.Helper()

	redisShared.start(t, "Redis", testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		).WithDeadline(30 * time.Second),
	}, "6379/tcp")

	return &RedisContainer{&redisShared}
}

// Address returns host:port for a go-redis client.
func (c *RedisContainer) Address() string {
	return fmt.Sprintf("%s:%s", c.host, c.port)
}

// Cleanup terminates the container.
func (c *RedisContainer) Cleanup() {
	c.cleanup()
}
