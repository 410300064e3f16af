// Package common provides shared test infrastructure
package common

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// sharedContainer starts one container per test process and hands out its
// mapped host:port. Tests are skipped when Docker is unavailable.
type sharedContainer struct {
	once      sync.Once
	container testcontainers.Container
	host      string
	port      string
	err       error
}

func (s *sharedContainer) start(t *testing.T, name string, req testcontainers.ContainerRequest, port string) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			s.err = fmt.Errorf("start %s container: %w", name, err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			s.err = fmt.Errorf("get %s host: %w", name, err)
			return
		}

		mappedPort, err := container.MappedPort(ctx, port)
		if err != nil {
			container.Terminate(ctx)
			s.err = fmt.Errorf("get %s port: %w", name, err)
			return
		}

		s.container = container
		s.host = host
		s.port = mappedPort.Port()
	})

	if s.err != nil {
		t.Fatalf("%s container failed: %v", name, s.err)
	}
}

func (s *sharedContainer) cleanup() {
	if s != nil && s.container != nil {
		s.container.Terminate(context.Background())
	}
}
