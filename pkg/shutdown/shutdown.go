// Package shutdown runs a fixed set of shutdown callbacks concurrently
// with a deadline, grounded on the reference's pkg/shutdown.Manager
// (same OnShutdown/Shutdown shape), rewired here onto logrus instead of
// the reference's own pkg/logger.
package shutdown

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "shutdown")

// Handler is one shutdown step. It must respect ctx's deadline. The
// *sync.WaitGroup it receives is the manager's own and is already
// tracking this handler's completion — it is passed through only so a
// handler can fan out additional Add/Done pairs of its own.
type Handler func(ctx context.Context, wg *sync.WaitGroup)

// Manager collects shutdown handlers registered during startup and runs
// them all concurrently when the process is asked to stop.
type Manager struct {
	mu        sync.Mutex
	callbacks []Handler
}

func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown registers handler to run on the next Shutdown call.
func (m *Manager) OnShutdown(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, handler)
}

// Shutdown runs every registered handler concurrently and blocks until
// they all finish or ctx's deadline passes, whichever comes first.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	callbacks := m.callbacks
	m.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}
	log.WithField("handlers", len(callbacks)).Info("shutting down")

	var wg sync.WaitGroup
	wg.Add(len(callbacks))
	for _, cb := range callbacks {
		go func(handler Handler) {
			defer wg.Done()
			handler(ctx, &wg)
		}(cb)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("shutdown complete")
	case <-ctx.Done():
		log.WithError(ctx.Err()).Warn("shutdown deadline exceeded")
	}
}
