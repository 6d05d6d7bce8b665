// Package shutdown coordinates graceful teardown on SIGINT/SIGTERM:
// named steps run in registration order, with a forced exit after a
// timeout so a wedged step can't hang the process.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/andrewdodd13/botologist/internal/output"
)

type step struct {
	name string
	fn   func() error
}

// Handler runs registered teardown steps when a termination signal
// arrives.
type Handler struct {
	logger       output.Logger
	forceTimeout time.Duration

	mu    sync.Mutex
	steps []step

	done    chan struct{}
	signals chan os.Signal
	once    sync.Once
}

// NewHandler starts listening for SIGINT and SIGTERM
func NewHandler(logger output.Logger, forceTimeout time.Duration) *Handler {
	h := &Handler{
		logger:       logger,
		forceTimeout: forceTimeout,
		done:         make(chan struct{}),
		signals:      make(chan os.Signal, 1),
	}
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	return h
}

// Register adds a named teardown step. Steps run in registration order.
func (h *Handler) Register(name string, fn func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps = append(h.steps, step{name: name, fn: fn})
}

// Wait blocks until a termination signal arrives, then runs the teardown
func (h *Handler) Wait() {
	sig := <-h.signals
	h.logger.Info("Received signal: %v", sig)
	h.Shutdown()
}

// Shutdown runs the teardown steps once. Steps still running after the
// force timeout are abandoned.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.logger.Info("Shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), h.forceTimeout)
		defer cancel()

		finished := make(chan struct{})
		go func() {
			h.runSteps()
			close(finished)
		}()

		select {
		case <-finished:
			h.logger.Success("Shutdown complete")
		case <-ctx.Done():
			h.logger.Warning("Shutdown forced after %s", h.forceTimeout)
		}

		close(h.done)
	})
}

func (h *Handler) runSteps() {
	h.mu.Lock()
	steps := make([]step, len(h.steps))
	copy(steps, h.steps)
	h.mu.Unlock()

	for _, s := range steps {
		if err := s.fn(); err != nil {
			h.logger.Error("Shutdown step %q failed: %v", s.name, err)
		}
	}
}

// Done is closed once the teardown has finished or been abandoned
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
