package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Hook is a named step run when the platform starts. Stop, when set, undoes
// Start on shutdown or when a later hook fails.
type Hook struct {
	Name  string
	Start func(context.Context) error
	Stop  func(context.Context) error
}

// resource is something opened during setup that must be closed exactly
// once.
type resource struct {
	name   string
	closer io.Closer
}

// Lifecycle runs the platform's start hooks in order and undoes them in
// reverse. It also owns the resources opened while wiring the platform and
// closes them, newest first, on Close.
type Lifecycle struct {
	mu sync.Mutex

	hooks     []Hook
	resources []resource

	// running counts the hooks whose Start succeeded.
	running int
	started bool
	closed  bool
}

// NewLifecycle creates an empty lifecycle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// Append adds h after the hooks already registered.
func (l *Lifecycle) Append(h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, h)
}

// Track registers c to be closed by Close. A nil closer is ignored.
func (l *Lifecycle) Track(name string, c io.Closer) {
	if c == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resources = append(l.resources, resource{name: name, closer: c})
}

// Start runs every hook in order. When one fails, the hooks already started
// are stopped in reverse order and the error is returned.
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.closed:
		return errors.New("lifecycle closed")
	case l.started:
		return errors.New("lifecycle already started")
	}

	for _, h := range l.hooks {
		if h.Start != nil {
			if err := h.Start(ctx); err != nil {
				if stopErr := l.stopRunning(ctx); stopErr != nil {
					slog.Warn("lifecycle rollback", "error", stopErr)
				}
				return fmt.Errorf("starting %s: %w", h.Name, err)
			}
		}
		l.running++
	}

	l.started = true
	return nil
}

// Stop undoes the started hooks in reverse order. Stopping a lifecycle that
// is not running is a no-op.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		return nil
	}
	l.started = false
	return l.stopRunning(ctx)
}

// stopRunning stops hooks [0, running) newest first. The caller holds mu.
func (l *Lifecycle) stopRunning(ctx context.Context) error {
	var errs []error
	for ; l.running > 0; l.running-- {
		h := l.hooks[l.running-1]
		if h.Stop == nil {
			continue
		}
		if err := h.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping %s: %w", h.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Close stops the hooks if needed, then closes every tracked resource
// newest first. Later calls do nothing.
func (l *Lifecycle) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	if l.started {
		l.started = false
		if err := l.stopRunning(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(l.resources) - 1; i >= 0; i-- {
		r := l.resources[i]
		if err := r.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", r.name, err))
		}
	}
	l.resources = nil

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}
	return nil
}

// IsStarted reports whether Start succeeded and Stop has not run since.
func (l *Lifecycle) IsStarted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}
