package offlinegate

import (
	"context"
	"net/http"

	cachekey "github.com/offline-gate/offline-gate/pkg/cache-key"
	tee "github.com/offline-gate/offline-gate/pkg/response-writer-tee"

	"github.com/pkg/errors"
)

// Phase is a worker lifecycle phase.
type Phase string

const (
	PhaseInstall  Phase = "install"
	PhaseActivate Phase = "activate"
)

// phaseOrder is the fixed sequence lifecycle phases run in. The dispatcher
// awaits each handler before permitting the next phase.
var phaseOrder = []Phase{PhaseInstall, PhaseActivate}

// PhaseFunc handles a single lifecycle phase.
type PhaseFunc func(ctx context.Context) error

// WorkerState tracks where the worker is in its lifecycle.
type WorkerState int

const (
	// StateParked: not registered, every request passes through untouched.
	StateParked WorkerState = iota
	StateInstalling
	StateInstalled
	StateActivating
	// StateActive: strategies intercept classified requests.
	StateActive
)

func (s WorkerState) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	}
	return "parked"
}

func (g *Gateway) dispatchTable() map[Phase]PhaseFunc {
	return map[Phase]PhaseFunc{
		PhaseInstall:  g.install,
		PhaseActivate: g.activate,
	}
}

// runLifecycle drives the worker through its phases in order.
// A phase failure aborts the run and parks the worker; in particular an
// install failure means the worker never activates and the previously
// current partition keeps serving.
func (g *Gateway) runLifecycle(ctx context.Context) error {
	table := g.dispatchTable()
	for _, phase := range phaseOrder {
		handler, ok := table[phase]
		if !ok {
			return errors.Errorf("no handler for phase %s", phase)
		}
		if err := handler(ctx); err != nil {
			g.setState(StateParked)
			return errors.Wrapf(err, "%s failed", phase)
		}
	}
	return nil
}

// install populates the partition named by the current version tag with one
// entry per manifest path, fetched from the origin. All-or-nothing: the
// first failed fetch fails the whole install.
func (g *Gateway) install(ctx context.Context) error {
	g.setState(StateInstalling)
	if err := g.manifest.Validate(); err != nil {
		return err
	}
	for _, path := range g.manifest {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return errors.Wrapf(err, "precache %s", path)
		}
		rwtee := tee.NewResponseSaver(nil)
		g.reverseproxy.ServeHTTP(rwtee, req)
		if rwtee.Failed() {
			return errors.Errorf("precache %s: origin unreachable", path)
		}
		if rwtee.StatusCode() != http.StatusOK {
			return errors.Errorf("precache %s: origin returned status %d", path, rwtee.StatusCode())
		}
		if err := g.cache.Put(g.version, cachekey.Key(req), rwtee.Response()); err != nil {
			return errors.Wrapf(err, "precache %s", path)
		}
		g.log.Trace().Str("path", path).Msg("Precached manifest entry")
	}
	g.setState(StateInstalled)
	g.log.Info().Int("entries", len(g.manifest)).Msg("Install complete")
	return nil
}

// activate deletes every partition whose name differs from the current
// version tag. This is the sole eviction mechanism: there is no per-entry
// expiry, and rotating the version tag garbage-collects the old partition.
func (g *Gateway) activate(ctx context.Context) error {
	g.setState(StateActivating)
	names, err := g.cache.Partitions()
	if err != nil {
		return errors.Wrap(err, "enumerate partitions")
	}
	for _, name := range names {
		if name == g.version {
			continue
		}
		if err := g.cache.DeletePartition(name); err != nil {
			return errors.Wrapf(err, "evict partition %s", name)
		}
		g.log.Debug().Str("partition", name).Msg("Evicted stale partition")
	}
	g.setState(StateActive)
	g.log.Info().Msg("Worker active")
	return nil
}

func (g *Gateway) setState(s WorkerState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	prev := g.state
	g.state = s
	if s == StateActive && prev != StateActive {
		close(g.activated)
	}
	if s == StateParked && prev == StateActive {
		g.activated = make(chan struct{})
	}
	g.log.Trace().Stringer("from", prev).Stringer("to", s).Msg("Worker state change")
}

// State returns the worker's current lifecycle state.
func (g *Gateway) State() WorkerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gateway) active() bool {
	return g.State() == StateActive
}

// awaitActive blocks until the worker reaches the active state or the
// context is done.
func (g *Gateway) awaitActive(ctx context.Context) error {
	g.mu.Lock()
	ch := g.activated
	g.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
