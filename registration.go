package offlinegate

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Status describes the worker as reported on the control surface.
type Status struct {
	State      string `json:"state"`
	Version    string `json:"version"`
	InstanceID string `json:"instance_id"`
}

// Register installs and activates the worker. It is idempotent and
// fire-and-forget: if the worker is parked the lifecycle starts in the
// background, otherwise the call does nothing. Failures are logged, not
// returned; the host application is expected to keep working against the
// live origin regardless.
func (g *Gateway) Register() {
	g.mu.Lock()
	if g.state != StateParked {
		g.mu.Unlock()
		g.log.Debug().Msg("Register: worker already registered")
		return
	}
	g.state = StateInstalling
	g.mu.Unlock()

	go func() {
		if err := g.runLifecycle(context.Background()); err != nil {
			g.log.Error().Err(err).Msg("Registration failed")
		}
	}()
}

// Unregister waits for an active worker instance and then parks it, so every
// subsequent request passes through to the origin untouched. Used for
// cleanup and testing, never by normal application flow.
func (g *Gateway) Unregister(ctx context.Context) error {
	if err := g.awaitActive(ctx); err != nil {
		return errors.Wrap(err, "waiting for active worker")
	}
	g.setState(StateParked)
	g.log.Info().Msg("Worker unregistered")
	return nil
}

// ControlHandler returns the gateway's HTTP control surface. The host
// application posts to it once after startup to register the worker; the
// gateway itself never calls it.
func (g *Gateway) ControlHandler() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", g.handleRegister)
	r.Post("/unregister", g.handleUnregister)
	r.Get("/status", g.handleStatus)
	return r
}

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	g.Register()
	w.WriteHeader(http.StatusAccepted)
}

func (g *Gateway) handleUnregister(w http.ResponseWriter, r *http.Request) {
	if err := g.Unregister(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Status{
		State:      g.State().String(),
		Version:    g.version,
		InstanceID: g.instanceID,
	})
}

// Registrar is a client for the gateway's control surface, for use by host
// applications and the CLI.
type Registrar struct {
	controlURL string
	client     *http.Client
	log        zerolog.Logger
}

// NewRegistrar creates a registrar talking to the given control URL,
// e.g. "http://localhost:8080/.offline-gate".
func NewRegistrar(controlURL string, logger *zerolog.Logger) *Registrar {
	var log zerolog.Logger
	if logger == nil {
		log = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		log = *logger
	}
	return &Registrar{
		controlURL: controlURL,
		client:     http.DefaultClient,
		log:        log,
	}
}

// Register asks the gateway to install and activate the worker.
// Registration is fire-and-forget on the gateway side: a 202 means the
// lifecycle started (or was already running), not that it succeeded.
func (r *Registrar) Register(ctx context.Context) error {
	res, err := r.post(ctx, "/register")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		return errors.Errorf("register: unexpected status %d", res.StatusCode)
	}
	r.log.Debug().Msg("Worker registration requested")
	return nil
}

// Unregister removes the worker. The call blocks until an active worker
// instance has been parked or the context is done.
func (r *Registrar) Unregister(ctx context.Context) error {
	res, err := r.post(ctx, "/unregister")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return errors.Errorf("unregister: unexpected status %d", res.StatusCode)
	}
	r.log.Debug().Msg("Worker unregistered")
	return nil
}

// Status fetches the worker status from the control surface.
func (r *Registrar) Status(ctx context.Context) (Status, error) {
	var status Status
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.controlURL+"/status", nil)
	if err != nil {
		return status, err
	}
	res, err := r.client.Do(req)
	if err != nil {
		return status, errors.Wrap(err, "fetch status")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return status, errors.Errorf("status: unexpected status %d", res.StatusCode)
	}
	err = json.NewDecoder(res.Body).Decode(&status)
	return status, err
}

func (r *Registrar) post(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.controlURL+path, nil)
	if err != nil {
		return nil, err
	}
	res, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "post %s", path)
	}
	return res, nil
}
