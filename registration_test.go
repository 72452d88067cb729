package offlinegate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/offline-gate/offline-gate/cache"

	"github.com/rs/zerolog"
)

func TestRegisterEndpointAcceptsAndActivates(t *testing.T) {
	origin := newOrigin(map[string]http.HandlerFunc{"/": serveBody("shell")})
	defer origin.Close()
	g := newTestGateway(t, origin, Manifest{"/"}, cache.NewMemCache())
	control := httptest.NewServer(g.ControlHandler())
	defer control.Close()

	for i := 0; i < 2; i++ {
		res, err := http.Post(control.URL+"/register", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusAccepted {
			t.Fatalf("Register returned %d", res.StatusCode)
		}
	}

	waitForState(t, g, StateActive)
}

func TestStatusEndpoint(t *testing.T) {
	origin := newOrigin(map[string]http.HandlerFunc{"/": serveBody("shell")})
	defer origin.Close()
	g := newTestGateway(t, origin, Manifest{"/"}, cache.NewMemCache())
	control := httptest.NewServer(g.ControlHandler())
	defer control.Close()

	res, err := http.Get(control.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var status Status
	if err := json.NewDecoder(res.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.State != "parked" {
		t.Fatalf("State is %s", status.State)
	}
	if status.Version != g.Version() {
		t.Fatalf("Version is %s", status.Version)
	}
	if status.InstanceID == "" {
		t.Fatal("No instance id")
	}
}

func TestRegistrarRoundTrip(t *testing.T) {
	origin := newOrigin(map[string]http.HandlerFunc{"/": serveBody("shell")})
	defer origin.Close()
	g := newTestGateway(t, origin, Manifest{"/"}, cache.NewMemCache())
	control := httptest.NewServer(g.ControlHandler())
	defer control.Close()

	logger := zerolog.Nop()
	registrar := NewRegistrar(control.URL, &logger)

	if err := registrar.Register(context.Background()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		status, err := registrar.Status(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if status.State == "active" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Worker never activated, state is %s", status.State)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := registrar.Unregister(context.Background()); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	status, err := registrar.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.State != "parked" {
		t.Fatalf("State after unregister is %s", status.State)
	}
}
