package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"anonymizer/internal/api"
	"anonymizer/internal/daemon"
	"anonymizer/internal/logging"
	"anonymizer/internal/services"
	"anonymizer/internal/testsupport"
)

func TestDaemonStartStopAndSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMappingEntries(map[string]string{"Alice": "AAAAAAAA"}))
	store := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	status := d.Status(ctx)
	if !status.Running || status.Address == "" {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.MappingEntries != 1 || status.MappingError != "" {
		t.Fatalf("expected one mapping entry, got %+v", status)
	}
	if !strings.HasPrefix(status.StorageLocation, "file:") {
		t.Fatalf("unexpected storage location %q", status.StorageLocation)
	}

	resp, err := http.Get("http://" + d.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var health api.Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	resp.Body.Close()
	if !health.OK {
		t.Fatal("expected ok health")
	}

	second, err := daemon.New(cfg, testsupport.MustOpenStore(t, cfg), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New second: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail on the lock")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to report stopped")
	}
	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected lock to be free after stop: %v", err)
	}
	second.Stop()
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemon.New(cfg, nil, logging.NewNop()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without store, got %v", err)
	}
	if _, err := daemon.New(nil, testsupport.MustOpenStore(t, cfg), logging.NewNop()); err == nil {
		t.Fatal("expected error without config")
	}
}
