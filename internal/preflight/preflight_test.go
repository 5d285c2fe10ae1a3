package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"anonymizer/internal/anonymize"
	"anonymizer/internal/environment"
	"anonymizer/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte minimum, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with impossible minimum")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckStorage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMappingEntries(map[string]string{"Alice": "AAAAAAAA"}))
	result := CheckStorage(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "1 entries") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

type pingingStore struct {
	pingErr error
	loads   int
}

func (s *pingingStore) Load(context.Context) (anonymize.Mapping, error) {
	s.loads++
	return anonymize.NewMapping(map[string]string{"Alice": "AAAAAAAA"}), nil
}
func (s *pingingStore) Save(context.Context, map[string]string) error { return nil }
func (s *pingingStore) Location() string { return "redis:test" }
func (s *pingingStore) Close() error { return nil }
func (s *pingingStore) Ping(context.Context) error { return s.pingErr }

func TestStorageCheckPingsNetworkStores(t *testing.T) {
	down := &pingingStore{pingErr: errors.New("connection refused")}
	result := storageCheck(context.Background(), "Mapping storage", down)
	if result.Passed || !strings.Contains(result.Detail, "ping failed") {
		t.Fatalf("expected ping failure, got %+v", result)
	}
	if down.loads != 0 {
		t.Fatal("load must not run after a failed ping")
	}

	up := &pingingStore{}
	result = storageCheck(context.Background(), "Mapping storage", up)
	if !result.Passed || result.Detail != "redis:test (1 entries)" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckAPI_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if result := CheckAPI(context.Background(), srv.URL, "good"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckAPI_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	result := CheckAPI(context.Background(), url, "")
	if result.Passed {
		t.Fatal("expected failure for closed server")
	}
	if !strings.Contains(result.Detail, "not reachable") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestRunningInContainer(t *testing.T) {
	dir := t.TempDir()
	dockerenv := filepath.Join(dir, ".dockerenv")
	if err := os.WriteFile(dockerenv, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result := RunningInContainer(environment.Detector{DockerEnvPath: dockerenv, CgroupPath: filepath.Join(dir, "cgroup")})
	if !result.Passed || result.Detail != "container" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunAllIncludesEveryCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := RunAll(context.Background(), cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[uint64]string{
		512:      "512 B",
		2048:     "2.0 KiB",
		64 << 20: "64.0 MiB",
		3 << 30:  "3.0 GiB",
	}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
