package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"anonymizer/internal/anonymize"
	"anonymizer/internal/api"
	"anonymizer/internal/client"
	"anonymizer/internal/daemon"
	"anonymizer/internal/logging"
	"anonymizer/internal/testsupport"
)

func TestEncodePostsJSONToBasePath(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/api/encode" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var in api.TextIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if in.Text != "Hello World" {
			t.Errorf("unexpected text %q", in.Text)
		}
		_ = json.NewEncoder(w).Encode(api.TextOut{Text: "X1 X2", Mapping: map[string]string{"Hello": "X1", "World": "X2"}})
	}))
	defer srv.Close()

	c, err := client.New(srv.URL+"/api/", client.WithToken("tok"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Encode(context.Background(), api.TextIn{Text: "Hello World"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if out.Text != "X1 X2" || len(out.Mapping) != 2 {
		t.Fatalf("unexpected response %+v", out)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", calls.Load())
	}
}

func TestMissingMappingDecodesToNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"plain"}`))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Decode(context.Background(), api.TextIn{Text: "plain"})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Mapping != nil {
		t.Fatalf("expected nil mapping, got %v", out.Mapping)
	}
}

func TestFailuresWrapErrCallFailed(t *testing.T) {
	var calls atomic.Int32
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))
	}))
	defer failing.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer garbage.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	for name, base := range map[string]string{
		"status":    failing.URL,
		"decode":    garbage.URL,
		"transport": closedURL,
	} {
		t.Run(name, func(t *testing.T) {
			c, err := client.New(base)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = c.Encode(context.Background(), api.TextIn{Text: "x"})
			if !errors.Is(err, client.ErrCallFailed) {
				t.Fatalf("expected ErrCallFailed, got %v", err)
			}
		})
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retries, got %d calls", calls.Load())
	}
}

func TestHealthUsesGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := client.New(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	health, err := c.Health(context.Background())
	if err != nil || !health.OK {
		t.Fatalf("Health = %+v, %v", health, err)
	}
}

func TestNewRejectsEmptyBase(t *testing.T) {
	if _, err := client.New("  "); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

// The adapter and the real server handler agree on the wire contract.
func TestContractAgainstServerHandler(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("shared"))
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	for _, base := range []string{srv.URL, srv.URL + "/api"} {
		c, err := client.New(base, client.WithToken("shared"))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		ctx := context.Background()

		health, err := c.Health(ctx)
		if err != nil || !health.OK {
			t.Fatalf("Health via %s = %+v, %v", base, health, err)
		}

		input := "Meeting with [[Jane Doe]] at [[ACME Corp]]; Jane Doe confirmed."
		enc, err := c.Encode(ctx, api.TextIn{Text: input})
		if err != nil {
			t.Fatalf("Encode via %s: %v", base, err)
		}
		if strings.Contains(enc.Text, "Jane Doe") || strings.Contains(enc.Text, "[[") {
			t.Fatalf("encoded text leaks originals: %q", enc.Text)
		}
		dec, err := c.Decode(ctx, api.TextIn{Text: enc.Text, Mapping: enc.Mapping})
		if err != nil {
			t.Fatalf("Decode via %s: %v", base, err)
		}
		if dec.Text != anonymize.StripMarkers(input) {
			t.Fatalf("round trip via %s = %q", base, dec.Text)
		}
	}

	unauth, err := client.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := unauth.Encode(context.Background(), api.TextIn{Text: "x"}); !errors.Is(err, client.ErrCallFailed) {
		t.Fatalf("expected ErrCallFailed without token, got %v", err)
	}
}
