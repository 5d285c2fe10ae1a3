package api

import (
	"context"
	"errors"
	"maps"
	"strings"
	"testing"

	"anonymizer/internal/anonymize"
	"anonymizer/internal/services"
)

type memoryStore struct {
	forward map[string]string
	saves   int
	loadErr error
	saveErr error
}

func (m *memoryStore) Load(context.Context) (anonymize.Mapping, error) {
	if m.loadErr != nil {
		return anonymize.Mapping{}, m.loadErr
	}
	return anonymize.NewMapping(m.forward), nil
}

func (m *memoryStore) Save(_ context.Context, forward map[string]string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.forward = maps.Clone(forward)
	return nil
}

func TestAnonymizerServiceEncodeDecodeRoundTrip(t *testing.T) {
	store := &memoryStore{}
	var observed EncodeStats
	svc := NewAnonymizerService(store, WithEncodeObserver(func(s EncodeStats) { observed = s }))
	ctx := context.Background()

	input := "Meeting with [[Alice]] in [[Berlin]]; Alice confirmed."
	enc, err := svc.Encode(ctx, TextIn{Text: input})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(enc.Text, "Alice") || strings.Contains(enc.Text, "Berlin") {
		t.Fatalf("originals leaked into %q", enc.Text)
	}
	if len(enc.Mapping) != 2 || store.saves != 1 {
		t.Fatalf("expected two persisted entries, got mapping=%v saves=%d", enc.Mapping, store.saves)
	}
	if observed.Created != 2 || observed.Total != 2 {
		t.Fatalf("unexpected encode stats %+v", observed)
	}

	dec, err := svc.Decode(ctx, TextIn{Text: enc.Text, Mapping: enc.Mapping})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := anonymize.StripMarkers(input); dec.Text != want {
		t.Fatalf("round trip = %q, want %q", dec.Text, want)
	}
	if store.saves != 1 {
		t.Fatal("decode must not persist")
	}
}

func TestAnonymizerServiceClientMappingDoesNotOverride(t *testing.T) {
	store := &memoryStore{forward: map[string]string{"Alice": "AAAA1111"}}
	svc := NewAnonymizerService(store)

	out, err := svc.Encode(context.Background(), TextIn{
		Text:    "Alice and Bob",
		Mapping: map[string]string{"Alice": "CLIENT01", "Bob": "BBBB2222"},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if out.Text != "AAAA1111 and BBBB2222" {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if store.forward["Bob"] != "BBBB2222" || store.forward["Alice"] != "AAAA1111" {
		t.Fatalf("unexpected persisted mapping %v", store.forward)
	}
}

func TestAnonymizerServiceDecodeUsesClientMappingOnly(t *testing.T) {
	store := &memoryStore{}
	svc := NewAnonymizerService(store)

	out, err := svc.Decode(context.Background(), TextIn{
		Text:    "Hi XYZ12345",
		Mapping: map[string]string{"Carol": "XYZ12345"},
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Text != "Hi Carol" {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if out.Mapping["Carol"] != "XYZ12345" {
		t.Fatalf("expected merged mapping in response, got %v", out.Mapping)
	}
	if store.saves != 0 || len(store.forward) != 0 {
		t.Fatal("decode must not persist the client mapping")
	}
}

func TestAnonymizerServiceStorageErrors(t *testing.T) {
	boom := errors.New("disk gone")
	svc := NewAnonymizerService(&memoryStore{loadErr: boom})
	if _, err := svc.Encode(context.Background(), TextIn{Text: "x"}); !errors.Is(err, services.ErrStorage) || !errors.Is(err, boom) {
		t.Fatalf("expected storage error on load, got %v", err)
	}
	if _, err := svc.Decode(context.Background(), TextIn{Text: "x"}); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error on decode load, got %v", err)
	}

	svc = NewAnonymizerService(&memoryStore{saveErr: boom})
	if _, err := svc.Encode(context.Background(), TextIn{Text: "[[x]]"}); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error on save, got %v", err)
	}
}

func TestAnonymizerServiceHealth(t *testing.T) {
	if NewAnonymizerService(nil) != nil {
		t.Fatal("expected nil service without store")
	}
	svc := NewAnonymizerService(&memoryStore{})
	if !svc.Health(context.Background()).OK {
		t.Fatal("expected healthy service")
	}
}
