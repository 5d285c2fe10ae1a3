package main

import "testing"

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv("ANONYMIZER_CONFIG", "  /etc/anonymizer.toml ")
	if got := configPathFromEnv(); got != "/etc/anonymizer.toml" {
		t.Fatalf("configPathFromEnv() = %q", got)
	}
	t.Setenv("ANONYMIZER_CONFIG", "")
	if got := configPathFromEnv(); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
}
