package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoadModelEnvDefaults(t *testing.T) {
	// t.Setenv restores the original values after the test.
	for _, key := range []string{"FARKLE_MODEL", "FARKLE_MODEL_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	m, err := LoadModelEnv()
	if err != nil {
		t.Fatalf("load model env: %v", err)
	}
	if m.Model != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %q", m.Model)
	}
	if m.Timeout != 60*time.Second {
		t.Fatalf("expected default timeout, got %v", m.Timeout)
	}
}

func TestLoadModelEnvValues(t *testing.T) {
	t.Setenv("FARKLE_MODEL_API_KEY", "sk-test")
	t.Setenv("FARKLE_MODEL_BASE_URL", "http://localhost:11434/v1/")
	t.Setenv("FARKLE_MODEL", "llama3")

	m, err := LoadModelEnv()
	if err != nil {
		t.Fatalf("load model env: %v", err)
	}
	if m.APIKey != "sk-test" || m.BaseURL != "http://localhost:11434/v1/" || m.Model != "llama3" {
		t.Fatalf("unexpected env: %+v", m)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("FARKLE_MODEL_TIMEOUT", "whenever")

	_, err := LoadModelEnv()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
