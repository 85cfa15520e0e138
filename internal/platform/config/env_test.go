package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int    `env:"ELEPHANT_BOOTSTRAP_TEST_PORT" envDefault:"123"`
	Dir  string `env:"ELEPHANT_BOOTSTRAP_TEST_DIR"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("ELEPHANT_BOOTSTRAP_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvKeepsPresetValueWhenUnset(t *testing.T) {
	cfg := envTestConfig{Dir: "preset"}
	if err := ParseEnvFrom(&cfg, map[string]string{}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Dir != "preset" {
		t.Fatalf("expected preset dir to survive, got %q", cfg.Dir)
	}
}

func TestParseEnvFromUsesGivenEnvironment(t *testing.T) {
	t.Setenv("ELEPHANT_BOOTSTRAP_TEST_PORT", "999")

	var cfg envTestConfig
	if err := ParseEnvFrom(&cfg, map[string]string{"ELEPHANT_BOOTSTRAP_TEST_PORT": "456"}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 456 {
		t.Fatalf("expected port from explicit environment, got %d", cfg.Port)
	}
}
