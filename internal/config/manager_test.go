package config

import (
	"testing"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestLoadMissingConfigReturnsEmpty(t *testing.T) {
	m := testManager(t)

	if m.Exists() {
		t.Error("config should not exist yet")
	}
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLMProvider != "" || cfg.AttemptLimit != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	m := testManager(t)

	cfg := &Config{
		LLMProvider:          "anthropic",
		APIKey:               "sk-test",
		Model:                "claude-3-5-sonnet-20241022",
		AttemptLimit:         5,
		SufficiencyThreshold: 8.5,
		NeutralScore:         4.0,
		CallTimeoutSeconds:   90,
		CorpusRoot:           "/data/docs",
	}
	if err := m.Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !m.Exists() {
		t.Error("config should exist after save")
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}
