package config

import "testing"

func TestGetChunkSizeDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetChunkSize(); got != 800 {
		t.Errorf("GetChunkSize() = %d, want 800", got)
	}
}

func TestGetChunkSizeOverride(t *testing.T) {
	cfg := &Config{ChunkSize: 1200}
	if got := cfg.GetChunkSize(); got != 1200 {
		t.Errorf("GetChunkSize() = %d, want 1200", got)
	}
}

func TestGetChunkOverlapDefault(t *testing.T) {
	cfg := &Config{ChunkOverlap: -1}
	if got := cfg.GetChunkOverlap(); got != 100 {
		t.Errorf("GetChunkOverlap() = %d, want 100", got)
	}
}

func TestGetIndexerConcurrencyDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetIndexerConcurrency(); got != 4 {
		t.Errorf("GetIndexerConcurrency() = %d, want 4", got)
	}
}

func TestGetProbeTimeoutSecondsDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetProbeTimeoutSeconds(); got != 2 {
		t.Errorf("GetProbeTimeoutSeconds() = %d, want 2", got)
	}
}

func TestValidateRequiresDbPath(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for empty DbPath")
	}

	cfg.DbPath = "./memoryd.db"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
