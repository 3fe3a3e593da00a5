package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Port)
	}
	if cfg.EmbeddingDim != 512 {
		t.Errorf("expected 512-dim embeddings, got %d", cfg.EmbeddingDim)
	}
	if cfg.FaceMatchThreshold != 0.40 {
		t.Errorf("expected face threshold 0.40, got %v", cfg.FaceMatchThreshold)
	}
	if cfg.PersonMatchThreshold != 0.80 {
		t.Errorf("expected person threshold 0.80, got %v", cfg.PersonMatchThreshold)
	}
	if cfg.VoteWindow != 10 {
		t.Errorf("expected vote window 10, got %d", cfg.VoteWindow)
	}
	if cfg.TrackerMaxAge != 20 {
		t.Errorf("expected tracker max age 20, got %d", cfg.TrackerMaxAge)
	}
	if cfg.FaceCropPad != 20 {
		t.Errorf("expected face crop pad 20, got %d", cfg.FaceCropPad)
	}
	if cfg.EchoBackEnabled {
		t.Error("gallery echo-back must be off by default")
	}
	if cfg.AlertsSubject != "copcam.alerts" {
		t.Errorf("unexpected alerts subject %q", cfg.AlertsSubject)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("VOTE_WINDOW", "5")
	t.Setenv("SIMULATION_MODE", "true")
	t.Setenv("REPLAY_SPEED", "2.5")

	cfg := Load()
	if cfg.Port != 9000 {
		t.Errorf("expected port override 9000, got %d", cfg.Port)
	}
	if cfg.VoteWindow != 5 {
		t.Errorf("expected vote window override 5, got %d", cfg.VoteWindow)
	}
	if !cfg.SimulationMode {
		t.Error("expected simulation mode enabled")
	}
	if cfg.ReplaySpeed != 2.5 {
		t.Errorf("expected replay speed 2.5, got %v", cfg.ReplaySpeed)
	}
}

func TestDerivedPaths(t *testing.T) {
	t.Setenv("SIMULATION_DATA_DIR", "data")

	cfg := Load()
	if cfg.TimelinePath() != "data/timeline.json" {
		t.Errorf("unexpected timeline path %s", cfg.TimelinePath())
	}
	if cfg.DetectionsDir() != "data/detections" {
		t.Errorf("unexpected detections dir %s", cfg.DetectionsDir())
	}
	if cfg.FacesDir() != "data/faces" {
		t.Errorf("unexpected faces dir %s", cfg.FacesDir())
	}
	if cfg.EmbeddingsDir() != "data/embeddings" {
		t.Errorf("unexpected embeddings dir %s", cfg.EmbeddingsDir())
	}
	if cfg.CriminalsPath() != "data/criminals.json" {
		t.Errorf("unexpected criminals path %s", cfg.CriminalsPath())
	}
}
