package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/pivotseg/pkg/ports"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.FrameQuality != 2 {
		t.Errorf("expected frame quality 2, got %d", cfg.FrameQuality)
	}
	if cfg.FramePattern != ports.DefaultFramePattern {
		t.Errorf("expected pattern %s, got %s", ports.DefaultFramePattern, cfg.FramePattern)
	}
	if cfg.Framerate != 30 {
		t.Errorf("expected framerate 30, got %v", cfg.Framerate)
	}
	if cfg.Codec != "libx264" || cfg.PixelFormat != "yuv420p" {
		t.Errorf("unexpected encoding defaults %s/%s", cfg.Codec, cfg.PixelFormat)
	}
	if cfg.ObjectID != 1 {
		t.Errorf("expected object id 1, got %d", cfg.ObjectID)
	}
	if cfg.ConcurrentSessions {
		t.Error("expected sequential sessions by default")
	}
	if len(cfg.Palette) != 2 {
		t.Errorf("expected 2 palette entries, got %d", len(cfg.Palette))
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pivotseg.yaml")
	content := `
input: clip.mp4
framerate: 24
concurrent_sessions: true
palette: ["#ff0000"]
segmenter:
  checkpoint: /models/sam2.pt
  device: cuda
  propagate_timeout: 10m
remover:
  script: /opt/e2fgvi/test.py
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Input != "clip.mp4" {
		t.Errorf("expected input clip.mp4, got %s", cfg.Input)
	}
	if cfg.Framerate != 24 {
		t.Errorf("expected framerate 24, got %v", cfg.Framerate)
	}
	if !cfg.ConcurrentSessions {
		t.Error("expected concurrent sessions")
	}
	if cfg.Segmenter.Device != "cuda" || cfg.Segmenter.Checkpoint != "/models/sam2.pt" {
		t.Errorf("unexpected segmenter config %+v", cfg.Segmenter)
	}
	if cfg.Segmenter.PropagateTimeout != 10*time.Minute {
		t.Errorf("expected 10m propagate timeout, got %v", cfg.Segmenter.PropagateTimeout)
	}
	// Unset fields keep their defaults.
	if cfg.Segmenter.Module != "pivotseg_sam2" {
		t.Errorf("expected default module, got %s", cfg.Segmenter.Module)
	}
	if cfg.Codec != "libx264" {
		t.Errorf("expected default codec, got %s", cfg.Codec)
	}
	if cfg.Remover.Model != "e2fgvi" {
		t.Errorf("expected default remover model, got %s", cfg.Remover.Model)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvFFmpegPath, "/opt/ffmpeg")
	t.Setenv(EnvPython, "/usr/bin/python3.11")
	t.Setenv(EnvSAM2Checkpoint, "/models/large.pt")
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvLogLevel, "")

	cfg := Defaults()
	cfg.ApplyEnv()

	if cfg.FFmpegPath != "/opt/ffmpeg" {
		t.Errorf("expected ffmpeg path override, got %s", cfg.FFmpegPath)
	}
	if cfg.Segmenter.Python != "/usr/bin/python3.11" || cfg.Remover.Python != "/usr/bin/python3.11" {
		t.Error("expected python override for both helpers")
	}
	if cfg.Segmenter.Checkpoint != "/models/large.pt" {
		t.Errorf("expected checkpoint override, got %s", cfg.Segmenter.Checkpoint)
	}
	if cfg.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Workers)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("empty variable should keep default, got %s", cfg.LogLevel)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PIVOTSEG_SAM2_DEVICE=mps\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSAM2Device, "")
	os.Unsetenv(EnvSAM2Device)

	if err := LoadEnvFile(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}

	cfg := Defaults()
	cfg.ApplyEnv()
	if cfg.Segmenter.Device != "mps" {
		t.Errorf("expected device mps, got %s", cfg.Segmenter.Device)
	}
}

func TestToOrchestratorConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Input = "/videos/clip.mp4"
	cfg.StartNumber = 1
	cfg.ObjectID = 2

	oc, err := cfg.ToOrchestratorConfig()
	if err != nil {
		t.Fatalf("ToOrchestratorConfig: %v", err)
	}
	if oc.InputPath != cfg.Input {
		t.Errorf("expected input %s, got %s", cfg.Input, oc.InputPath)
	}
	if oc.Extract.Quality != 2 || oc.Extract.StartNumber != 1 {
		t.Errorf("unexpected extract options %+v", oc.Extract)
	}
	if oc.Assemble.Framerate != 30 || oc.Assemble.Codec != "libx264" {
		t.Errorf("unexpected assemble options %+v", oc.Assemble)
	}
	if oc.ObjectID != 2 {
		t.Errorf("expected object id 2, got %d", oc.ObjectID)
	}
	if len(oc.Palette) != 2 || oc.Palette[0].R != 0xff {
		t.Errorf("unexpected palette %v", oc.Palette)
	}
}

func TestToOrchestratorConfig_BadPalette(t *testing.T) {
	cfg := Defaults()
	cfg.Palette = []string{"not-a-color"}
	if _, err := cfg.ToOrchestratorConfig(); err == nil {
		t.Error("expected error for invalid palette")
	}
}

func TestHelperConfigs(t *testing.T) {
	cfg := Defaults()
	cfg.Segmenter.Checkpoint = "/models/sam2.pt"
	cfg.Remover.Script = "/opt/test.py"

	sc := cfg.SAM2Config()
	if sc.Module != "pivotseg_sam2" || sc.Checkpoint != "/models/sam2.pt" || sc.Device != "cpu" {
		t.Errorf("unexpected sam2 config %+v", sc)
	}
	ic := cfg.InpaintConfig()
	if ic.Script != "/opt/test.py" || ic.Model != "e2fgvi" {
		t.Errorf("unexpected inpaint config %+v", ic)
	}
}
