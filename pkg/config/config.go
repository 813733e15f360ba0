// Package config provides configuration loading and management.
package config

import (
	"errors"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/user/pivotseg/pkg/adapters/inpaintrunner"
	"github.com/user/pivotseg/pkg/adapters/sam2runner"
	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/orchestrator"
	"github.com/user/pivotseg/pkg/ports"
	"github.com/user/pivotseg/pkg/stages/composite"
)

// Environment variables that override file values.
const (
	EnvFFmpegPath     = "PIVOTSEG_FFMPEG_PATH"
	EnvWorkDir        = "PIVOTSEG_WORK_DIR"
	EnvPython         = "PIVOTSEG_PYTHON"
	EnvSAM2Checkpoint = "PIVOTSEG_SAM2_CHECKPOINT"
	EnvSAM2Config     = "PIVOTSEG_SAM2_CONFIG"
	EnvSAM2Device     = "PIVOTSEG_SAM2_DEVICE"
	EnvLogLevel       = "PIVOTSEG_LOG_LEVEL"
	EnvWorkers        = "PIVOTSEG_WORKERS"
)

// Config represents the full configuration for pivotseg.
type Config struct {
	// Input/Output
	Input     string `yaml:"input"`
	OutputDir string `yaml:"output_dir"`
	WorkDir   string `yaml:"work_dir"`

	// Frames
	FrameQuality int    `yaml:"frame_quality"`
	StartNumber  int    `yaml:"start_number"`
	FramePattern string `yaml:"frame_pattern"`

	// Encoding
	Framerate   float64 `yaml:"framerate"`
	Codec       string  `yaml:"codec"`
	PixelFormat string  `yaml:"pixel_format"`
	FFmpegPath  string  `yaml:"ffmpeg_path"`

	// Segmentation
	ObjectID           int      `yaml:"object_id"`
	ConcurrentSessions bool     `yaml:"concurrent_sessions"`
	Workers            int      `yaml:"workers"`
	Palette            []string `yaml:"palette"`

	Segmenter SegmenterConfig `yaml:"segmenter"`
	Remover   RemoverConfig   `yaml:"remover"`

	// Reporting
	LogLevel    string `yaml:"log_level"`
	Debug       bool   `yaml:"debug"`
	DebugDir    string `yaml:"debug_dir"`
	MetricsFile string `yaml:"metrics_file"`
	SummaryPath string `yaml:"summary"`
}

// SegmenterConfig configures the SAM 2 helper process.
type SegmenterConfig struct {
	Python           string        `yaml:"python"`
	Module           string        `yaml:"module"`
	Checkpoint       string        `yaml:"checkpoint"`
	ModelConfig      string        `yaml:"model_config"`
	Device           string        `yaml:"device"`
	AnnotateTimeout  time.Duration `yaml:"annotate_timeout"`
	PropagateTimeout time.Duration `yaml:"propagate_timeout"`
}

// RemoverConfig configures the inpainting helper process.
type RemoverConfig struct {
	Python     string        `yaml:"python"`
	Script     string        `yaml:"script"`
	Model      string        `yaml:"model"`
	Checkpoint string        `yaml:"checkpoint"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		WorkDir: os.TempDir(),

		// Frames
		FrameQuality: 2,
		StartNumber:  0,
		FramePattern: ports.DefaultFramePattern,

		// Encoding
		Framerate:   30,
		Codec:       "libx264",
		PixelFormat: "yuv420p",

		// Segmentation
		ObjectID: 1,
		Workers:  runtime.NumCPU(),
		Palette:  []string{"#ff8000", "#0080ff"},

		Segmenter: SegmenterConfig{
			Module: "pivotseg_sam2",
			Device: "cpu",
		},
		Remover: RemoverConfig{
			Model: "e2fgvi",
		},

		// Reporting
		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadEnvFile loads variables from .env files into the process
// environment. Missing files are ignored. With no paths, ".env" is used.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides c with any PIVOTSEG_* variables that are set.
func (c *Config) ApplyEnv() {
	c.FFmpegPath = getEnv(EnvFFmpegPath, c.FFmpegPath)
	c.WorkDir = getEnv(EnvWorkDir, c.WorkDir)
	c.Segmenter.Python = getEnv(EnvPython, c.Segmenter.Python)
	c.Remover.Python = getEnv(EnvPython, c.Remover.Python)
	c.Segmenter.Checkpoint = getEnv(EnvSAM2Checkpoint, c.Segmenter.Checkpoint)
	c.Segmenter.ModelConfig = getEnv(EnvSAM2Config, c.Segmenter.ModelConfig)
	c.Segmenter.Device = getEnv(EnvSAM2Device, c.Segmenter.Device)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	c.Workers = getEnvInt(EnvWorkers, c.Workers)
}

func getEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() (orchestrator.Config, error) {
	palette, err := composite.ParsePalette(c.Palette)
	if err != nil {
		return orchestrator.Config{}, err
	}

	return orchestrator.Config{
		InputPath: c.Input,
		OutputDir: c.OutputDir,
		WorkDir:   c.WorkDir,

		Extract: ports.ExtractOptions{
			Quality:     c.FrameQuality,
			StartNumber: c.StartNumber,
			Pattern:     c.FramePattern,
		},
		Assemble: ports.AssembleOptions{
			Framerate:   c.Framerate,
			Codec:       c.Codec,
			PixelFormat: c.PixelFormat,
			StartNumber: c.StartNumber,
			Pattern:     c.FramePattern,
		},

		ObjectID:           mask.ObjectID(c.ObjectID),
		Palette:            palette,
		Workers:            c.Workers,
		ConcurrentSessions: c.ConcurrentSessions,
	}, nil
}

// SAM2Config converts the segmenter section for sam2runner.
func (c Config) SAM2Config() sam2runner.Config {
	return sam2runner.Config{
		Module:           c.Segmenter.Module,
		Checkpoint:       c.Segmenter.Checkpoint,
		ModelConfig:      c.Segmenter.ModelConfig,
		Device:           c.Segmenter.Device,
		AnnotateTimeout:  c.Segmenter.AnnotateTimeout,
		PropagateTimeout: c.Segmenter.PropagateTimeout,
	}
}

// InpaintConfig converts the remover section for inpaintrunner.
func (c Config) InpaintConfig() inpaintrunner.Config {
	return inpaintrunner.Config{
		Script:     c.Remover.Script,
		Model:      c.Remover.Model,
		Checkpoint: c.Remover.Checkpoint,
		Timeout:    c.Remover.Timeout,
	}
}
