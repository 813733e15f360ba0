package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/pivotseg/pkg/adapters/ffmpegcodec"
	"github.com/user/pivotseg/pkg/adapters/filesink"
	"github.com/user/pivotseg/pkg/adapters/frameio"
	"github.com/user/pivotseg/pkg/adapters/ggrenderer"
	"github.com/user/pivotseg/pkg/adapters/inpaintrunner"
	"github.com/user/pivotseg/pkg/adapters/logger"
	"github.com/user/pivotseg/pkg/adapters/mp4probe"
	"github.com/user/pivotseg/pkg/adapters/nullsink"
	"github.com/user/pivotseg/pkg/adapters/osfilesystem"
	"github.com/user/pivotseg/pkg/adapters/pyrunner"
	"github.com/user/pivotseg/pkg/adapters/sam2runner"
	"github.com/user/pivotseg/pkg/config"
	"github.com/user/pivotseg/pkg/metrics"
	"github.com/user/pivotseg/pkg/orchestrator"
	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
	"github.com/user/pivotseg/pkg/summarizer"
)

const frameJPEGQuality = 95

// session bundles what one CLI invocation needs.
type session struct {
	cfg     config.Config
	log     ports.Logger
	fs      *osfilesystem.FileSystem
	prober  *mp4probe.Prober
	metrics *metrics.Metrics
	orch    *orchestrator.Orchestrator
	outputs []summarizer.OutputInfo
}

func segmentAction(c *cli.Context) error {
	modes, err := parseModes(c.StringSlice("render"))
	if err != nil {
		return err
	}
	p, err := parsePrompt(c.StringSlice("point"), c.IntSlice("label"), c.String("box"))
	if err != nil {
		return err
	}

	s, err := newSession(c, false)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := signalContext(s.log)
	defer cancel()

	res, err := s.segment(ctx, p, c.Int("pivot"))
	if err != nil {
		return err
	}
	for _, mode := range modes {
		out, err := s.orch.RenderVideo(ctx, res, mode)
		if err != nil {
			return err
		}
		s.addOutput(mode.String(), out)
	}
	return s.report(res)
}

func removeAction(c *cli.Context) error {
	p, err := parsePrompt(c.StringSlice("point"), c.IntSlice("label"), c.String("box"))
	if err != nil {
		return err
	}

	s, err := newSession(c, true)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := signalContext(s.log)
	defer cancel()

	res, err := s.segment(ctx, p, c.Int("pivot"))
	if err != nil {
		return err
	}
	out, err := s.orch.RemoveObject(ctx, res)
	if err != nil {
		return err
	}
	s.addOutput("removed", out)
	return s.report(res)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, finishing the current step...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// loadConfig layers defaults, the config file, .env, PIVOTSEG_* variables
// and finally command-line flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := config.LoadEnvFile(); err != nil {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	cfg.ApplyEnv()

	if c.IsSet("input") {
		cfg.Input = c.String("input")
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("work-dir") {
		cfg.WorkDir = c.String("work-dir")
	}
	if c.IsSet("object-id") {
		cfg.ObjectID = c.Int("object-id")
	}
	if c.IsSet("python") {
		cfg.Segmenter.Python = c.String("python")
		cfg.Remover.Python = c.String("python")
	}
	if c.IsSet("checkpoint") {
		cfg.Segmenter.Checkpoint = c.String("checkpoint")
	}
	if c.IsSet("model-config") {
		cfg.Segmenter.ModelConfig = c.String("model-config")
	}
	if c.IsSet("device") {
		cfg.Segmenter.Device = c.String("device")
	}
	if c.IsSet("concurrent") {
		cfg.ConcurrentSessions = c.Bool("concurrent")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("framerate") {
		cfg.Framerate = c.Float64("framerate")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("summary") {
		cfg.SummaryPath = c.String("summary")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("script") {
		cfg.Remover.Script = c.String("script")
	}
	if c.IsSet("inpaint-model") {
		cfg.Remover.Model = c.String("inpaint-model")
	}
	if c.IsSet("inpaint-checkpoint") {
		cfg.Remover.Checkpoint = c.String("inpaint-checkpoint")
	}

	if cfg.Input == "" {
		return cfg, fmt.Errorf("an input video is required (--input)")
	}
	return cfg, nil
}

func newSession(c *cli.Context, withRemover bool) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	ocfg, err := cfg.ToOrchestratorConfig()
	if err != nil {
		return nil, err
	}

	// Create adapters
	fs := osfilesystem.New()
	images := frameio.New(frameJPEGQuality)
	prober := mp4probe.New()
	m := metrics.New()

	ffmpegPath, err := ffmpegcodec.FindFFmpeg(cfg.FFmpegPath)
	if err != nil {
		return nil, err
	}
	codec := ffmpegcodec.New(ffmpegPath, log)

	segPython, err := pyrunner.New(cfg.Segmenter.Python, log.WithComponent("python"))
	if err != nil {
		return nil, err
	}
	segmenter := sam2runner.New(segPython, cfg.SAM2Config(), log)

	var remover ports.ObjectRemover
	if withRemover {
		rmPython, err := pyrunner.New(cfg.Remover.Python, log.WithComponent("python"))
		if err != nil {
			return nil, err
		}
		remover = inpaintrunner.New(rmPython, cfg.InpaintConfig(), log)
	}

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, images)
	} else {
		sink = nullsink.New()
	}

	orch := orchestrator.New(orchestrator.Dependencies{
		FileSystem: fs,
		Codec:      codec,
		Prober:     prober,
		Segmenter:  segmenter,
		Remover:    remover,
		Images:     images,
		Renderer:   ggrenderer.New(ggrenderer.DefaultMaxWidth),
		Sink:       sink,
		Logger:     log,
		Metrics:    m,
	}, ocfg)

	return &session{
		cfg:     cfg,
		log:     log,
		fs:      fs,
		prober:  prober,
		metrics: m,
		orch:    orch,
	}, nil
}

func (s *session) segment(ctx context.Context, p prompt, pivot int) (*orchestrator.Result, error) {
	if p.box != nil {
		return s.orch.SegmentWithBox(ctx, *p.box, pivot)
	}
	return s.orch.SegmentWithPoints(ctx, p.points, p.labels, pivot)
}

func (s *session) addOutput(kind, path string) {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	s.outputs = append(s.outputs, summarizer.OutputInfo{Kind: kind, Path: path, FileSize: size})
}

// report writes the optional summary and metrics files.
func (s *session) report(res *orchestrator.Result) error {
	if s.cfg.SummaryPath != "" {
		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), s.fs)
		if err := w.Write(s.cfg.SummaryPath, s.buildSummary(res)); err != nil {
			return err
		}
		s.log.Info("Summary written to %s", s.cfg.SummaryPath)
	}
	if s.cfg.MetricsFile != "" {
		if err := s.metrics.WriteToTextfile(s.cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func (s *session) buildSummary(res *orchestrator.Result) *summarizer.Summary {
	video := summarizer.VideoInfo{Path: s.cfg.Input, FrameCount: res.FrameCount}
	if info, err := s.prober.Probe(s.cfg.Input); err == nil {
		video.Width = info.Width
		video.Height = info.Height
		video.FrameRate = info.FrameRate
		video.Codec = info.Codec
	}

	pi := summarizer.PromptInfo{
		Kind:     res.Prompt,
		Pivot:    res.Pivot,
		Points:   len(res.Annotation.Points),
		ObjectID: s.cfg.ObjectID,
	}
	if res.Prompt == "box" {
		b := res.Annotation.Box
		pi.Box = strings.Join([]string{
			fmt.Sprint(b.X1), fmt.Sprint(b.Y1), fmt.Sprint(b.X2), fmt.Sprint(b.Y2),
		}, ",")
	}

	b := summarizer.NewBuilder().
		WithVideo(video).
		WithPrompt(pi).
		AddSegment(pipeline.Reverse.String(), res.Split.Reverse.Absolute).
		AddSegment(pipeline.Forward.String(), res.Split.Forward.Absolute).
		WithSettings(summarizer.Settings{
			ConcurrentSessions: s.cfg.ConcurrentSessions,
			Workers:            s.cfg.Workers,
			Device:             s.cfg.Segmenter.Device,
			Codec:              s.cfg.Codec,
			Framerate:          s.cfg.Framerate,
		})
	for _, t := range res.Timings {
		b.AddStage(t.Stage, t.Duration)
	}
	for _, out := range s.outputs {
		b.AddOutput(out.Kind, out.Path, out.FileSize)
	}
	return b.Build()
}

func (s *session) close() {
	if err := s.orch.Cleanup(); err != nil {
		s.log.Warn("Failed to remove temporary files: %s", err)
	}
}
