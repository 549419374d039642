package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shadow1runner/ColorBasedTracking/internal/capture"
	"github.com/shadow1runner/ColorBasedTracking/internal/config"
	"github.com/shadow1runner/ColorBasedTracking/internal/engine"
	"github.com/shadow1runner/ColorBasedTracking/internal/log"
	"github.com/shadow1runner/ColorBasedTracking/internal/overlay"
	"github.com/shadow1runner/ColorBasedTracking/internal/source"
	"github.com/shadow1runner/ColorBasedTracking/internal/system"
	"github.com/shadow1runner/ColorBasedTracking/internal/video"
)

var buildVersion = "dev"

func main() {
	if err := run(); err != nil {
		log.Error("colortrack failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := config.Default()

	configPtr := flag.String("config", "", "YAML config file; flags given explicitly override it")
	writeConfigPtr := flag.String("write-config", "", "Write the effective config to this file and exit")
	listModesPtr := flag.Bool("list-modes", false, "List overlay modes and exit")

	inputPtr := flag.String("input", "", "Camera index, video file, stream URL, image directory or document (default: newest video in input/)")
	outputPtr := flag.String("output", "", "Output video, PNG directory or pattern (default: output/<input>_<time>.mp4)")
	modePtr := flag.String("mode", defaults.Mode, "Overlay mode: "+strings.Join(overlay.Modes(), ", "))
	radiusPtr := flag.String("radius", "", "Color tolerance h,s,v[,a] (default 25,25,25,0)")
	sampleRadiusPtr := flag.Int("sample-radius", defaults.SampleRadius, "Calibration sample half-size; 0 samples a single pixel")
	pointPtr := flag.String("point", "", "Calibration point x,y (default: frame center)")
	startFramePtr := flag.Int("start-frame", defaults.StartFrame, "Frames shown as preview before calibration")
	minAreaPtr := flag.Float64("min-area", defaults.MinArea, "Minimal region area")
	kernelPtr := flag.Int("kernel", defaults.KernelSize, "Dilation kernel size")
	centroidPtr := flag.String("centroid", defaults.Centroid, "Centroid: box, moments")
	dpiPtr := flag.Int("dpi", defaults.DPI, "DPI for document inputs")
	fpsPtr := flag.Int("fps", defaults.FPS, "Output FPS (0 - source rate, else 30)")
	qualityPtr := flag.Int("quality", defaults.Quality, "Video quality (0 - auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	encoderPtr := flag.String("encoder", defaults.VideoEncoder, "Video encoder (default: best available H.264)")
	prefetchPtr := flag.Int("prefetch", defaults.Prefetch, "Decoded frames buffered ahead (0 - by host memory)")
	scalePtr := flag.Float64("scale", defaults.Scale, "Output scale factor")
	labelPtr := flag.Bool("label", defaults.Label, "Print mode and centroid on every frame")
	logLevelPtr := flag.String("log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	logFormatPtr := flag.String("log-format", defaults.LogFormat, "Log format: console, text, json")
	statsPtr := flag.Bool("stats", defaults.ShowStats, "Print a performance report")

	flag.Parse()

	if *listModesPtr {
		for _, m := range overlay.Modes() {
			fmt.Println(m)
		}
		return nil
	}

	cfg := defaults
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *inputPtr
		case "output":
			cfg.Output = *outputPtr
		case "mode":
			cfg.Mode = *modePtr
		case "radius":
			r, err := parseRadius(*radiusPtr)
			if err != nil {
				flagErr = err
				return
			}
			cfg.Radius = r
		case "sample-radius":
			cfg.SampleRadius = *sampleRadiusPtr
		case "point":
			pt, err := parsePoint(*pointPtr)
			if err != nil {
				flagErr = err
				return
			}
			cfg.CalibrationPoint = &pt
		case "start-frame":
			cfg.StartFrame = *startFramePtr
		case "min-area":
			cfg.MinArea = *minAreaPtr
		case "kernel":
			cfg.KernelSize = *kernelPtr
		case "centroid":
			cfg.Centroid = *centroidPtr
		case "dpi":
			cfg.DPI = *dpiPtr
		case "fps":
			cfg.FPS = *fpsPtr
		case "quality":
			cfg.Quality = *qualityPtr
		case "encoder":
			cfg.VideoEncoder = *encoderPtr
		case "prefetch":
			cfg.Prefetch = *prefetchPtr
		case "scale":
			cfg.Scale = *scalePtr
		case "label":
			cfg.Label = *labelPtr
		case "log-level":
			cfg.LogLevel = *logLevelPtr
		case "log-format":
			cfg.LogFormat = *logFormatPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		}
	})
	if flagErr != nil {
		return flagErr
	}
	cfg.BuildVersion = buildVersion

	logger := log.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.Input == "" {
		latest, err := system.FindLatest("input", ".mp4", ".avi", ".mov", ".mkv", ".webm")
		if err != nil {
			return fmt.Errorf("%w; pass -input or put a video into input/", err)
		}
		cfg.Input = latest
		logger.Info("input selected", "path", latest)
	}
	if cfg.Output == "" {
		cfg.Output = defaultOutput(cfg.Input)
	}
	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			logger.Info("hardware encoder detected", "encoder", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *writeConfigPtr != "" {
		if err := cfg.Save(*writeConfigPtr); err != nil {
			return err
		}
		logger.Info("config written", "path", *writeConfigPtr)
		return nil
	}

	src, err := openSource(cfg)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	if err := prepareOutput(cfg.Output); err != nil {
		return err
	}
	fps := cfg.OutputFPS(sourceFPS(src))
	logger.Debug("output rate", "fps", fps)
	writer := video.NewWriter(cfg.Output, video.Options{
		FPS:     fps,
		Encoder: cfg.VideoEncoder,
		Quality: cfg.Quality,
	})

	project, err := engine.NewProject(cfg, src, writer, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := project.Run(ctx); err != nil {
		return err
	}
	logger.Info("done", "output", cfg.Output)
	return nil
}

func openSource(cfg *config.Config) (source.Source, error) {
	if capture.Handles(cfg.Input) {
		c, err := capture.Open(cfg.Input)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return source.Open(cfg.Input, cfg.DPI)
}

// prepareOutput creates the directory output is written into.
func prepareOutput(output string) error {
	dir := filepath.Dir(output)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// sourceFPS is the frame rate a source reports, or 0 when it has none.
func sourceFPS(src source.Source) float64 {
	if r, ok := src.(interface{ FPS() float64 }); ok {
		return r.FPS()
	}
	return 0
}

func defaultOutput(input string) string {
	name := "camera" + strings.TrimSpace(input)
	if _, err := strconv.Atoi(strings.TrimSpace(input)); err != nil {
		base := filepath.Base(strings.TrimSuffix(input, "/"))
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	name = strings.ReplaceAll(name, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", name, timestamp))
}

func parseRadius(s string) ([4]float64, error) {
	var r [4]float64
	parts := strings.Split(s, ",")
	if len(parts) < 3 || len(parts) > 4 {
		return r, fmt.Errorf("radius %q: expected h,s,v or h,s,v,a", s)
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return r, fmt.Errorf("radius %q: %w", s, err)
		}
		r[i] = v
	}
	return r, nil
}

func parsePoint(s string) (config.Point, error) {
	var pt config.Point
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return pt, fmt.Errorf("point %q: expected x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return pt, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return pt, fmt.Errorf("point %q: %w", s, err)
	}
	return config.Point{X: x, Y: y}, nil
}
