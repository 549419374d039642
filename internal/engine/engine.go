// Package engine runs the decode, track, render and write pipeline over one
// frame source.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shadow1runner/ColorBasedTracking/internal/colorspace"
	"github.com/shadow1runner/ColorBasedTracking/internal/config"
	"github.com/shadow1runner/ColorBasedTracking/internal/overlay"
	"github.com/shadow1runner/ColorBasedTracking/internal/session"
	"github.com/shadow1runner/ColorBasedTracking/internal/source"
	"github.com/shadow1runner/ColorBasedTracking/internal/system"
	"github.com/shadow1runner/ColorBasedTracking/internal/tracker"
	"github.com/shadow1runner/ColorBasedTracking/internal/video"
)

// Project wires a source, a tracking session and an output writer.
type Project struct {
	Config   *config.Config
	Source   source.Source
	Writer   video.FrameWriter
	Session  *session.Session
	Renderer *overlay.Renderer
	Logger   *slog.Logger

	mode     overlay.Mode
	schedule []config.Recalibration
}

// Report summarizes a finished run.
type Report struct {
	Frames     int
	Previewed  int
	Tracked    int
	Session    session.Stats
	PathLength int
	Decode     time.Duration
	Total      time.Duration
}

// FPS is the effective processing rate.
func (r Report) FPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

type frame struct {
	index int
	img   image.Image
}

// NewProject builds the tracker, session and renderer described by cfg.
func NewProject(cfg *config.Config, src source.Source, w video.FrameWriter, logger *slog.Logger) (*Project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	mode, err := overlay.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	centroid, err := tracker.ParseCentroidMode(cfg.Centroid)
	if err != nil {
		return nil, err
	}

	t := tracker.New(
		tracker.WithMinArea(cfg.MinArea),
		tracker.WithKernelSize(cfg.KernelSize),
		tracker.WithCentroidMode(centroid),
		tracker.WithLogger(logger),
	)
	sess := session.New(t, tracker.Calibrator{SampleRadius: cfg.SampleRadius}, tracker.Scalar(cfg.Radius), logger)

	r := overlay.NewRenderer()
	r.Scale = cfg.Scale
	r.Label = cfg.Label

	return &Project{
		Config:   cfg,
		Source:   src,
		Writer:   w,
		Session:  sess,
		Renderer: r,
		Logger:   logger.With("session", sess.ID.String()),
		mode:     mode,
		schedule: cfg.Recalibrate,
	}, nil
}

// Run processes every frame of the source. Frames are decoded ahead on one
// goroutine and tracked strictly in order on another.
func (p *Project) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	var report Report

	first, err := p.Source.Next(ctx)
	if err != nil {
		if cerr := p.Writer.Close(); cerr != nil {
			p.Logger.Warn("closing writer failed", "error", cerr)
		}
		if errors.Is(err, io.EOF) {
			return report, fmt.Errorf("source %s has no frames", p.Config.Input)
		}
		return report, err
	}

	depth := p.prefetchDepth(first.Bounds())
	p.Logger.Info("tracking started",
		"input", p.Config.Input,
		"frames", p.Source.FrameCount(),
		"size", first.Bounds().Size(),
		"mode", p.mode.String(),
		"prefetch", depth,
	)

	frames := make(chan frame, depth)
	// gctx ends with the group; the writer outlives it until Close.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(frames)
		decodeStart := time.Now()
		defer func() { report.Decode = time.Since(decodeStart) }()

		img := first
		for i := 0; ; i++ {
			select {
			case frames <- frame{index: i, img: img}:
			case <-gctx.Done():
				return gctx.Err()
			}

			var err error
			img, err = p.Source.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("decode frame %d: %w", i+1, err)
			}
		}
	})

	g.Go(func() error {
		for f := range frames {
			if err := gctx.Err(); err != nil {
				return err
			}
			tracked, err := p.processFrame(ctx, f)
			if err != nil {
				return err
			}
			report.Frames++
			if tracked {
				report.Tracked++
			} else {
				report.Previewed++
			}
		}
		return gctx.Err()
	})

	err = g.Wait()
	if cerr := p.Writer.Close(); err == nil {
		err = cerr
	}

	report.Session = p.Session.Stats()
	report.PathLength = len(p.Session.Path())
	report.Total = time.Since(start)

	p.Logger.Info("tracking finished",
		"frames", report.Frames,
		"hits", report.Session.Hits,
		"misses", report.Session.Misses,
		"written", p.Writer.Frames(),
		"fps", fmt.Sprintf("%.1f", report.FPS()),
	)
	if p.Config.ShowStats {
		p.printReport(report)
	}
	return report, err
}

// processFrame tracks and renders one frame. It reports false when the frame
// was shown as a preview because tracking had not started yet.
func (p *Project) processFrame(ctx context.Context, f frame) (bool, error) {
	if f.index < p.Config.StartFrame {
		return false, p.preview(ctx, f.img)
	}

	hsv := colorspace.FromImage(f.img)

	if pt, due := p.calibrationDue(f.index, hsv.Bounds()); due {
		if _, err := p.Session.Calibrate(hsv, pt); err != nil {
			if !errors.Is(err, tracker.ErrOutOfRange) {
				return false, err
			}
			p.Logger.Warn("calibration point outside frame, retrying on next frame",
				"frame", f.index, "point", pt, "bounds", hsv.Bounds())
		}
	}
	if !p.Session.Calibrated() {
		return false, p.preview(ctx, f.img)
	}

	res, err := p.Session.Process(hsv)
	switch {
	case errors.Is(err, tracker.ErrNoRegionFound):
		p.Logger.Debug("object not found", "frame", f.index)
	case err != nil:
		return false, fmt.Errorf("track frame %d: %w", f.index, err)
	default:
		p.Logger.Debug("object found", "frame", f.index,
			"centroid", res.Target.Centroid, "bounds", res.Target.Bounds, "area", res.Target.Area)
	}

	var hist overlay.History
	switch p.mode {
	case overlay.ModePath:
		hist.Path = p.Session.Path()
	case overlay.ModeBounds:
		if last, ok := p.Session.Last(); ok {
			hist.Last = &last
		}
	}
	out, err := p.Renderer.Render(p.mode, f.img, res, hist)
	if err != nil {
		return false, fmt.Errorf("render frame %d: %w", f.index, err)
	}
	return true, p.write(ctx, out)
}

func (p *Project) preview(ctx context.Context, img image.Image) error {
	out, err := p.Renderer.Preview(img)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	return p.write(ctx, out)
}

// calibrationDue returns the point to calibrate at before tracking frame
// index: always until the first calibration succeeds, then at every scheduled
// recalibration.
func (p *Project) calibrationDue(index int, bounds image.Rectangle) (image.Point, bool) {
	if len(p.schedule) > 0 && p.schedule[0].Frame <= index {
		r := p.schedule[0]
		p.schedule = p.schedule[1:]
		return p.calibrationPoint(r.Point, bounds), true
	}
	if !p.Session.Calibrated() {
		return p.calibrationPoint(p.Config.CalibrationPoint, bounds), true
	}
	return image.Point{}, false
}

func (p *Project) calibrationPoint(pt *config.Point, bounds image.Rectangle) image.Point {
	if pt != nil {
		return pt.Image()
	}
	return image.Pt(bounds.Min.X+bounds.Dx()/2, bounds.Min.Y+bounds.Dy()/2)
}

func (p *Project) write(ctx context.Context, img *image.RGBA) error {
	defer overlay.Release(img)
	if err := p.Writer.WriteFrame(ctx, img); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (p *Project) prefetchDepth(bounds image.Rectangle) int {
	host, err := system.DetectHost()
	if err != nil {
		p.Logger.Warn("host detection incomplete", "error", err)
	}
	return host.PrefetchDepth(bounds.Dx()*bounds.Dy()*4, p.Config.Prefetch)
}

func (p *Project) printReport(r Report) {
	fmt.Printf(
		"--- [TRACKING REPORT] ---\n"+
			"Build: %s\n"+
			"Session: %s\n"+
			"Frames: %d (preview %d, tracked %d)\n"+
			"Hits/Misses: %d/%d\n"+
			"Calibrations: %d (failed %d)\n"+
			"Decoding: %.2fs\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"-------------------------\n",
		p.Config.BuildVersion, p.Session.ID, r.Frames, r.Previewed, r.Tracked,
		r.Session.Hits, r.Session.Misses, r.Session.Calibrations, r.Session.FailedCalibrations,
		r.Decode.Seconds(), r.Total.Seconds(), r.FPS(),
	)

	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Hits: %d | Total: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.Input),
		r.Frames,
		r.Session.Hits,
		r.Total.Seconds(),
		r.FPS(),
	)
	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		p.Logger.Warn("cannot append benchmark.log", "error", err)
		return
	}
	if _, err := f.WriteString(logEntry); err != nil {
		p.Logger.Warn("cannot append benchmark.log", "error", err)
	}
	if err := f.Close(); err != nil {
		p.Logger.Warn("cannot close benchmark.log", "error", err)
	}
}
