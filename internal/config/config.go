package config

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/shadow1runner/ColorBasedTracking/internal/overlay"
	"github.com/shadow1runner/ColorBasedTracking/internal/tracker"
)

// Point is a pixel position in frame coordinates.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (p Point) Image() image.Point {
	return image.Point{X: p.X, Y: p.Y}
}

// Recalibration samples a new reference color when the given frame is reached.
type Recalibration struct {
	Frame int `yaml:"frame"`
	// Point defaults to the frame center.
	Point *Point `yaml:"point,omitempty"`
}

// Config is the complete run configuration. Zero-valued numeric fields loaded
// from a file keep their defaults.
type Config struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Mode   string `yaml:"mode"`

	// Calibration
	Radius           [4]float64      `yaml:"radius,flow"`
	SampleRadius     int             `yaml:"sample_radius"`
	CalibrationPoint *Point          `yaml:"calibration_point,omitempty"` // frame center when unset
	StartFrame       int             `yaml:"start_frame"`                 // preview frames before tracking starts
	Recalibrate      []Recalibration `yaml:"recalibrate,omitempty"`

	// Tracking
	MinArea    float64 `yaml:"min_area"`
	KernelSize int     `yaml:"kernel_size"`
	Centroid   string  `yaml:"centroid"`

	// Input and output
	DPI          int     `yaml:"dpi"`
	FPS          int     `yaml:"fps"`
	Quality      int     `yaml:"quality"`       // 0 - auto by encoder
	VideoEncoder string  `yaml:"video_encoder"` // empty - best available
	Prefetch     int     `yaml:"prefetch"`      // 0 - sized by host memory
	Scale        float64 `yaml:"scale"`
	Label        bool    `yaml:"label"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	ShowStats bool   `yaml:"show_stats"`

	BuildVersion string `yaml:"-"`
}

// DefaultFPS is the output rate when neither the config nor the source sets one.
const DefaultFPS = 30

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Mode:       overlay.ModeCenter.String(),
		Radius:     tracker.DefaultRadius,
		MinArea:    tracker.DefaultMinArea,
		KernelSize: tracker.DefaultKernelSize,
		Centroid:   tracker.CentroidBox.String(),
		DPI:        150,
		Scale:      1,
		LogLevel:   "info",
	}
}

// OutputFPS returns the configured rate, then the source's rate rounded to
// whole frames, then DefaultFPS.
func (c *Config) OutputFPS(sourceFPS float64) int {
	switch {
	case c.FPS > 0:
		return c.FPS
	case sourceFPS >= 1:
		return int(math.Round(sourceFPS))
	default:
		return DefaultFPS
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges and normalizes the recalibration schedule.
func (c *Config) Validate() error {
	var errs []error
	if c.Input == "" {
		errs = append(errs, errors.New("input is required"))
	}
	if _, err := overlay.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := tracker.ParseCentroidMode(c.Centroid); err != nil {
		errs = append(errs, err)
	}
	for i, r := range c.Radius {
		if r < 0 {
			errs = append(errs, fmt.Errorf("radius[%d] must not be negative, got %v", i, r))
		}
	}
	if c.SampleRadius < 0 {
		errs = append(errs, fmt.Errorf("sample_radius must not be negative, got %d", c.SampleRadius))
	}
	if c.StartFrame < 0 {
		errs = append(errs, fmt.Errorf("start_frame must not be negative, got %d", c.StartFrame))
	}
	if c.MinArea < 0 {
		errs = append(errs, fmt.Errorf("min_area must not be negative, got %v", c.MinArea))
	}
	if c.KernelSize < 1 {
		errs = append(errs, fmt.Errorf("kernel_size must be at least 1, got %d", c.KernelSize))
	}
	if c.FPS < 0 {
		errs = append(errs, fmt.Errorf("fps must not be negative, got %d", c.FPS))
	}
	if c.Scale < 0 {
		errs = append(errs, fmt.Errorf("scale must not be negative, got %v", c.Scale))
	}
	for _, r := range c.Recalibrate {
		if r.Frame < c.StartFrame {
			errs = append(errs, fmt.Errorf("recalibration at frame %d precedes start_frame %d", r.Frame, c.StartFrame))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	sort.SliceStable(c.Recalibrate, func(i, j int) bool {
		return c.Recalibrate[i].Frame < c.Recalibrate[j].Frame
	})
	return nil
}
