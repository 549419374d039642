package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Host describes the machine the pipeline runs on.
type Host struct {
	LogicalCPUs     int
	PhysicalCPUs    int
	TotalMemory     uint64
	AvailableMemory uint64
}

// DetectHost queries CPU and memory figures. Fields that cannot be read are
// left at a conservative fallback.
func DetectHost() (Host, error) {
	h := Host{LogicalCPUs: runtime.NumCPU(), PhysicalCPUs: runtime.NumCPU()}

	var errs []string
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		h.LogicalCPUs = n
	} else if err != nil {
		errs = append(errs, err.Error())
	}
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		h.PhysicalCPUs = n
	} else if err != nil {
		errs = append(errs, err.Error())
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.TotalMemory = vm.Total
		h.AvailableMemory = vm.Available
	} else {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return h, fmt.Errorf("host detection: %s", strings.Join(errs, "; "))
	}
	return h, nil
}

const (
	minPrefetch = 2
	maxPrefetch = 64
)

// PrefetchDepth picks how many decoded frames may wait between the decoder
// and the tracker. requested > 0 wins; otherwise the depth is sized to an
// eighth of the available memory, capped by twice the logical CPU count.
func (h Host) PrefetchDepth(frameBytes, requested int) int {
	if requested > 0 {
		return requested
	}
	depth := 2 * h.LogicalCPUs
	if frameBytes > 0 && h.AvailableMemory > 0 {
		byMemory := int(h.AvailableMemory / 8 / uint64(frameBytes))
		depth = min(depth, byMemory)
	}
	return min(max(depth, minPrefetch), maxPrefetch)
}

// FindLatest returns the most recently modified file in dir whose extension is
// one of exts (case-insensitive, with dot).
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

var (
	encoderOnce sync.Once
	encoderName string
)

// GetBestH264Encoder returns the first hardware H.264 encoder ffmpeg reports,
// falling back to libx264. ffmpeg is queried once per process.
func GetBestH264Encoder() string {
	encoderOnce.Do(func() {
		encoderName = "libx264"
		out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
		if err != nil {
			return
		}
		// Prefer VideoToolbox (macOS), then NVENC.
		for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
			if strings.Contains(string(out), enc) {
				encoderName = enc
				return
			}
		}
	})
	return encoderName
}

// DefaultQuality returns the quality setting the encoder is tuned for.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
