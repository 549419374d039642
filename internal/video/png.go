package video

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// PNGWriter stores every frame as a numbered PNG file.
type PNGWriter struct {
	dir     string
	pattern string
	frames  int
	encoder png.Encoder
}

// NewPNGWriter writes into output when it is a directory, or next to it using
// its base name as prefix when it ends in .png.
func NewPNGWriter(output string) *PNGWriter {
	dir, prefix := output, "frame"
	if strings.EqualFold(filepath.Ext(output), ".png") {
		dir = filepath.Dir(output)
		prefix = strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	}
	return &PNGWriter{
		dir:     dir,
		pattern: prefix + "_%06d.png",
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

func (w *PNGWriter) WriteFrame(ctx context.Context, img *image.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.frames == 0 {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			return err
		}
	}

	path := w.Path(w.frames)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := w.encoder.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Path returns the file name used for frame index.
func (w *PNGWriter) Path(index int) string {
	return filepath.Join(w.dir, fmt.Sprintf(w.pattern, index))
}

func (w *PNGWriter) Frames() int {
	return w.frames
}

func (w *PNGWriter) Close() error {
	return nil
}
