// Package video writes annotated frames, either as an encoded video through
// an ffmpeg process or as numbered PNG files.
package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// FrameWriter consumes rendered frames in order.
type FrameWriter interface {
	WriteFrame(ctx context.Context, img *image.RGBA) error
	// Frames returns how many frames were written.
	Frames() int
	Close() error
}

// Options configure the encoded output.
type Options struct {
	FPS     int
	Encoder string
	Quality int
}

// NewWriter picks a writer for output: a directory or a .png pattern gets a
// PNGWriter, anything else is encoded by ffmpeg. An empty output discards
// frames.
func NewWriter(output string, opts Options) FrameWriter {
	switch ext := strings.ToLower(filepath.Ext(output)); {
	case output == "":
		return &Discard{}
	case ext == "", ext == ".png":
		return NewPNGWriter(output)
	default:
		return NewFFmpegWriter(output, opts)
	}
}

// FFmpegWriter pipes raw RGBA frames into ffmpeg. The process is started on
// the first frame, when the frame size is known.
type FFmpegWriter struct {
	path string
	opts Options

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	size   image.Point
	frames int
}

func NewFFmpegWriter(path string, opts Options) *FFmpegWriter {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Encoder == "" {
		opts.Encoder = "libx264"
	}
	return &FFmpegWriter{path: path, opts: opts}
}

// WriteFrame sends img to ffmpeg. ctx only gates the write; the process
// keeps running until Close so the container is always finalized.
func (w *FFmpegWriter) WriteFrame(ctx context.Context, img *image.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	size := img.Bounds().Size()
	if w.cmd == nil {
		if err := w.start(size); err != nil {
			return err
		}
	} else if size != w.size {
		return fmt.Errorf("frame %d is %v, stream is %v", w.frames, size, w.size)
	}

	if err := w.writeRawRGBA(w.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w, output: %s", err, w.stderr.String())
	}
	w.frames++
	return nil
}

func (w *FFmpegWriter) start(size image.Point) error {
	args := w.buildFFmpegArgs(size.X, size.Y)
	cmd := exec.Command("ffmpeg", args...)
	cmd.Stdout = &w.stderr
	cmd.Stderr = &w.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	w.cmd = cmd
	w.stdin = stdin
	w.size = size
	return nil
}

func (w *FFmpegWriter) buildFFmpegArgs(inputW, inputH int) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", inputW, inputH),
		"-framerate", fmt.Sprintf("%d", w.opts.FPS),
		"-i", "-",
		// yuv420p needs even frame sizes
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", w.opts.Encoder,
	}

	// Quality setting per encoder
	switch w.opts.Encoder {
	case "h264_videotoolbox":
		bitrate := w.opts.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", w.opts.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", w.opts.Quality), "-preset", "medium")
	}

	args = append(args, w.path)
	return args
}

// writeRawRGBA writes img as tightly packed RGBA rows.
func (w *FFmpegWriter) writeRawRGBA(out io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	if img.Stride != bounds.Dx()*4 || img.Rect.Min.X != 0 || img.Rect.Min.Y != 0 {
		packed := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(packed, packed.Bounds(), img, bounds.Min, draw.Src)
		img = packed
	}
	_, err := out.Write(img.Pix)
	return err
}

func (w *FFmpegWriter) Frames() int {
	return w.frames
}

// Close flushes the stream and waits for ffmpeg to finish.
func (w *FFmpegWriter) Close() error {
	if w.cmd == nil {
		return nil
	}
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, w.stderr.String())
	}
	return nil
}

// Discard drops every frame.
type Discard struct {
	frames int
}

func (d *Discard) WriteFrame(context.Context, *image.RGBA) error {
	d.frames++
	return nil
}

func (d *Discard) Frames() int { return d.frames }

func (d *Discard) Close() error { return nil }
