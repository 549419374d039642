// Package capture reads frames from cameras and video files through OpenCV.
package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

var videoExts = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
}

// Handles reports whether input is a camera index, a stream URL or a video
// file that this package should open.
func Handles(input string) bool {
	if _, ok := deviceID(input); ok {
		return true
	}
	if strings.Contains(input, "://") {
		return true
	}
	return videoExts[strings.ToLower(filepath.Ext(input))]
}

func deviceID(input string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Capture is a frame source backed by gocv.VideoCapture.
type Capture struct {
	vc     *gocv.VideoCapture
	frame  gocv.Mat
	input  string
	live   bool
	frames int
}

// Open starts capturing from a camera index, stream URL or video file.
func Open(input string) (*Capture, error) {
	var (
		vc   *gocv.VideoCapture
		err  error
		live bool
	)
	if id, ok := deviceID(input); ok {
		vc, err = gocv.VideoCaptureDevice(id)
		live = true
	} else {
		vc, err = gocv.VideoCaptureFile(input)
		live = strings.Contains(input, "://")
	}
	if err != nil {
		return nil, fmt.Errorf("open capture %s: %w", input, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open capture %s: device not opened", input)
	}
	if live {
		// Keep only the newest frame so tracking does not lag behind the camera.
		vc.Set(gocv.VideoCaptureBufferSize, 1)
	}

	return &Capture{
		vc:    vc,
		frame: gocv.NewMat(),
		input: input,
		live:  live,
	}, nil
}

// FrameCount returns the container's frame count for files and -1 for live input.
func (c *Capture) FrameCount() int {
	if c.live {
		return -1
	}
	n := int(c.vc.Get(gocv.VideoCaptureFrameCount))
	if n <= 0 {
		return -1
	}
	return n
}

// FPS returns the frame rate reported by the backend, or 0 when unknown.
func (c *Capture) FPS() float64 {
	return c.vc.Get(gocv.VideoCaptureFPS)
}

// Next reads the next frame. A failed read of a file is the end of the stream;
// a failed read of a live device is an error.
func (c *Capture) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := c.vc.Read(&c.frame); !ok || c.frame.Empty() {
		if c.live {
			return nil, fmt.Errorf("read frame %d from %s failed", c.frames, c.input)
		}
		return nil, io.EOF
	}
	c.frames++

	img, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame %d: %w", c.frames, err)
	}
	return img, nil
}

func (c *Capture) Close() error {
	c.frame.Close()
	return c.vc.Close()
}
