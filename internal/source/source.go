// Package source provides frame streams read from files: image sequences and
// paged documents. Live capture lives in package capture.
package source

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Source yields frames in order. Next returns io.EOF after the last frame.
type Source interface {
	Next(ctx context.Context) (image.Image, error)
	// FrameCount is the total number of frames, or -1 when unknown.
	FrameCount() int
	Close() error
}

var documentExts = map[string]bool{
	".pdf":  true,
	".xps":  true,
	".cbz":  true,
	".epub": true,
	".fb2":  true,
	".mobi": true,
}

// IsDocument reports whether path is rendered page by page through MuPDF.
func IsDocument(path string) bool {
	return documentExts[strings.ToLower(filepath.Ext(path))]
}

// Open picks a document or image source for path.
func Open(path string, dpi int) (Source, error) {
	if IsDocument(path) {
		doc, err := NewDocumentSource(path, dpi)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
	img, err := NewImageSource(path)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// DocumentSource renders each page of a document as one frame.
type DocumentSource struct {
	doc   *fitz.Document
	path  string
	dpi   float64
	index int
}

func NewDocumentSource(path string, dpi int) (*DocumentSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", path, err)
	}
	if dpi <= 0 {
		dpi = 72
	}
	return &DocumentSource{doc: doc, path: path, dpi: float64(dpi)}, nil
}

func (d *DocumentSource) FrameCount() int {
	return d.doc.NumPage()
}

func (d *DocumentSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.index >= d.doc.NumPage() {
		return nil, io.EOF
	}
	img, err := d.doc.ImageDPI(d.index, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d of %s: %w", d.index, d.path, err)
	}
	d.index++
	return img, nil
}

func (d *DocumentSource) Close() error {
	return d.doc.Close()
}
