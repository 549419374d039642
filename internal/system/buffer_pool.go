package system

import (
	"image"
	"sync"
)

// ImagePool reuses *image.RGBA frame buffers keyed by their rectangle so that
// rendering a long stream does not allocate one frame per output image.
type ImagePool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

// NewImagePool returns an empty pool.
func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

var globalPool = NewImagePool()

// GetImage returns a buffer with bounds rect from the shared pool. Its
// contents are undefined; callers overwrite every pixel.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage hands a buffer back to the shared pool.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

// Put returns img to the pool of its size. Buffers of a size never requested
// through Get are dropped.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}

// Sizes reports how many distinct buffer sizes the pool has seen.
func (p *ImagePool) Sizes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pools)
}
