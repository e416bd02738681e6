package texture

import (
	"image"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/draw"
)

// MipMapImage is a stack of Images used as mip levels. Either every level is
// provided up front, or only the base level is and the rest are produced by
// GenerateLevels before upload.
type MipMapImage struct {
	levels        []Image
	generateCount int
}

// MipMapFromLevels builds a mip chain from explicitly provided levels.
// Level 0 is the base image. Panics if levels is empty.
//
// Parameters:
//   - levels: every mip level, largest first.
//
// Returns:
//   - MipMapImage: the mip chain.
func MipMapFromLevels(levels []Image) MipMapImage {
	if len(levels) == 0 {
		panic("levels may not be empty")
	}
	return MipMapImage{levels: levels}
}

// MipMapFromBase builds a mip chain from a base image, leaving the remaining
// levelCount-1 levels to GenerateLevels. Panics if levelCount is not positive.
//
// Parameters:
//   - base: the level 0 image.
//   - levelCount: the total number of mip levels.
//
// Returns:
//   - MipMapImage: the mip chain.
func MipMapFromBase(base Image, levelCount int) MipMapImage {
	if levelCount <= 0 {
		panic("mip map image must not have 0 levels")
	}
	return MipMapImage{levels: []Image{base}, generateCount: levelCount - 1}
}

// LevelCount returns the total number of mip levels, counting levels that
// have not been generated yet.
//
// Returns:
//   - int: the level count.
func (m MipMapImage) LevelCount() int {
	return len(m.levels) + m.generateCount
}

// Levels returns the levels present so far. Before GenerateLevels a chain
// built with MipMapFromBase holds only the base image.
//
// Returns:
//   - []Image: the present levels, largest first.
func (m MipMapImage) Levels() []Image {
	return m.levels
}

// Sizes returns the dimensions of the levels present so far.
//
// Returns:
//   - []Size: one Size per present level.
func (m MipMapImage) Sizes() []Size {
	sizes := make([]Size, len(m.levels))
	for i, level := range m.levels {
		sizes[i] = level.Size()
	}
	return sizes
}

// BaseSize returns the dimensions of level 0.
//
// Returns:
//   - Size: the base level size.
func (m MipMapImage) BaseSize() Size {
	return m.levels[0].Size()
}

// GenerateLevels fills in the missing levels by scaling the base image down,
// one task per level on the pool. Each level halves the previous dimensions,
// clamped at 1. Levels provided up front are left untouched; a chain with no
// missing levels is returned as is.
//
// Parameters:
//   - pool: the worker pool the scaling tasks run on.
//
// Returns:
//   - MipMapImage: the chain with every level present.
func (m MipMapImage) GenerateLevels(pool worker.DynamicWorkerPool) MipMapImage {
	if m.generateCount == 0 {
		return m
	}
	base := m.levels[0]
	src := base.rgba()
	levels := make([]Image, m.LevelCount())
	copy(levels, m.levels)

	var wg sync.WaitGroup
	for i := len(m.levels); i < len(levels); i++ {
		width := max(base.Width>>uint32(i), 1)
		height := max(base.Height>>uint32(i), 1)
		wg.Add(1)
		level := i
		pool.SubmitTask(worker.Task{
			ID: level,
			Do: func() (any, error) {
				defer wg.Done()
				dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
				draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
				levels[level] = Image{Data: dst.Pix, Width: width, Height: height}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return MipMapImage{levels: levels}
}

// WriteToTexture writes every present level to the texture. For most cases
// Queue or Loader should be sufficient. The origin X and Y are given in base
// level pixels and are shifted down per level; Z addresses an array layer and
// is not scaled.
//
// Parameters:
//   - gpuQueue: the queue the writes are submitted on.
//   - origin: the destination offset of the base level.
//   - texture: the destination texture.
func (m MipMapImage) WriteToTexture(gpuQueue *wgpu.Queue, origin wgpu.Origin3D, texture *wgpu.Texture) {
	for _, write := range m.levelWrites(origin) {
		gpuQueue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  texture,
				MipLevel: write.mipLevel,
				Origin:   write.origin,
				Aspect:   wgpu.TextureAspectAll,
			},
			write.data,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  write.bytesPerRow,
				RowsPerImage: write.rowsPerImage,
			},
			&wgpu.Extent3D{
				Width:              write.width,
				Height:             write.height,
				DepthOrArrayLayers: 1,
			},
		)
	}
}

type levelWrite struct {
	mipLevel     uint32
	origin       wgpu.Origin3D
	data         []byte
	bytesPerRow  uint32
	rowsPerImage uint32
	width        uint32
	height       uint32
}

func (m MipMapImage) levelWrites(origin wgpu.Origin3D) []levelWrite {
	writes := make([]levelWrite, 0, len(m.levels))
	for level, img := range m.levels {
		writes = append(writes, levelWrite{
			mipLevel: uint32(level),
			origin: wgpu.Origin3D{
				X: origin.X >> uint32(level),
				Y: origin.Y >> uint32(level),
				Z: origin.Z,
			},
			data:         img.Data,
			bytesPerRow:  4 * img.Width,
			rowsPerImage: img.Height,
			width:        img.Width,
			height:       img.Height,
		})
	}
	return writes
}
