package texture

import (
	"errors"
	"testing"

	"github.com/EliiasG/modula/asset"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

type recordedWrite struct {
	origin wgpu.Origin3D
	levels int
}

// newTestQueue returns a queue whose GPU calls only record, so flushing works
// without a device.
func newTestQueue(descriptors *[]wgpu.TextureDescriptor, writes *[]recordedWrite) *Queue {
	q := NewQueue()
	q.createTexture = func(device *wgpu.Device, descriptor *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
		*descriptors = append(*descriptors, *descriptor)
		return nil, nil
	}
	q.writeImage = func(gpuQueue *wgpu.Queue, image MipMapImage, origin wgpu.Origin3D, texture *wgpu.Texture) {
		*writes = append(*writes, recordedWrite{origin: origin, levels: image.LevelCount()})
	}
	return q
}

func TestQueueFlushRunsInOrder(t *testing.T) {
	var (
		descriptors []wgpu.TextureDescriptor
		writes      []recordedWrite
	)
	q := newTestQueue(&descriptors, &writes)
	textures := asset.NewStore[*wgpu.Texture]()
	first := textures.AddEmpty()
	second := textures.AddEmpty()

	q.Init(first, 8, 4, wgpu.TextureUsageTextureBinding, 1, 0)
	q.Write(MipMapFromBase(solidImage(8, 4, 1, 1, 1, 255), 1), first, wgpu.Origin3D{})
	q.Init(second, 2, 2, wgpu.TextureUsageCopyDst, 3, 6)
	q.Write(MipMapFromBase(solidImage(2, 2, 1, 1, 1, 255), 3), second, wgpu.Origin3D{X: 1})

	err := q.Flush(textures, nil, nil)
	assert.NoError(t, err)

	assert.Len(t, descriptors, 2)
	assert.Equal(t, uint32(8), descriptors[0].Size.Width)
	assert.Equal(t, uint32(4), descriptors[0].Size.Height)
	assert.Equal(t, uint32(1), descriptors[0].Size.DepthOrArrayLayers)
	assert.Equal(t, uint32(1), descriptors[0].MipLevelCount)
	assert.Equal(t, wgpu.TextureUsageTextureBinding, descriptors[0].Usage)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, descriptors[0].Format)
	assert.Equal(t, wgpu.TextureDimension2D, descriptors[0].Dimension)

	assert.Equal(t, uint32(6), descriptors[1].Size.DepthOrArrayLayers)
	assert.Equal(t, uint32(3), descriptors[1].MipLevelCount)

	assert.Len(t, writes, 2)
	assert.Equal(t, wgpu.Origin3D{}, writes[0].origin)
	assert.Equal(t, 1, writes[0].levels)
	assert.Equal(t, wgpu.Origin3D{X: 1}, writes[1].origin)
	assert.Equal(t, 3, writes[1].levels)
}

func TestQueueFlushClearsOperations(t *testing.T) {
	var (
		descriptors []wgpu.TextureDescriptor
		writes      []recordedWrite
	)
	q := newTestQueue(&descriptors, &writes)
	textures := asset.NewStore[*wgpu.Texture]()

	q.Init(textures.AddEmpty(), 1, 1, wgpu.TextureUsageCopyDst, 1, 0)
	assert.NoError(t, q.Flush(textures, nil, nil))
	assert.NoError(t, q.Flush(textures, nil, nil))

	assert.Len(t, descriptors, 1)
}

func TestQueueWriteToMissingTexturePanics(t *testing.T) {
	var (
		descriptors []wgpu.TextureDescriptor
		writes      []recordedWrite
	)
	q := newTestQueue(&descriptors, &writes)
	textures := asset.NewStore[*wgpu.Texture]()

	q.Write(MipMapFromBase(solidImage(1, 1, 0, 0, 0, 255), 1), textures.AddEmpty(), wgpu.Origin3D{})

	assert.PanicsWithValue(t, "texture to write to was not found", func() {
		_ = q.Flush(textures, nil, nil)
	})
}

func TestQueueFlushReportsCreateError(t *testing.T) {
	var writes []recordedWrite
	q := NewQueue()
	q.createTexture = func(device *wgpu.Device, descriptor *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
		return nil, errors.New("boom")
	}
	q.writeImage = func(gpuQueue *wgpu.Queue, image MipMapImage, origin wgpu.Origin3D, texture *wgpu.Texture) {
		writes = append(writes, recordedWrite{})
	}
	textures := asset.NewStore[*wgpu.Texture]()
	id := textures.AddEmpty()

	q.Init(id, 1, 1, wgpu.TextureUsageCopyDst, 1, 0)
	q.Write(MipMapFromBase(solidImage(1, 1, 0, 0, 0, 255), 1), id, wgpu.Origin3D{})

	err := q.Flush(textures, nil, nil)
	assert.ErrorContains(t, err, "failed to create texture")
	assert.Empty(t, writes)

	// a failed flush still clears the queue
	q.createTexture = func(device *wgpu.Device, descriptor *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
		panic("unexpected create")
	}
	assert.NoError(t, q.Flush(textures, nil, nil))
}
