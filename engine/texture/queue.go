package texture

import (
	"fmt"

	"github.com/EliiasG/modula/asset"
	"github.com/EliiasG/modula/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// queueTextureCreator creates a texture on the device. Replaceable so queue
// behavior can be exercised without a GPU.
type queueTextureCreator func(device *wgpu.Device, descriptor *wgpu.TextureDescriptor) (*wgpu.Texture, error)

// queueImageWriter uploads a mip chain to a texture.
type queueImageWriter func(gpuQueue *wgpu.Queue, image MipMapImage, origin wgpu.Origin3D, texture *wgpu.Texture)

// Queue defers texture creation and uploads until Flush, which the engine
// runs before drawing each frame. Use it to put textures into assets by id;
// if the goal is to just load a texture, Loader is simpler.
type Queue struct {
	operations []textureOperation

	createTexture queueTextureCreator
	writeImage    queueImageWriter
}

// NewQueue creates an empty texture queue.
//
// Returns:
//   - *Queue: the newly created queue.
func NewQueue() *Queue {
	return &Queue{
		createTexture: func(device *wgpu.Device, descriptor *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
			return device.CreateTexture(descriptor)
		},
		writeImage: func(gpuQueue *wgpu.Queue, image MipMapImage, origin wgpu.Origin3D, texture *wgpu.Texture) {
			image.WriteToTexture(gpuQueue, origin, texture)
		},
	}
}

// Init schedules creation of a texture under the given id, discarding the
// current texture if one already exists. A layers value of 0 is treated as 1.
//
// Parameters:
//   - id: the asset id the texture is stored under.
//   - width: the base level width in pixels.
//   - height: the base level height in pixels.
//   - usage: the texture usage flags.
//   - mipCount: the number of mip levels.
//   - layers: the number of array layers, 0 for a plain 2d texture.
func (q *Queue) Init(id asset.Id[*wgpu.Texture], width, height uint32, usage wgpu.TextureUsage, mipCount, layers uint32) {
	q.operations = append(q.operations, textureOperation{init: &textureInit{
		id:       id,
		width:    width,
		height:   height,
		usage:    usage,
		mipCount: mipCount,
		layers:   layers,
	}})
}

// Write schedules an upload of an image to the texture under the given id.
// Flush panics if no texture exists for the id when the write is reached, so
// the id must be initialized first, either by Init earlier in the queue or by
// a previous flush.
//
// Parameters:
//   - image: the mip chain to upload.
//   - id: the asset id of the destination texture.
//   - origin: the destination offset of the base level.
func (q *Queue) Write(image MipMapImage, id asset.Id[*wgpu.Texture], origin wgpu.Origin3D) {
	q.operations = append(q.operations, textureOperation{write: &textureWrite{
		image:  image,
		id:     id,
		origin: origin,
	}})
}

// Flush runs the queued operations in order and clears the queue, also when
// an operation fails.
//
// Parameters:
//   - textures: the store holding the textures by id.
//   - device: the device textures are created on.
//   - gpuQueue: the queue uploads are submitted on.
//
// Returns:
//   - error: an error if a texture could not be created.
func (q *Queue) Flush(textures *asset.Store[*wgpu.Texture], device *wgpu.Device, gpuQueue *wgpu.Queue) error {
	defer func() {
		q.operations = q.operations[:0]
	}()
	for _, operation := range q.operations {
		if operation.init != nil {
			if err := q.initTexture(operation.init, textures, device); err != nil {
				return err
			}
			continue
		}
		write := operation.write
		texture, ok := textures.Get(write.id)
		if !ok {
			panic("texture to write to was not found")
		}
		q.writeImage(gpuQueue, write.image, write.origin, texture)
	}
	return nil
}

func (q *Queue) initTexture(init *textureInit, textures *asset.Store[*wgpu.Texture], device *wgpu.Device) error {
	texture, err := q.createTexture(device, &wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              init.width,
			Height:             init.height,
			DepthOrArrayLayers: common.Coalesce(init.layers, 1),
		},
		MipLevelCount: init.mipCount,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         init.usage,
	})
	if err != nil {
		return fmt.Errorf("failed to create texture: %w", err)
	}
	if old, ok := textures.Get(init.id); ok && old != nil {
		old.Release()
	}
	textures.Replace(init.id, texture)
	return nil
}

// textureOperation is one queued step. Exactly one of init and write is set.
type textureOperation struct {
	init  *textureInit
	write *textureWrite
}

type textureInit struct {
	id       asset.Id[*wgpu.Texture]
	width    uint32
	height   uint32
	usage    wgpu.TextureUsage
	mipCount uint32
	layers   uint32
}

type textureWrite struct {
	image  MipMapImage
	id     asset.Id[*wgpu.Texture]
	origin wgpu.Origin3D
}
