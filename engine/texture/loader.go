package texture

import (
	"errors"
	"slices"

	"github.com/EliiasG/modula/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoLayers is returned when a layered texture is loaded without layers.
	ErrNoLayers = errors.New("layered texture has no layers")
	// ErrLayerMismatch is returned when not all layers share the same size for
	// every mip level.
	ErrLayerMismatch = errors.New("layers do not share the same mip level sizes")
)

// Loader loads whole images as new textures through a Queue. The textures
// are created and written on the next flush.
type Loader struct {
	queue    *Queue
	textures *asset.Store[*wgpu.Texture]
}

// NewLoader creates a Loader that reserves ids in the given store and queues
// its work on the given queue.
//
// Parameters:
//   - queue: the texture queue operations are scheduled on.
//   - textures: the store texture ids are reserved in.
//
// Returns:
//   - *Loader: the newly created loader.
func NewLoader(queue *Queue, textures *asset.Store[*wgpu.Texture]) *Loader {
	return &Loader{queue: queue, textures: textures}
}

// LoadTexture queues a texture holding the image and returns its id. The
// texture gets one mip level per level of the chain and is usable as a
// binding and copy destination.
//
// Parameters:
//   - image: the mip chain to load.
//
// Returns:
//   - asset.Id[*wgpu.Texture]: the id the texture will be stored under.
func (l *Loader) LoadTexture(image MipMapImage) asset.Id[*wgpu.Texture] {
	id := l.textures.AddEmpty()
	size := image.BaseSize()
	l.queue.Init(id, size.Width, size.Height,
		wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst,
		uint32(image.LevelCount()), 0)
	l.queue.Write(image, id, wgpu.Origin3D{})
	return id
}

// LoadLayeredTexture queues a texture with one array layer per image. All
// layers must share the same size for every mip level.
//
// Parameters:
//   - layers: the mip chains to load, one per array layer.
//
// Returns:
//   - asset.Id[*wgpu.Texture]: the id the texture will be stored under.
//   - error: ErrNoLayers or ErrLayerMismatch if the layers are unusable.
func (l *Loader) LoadLayeredTexture(layers []MipMapImage) (asset.Id[*wgpu.Texture], error) {
	// validate before reserving an id
	if err := validateLayers(layers); err != nil {
		return asset.Id[*wgpu.Texture]{}, err
	}
	id := l.textures.AddEmpty()
	size := layers[0].BaseSize()
	l.queue.Init(id, size.Width, size.Height,
		wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst,
		uint32(layers[0].LevelCount()), uint32(len(layers)))
	for i, layer := range layers {
		l.queue.Write(layer, id, wgpu.Origin3D{Z: uint32(i)})
	}
	return id, nil
}

func validateLayers(layers []MipMapImage) error {
	if len(layers) == 0 {
		return ErrNoLayers
	}
	first := layers[0].Sizes()
	for _, layer := range layers[1:] {
		if !slices.Equal(layer.Sizes(), first) {
			return ErrLayerMismatch
		}
	}
	return nil
}
