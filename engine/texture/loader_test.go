package texture

import (
	"testing"

	"github.com/EliiasG/modula/asset"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestLoadTexture(t *testing.T) {
	q := NewQueue()
	textures := asset.NewStore[*wgpu.Texture]()
	loader := NewLoader(q, textures)

	id := loader.LoadTexture(MipMapFromBase(solidImage(8, 4, 1, 1, 1, 255), 4))

	_, ok := textures.Get(id)
	assert.False(t, ok, "texture should not exist before a flush")

	assert.Len(t, q.operations, 2)
	init := q.operations[0].init
	assert.NotNil(t, init)
	assert.Equal(t, id, init.id)
	assert.Equal(t, uint32(8), init.width)
	assert.Equal(t, uint32(4), init.height)
	assert.Equal(t, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst, init.usage)
	assert.Equal(t, uint32(4), init.mipCount)
	assert.Equal(t, uint32(0), init.layers)

	write := q.operations[1].write
	assert.NotNil(t, write)
	assert.Equal(t, id, write.id)
	assert.Equal(t, wgpu.Origin3D{}, write.origin)
	assert.Equal(t, 4, write.image.LevelCount())
}

func TestLoadLayeredTexture(t *testing.T) {
	q := NewQueue()
	textures := asset.NewStore[*wgpu.Texture]()
	loader := NewLoader(q, textures)

	layers := []MipMapImage{
		MipMapFromBase(solidImage(4, 4, 1, 0, 0, 255), 2),
		MipMapFromBase(solidImage(4, 4, 0, 1, 0, 255), 2),
		MipMapFromBase(solidImage(4, 4, 0, 0, 1, 255), 2),
	}
	id, err := loader.LoadLayeredTexture(layers)
	assert.NoError(t, err)

	assert.Len(t, q.operations, 4)
	init := q.operations[0].init
	assert.NotNil(t, init)
	assert.Equal(t, uint32(2), init.mipCount)
	assert.Equal(t, uint32(3), init.layers)
	for i, operation := range q.operations[1:] {
		write := operation.write
		assert.NotNil(t, write)
		assert.Equal(t, id, write.id)
		assert.Equal(t, wgpu.Origin3D{Z: uint32(i)}, write.origin)
	}
}

func TestLoadLayeredTextureNoLayers(t *testing.T) {
	q := NewQueue()
	loader := NewLoader(q, asset.NewStore[*wgpu.Texture]())

	_, err := loader.LoadLayeredTexture(nil)
	assert.ErrorIs(t, err, ErrNoLayers)
	assert.Empty(t, q.operations)
}

func TestLoadLayeredTextureSizeMismatch(t *testing.T) {
	q := NewQueue()
	loader := NewLoader(q, asset.NewStore[*wgpu.Texture]())

	_, err := loader.LoadLayeredTexture([]MipMapImage{
		MipMapFromBase(solidImage(4, 4, 0, 0, 0, 255), 1),
		MipMapFromBase(solidImage(4, 2, 0, 0, 0, 255), 1),
	})
	assert.ErrorIs(t, err, ErrLayerMismatch)
	assert.Empty(t, q.operations)
}

func TestLoadLayeredTextureMipSizeMismatch(t *testing.T) {
	q := NewQueue()
	loader := NewLoader(q, asset.NewStore[*wgpu.Texture]())

	// base sizes match, lower level sizes do not
	_, err := loader.LoadLayeredTexture([]MipMapImage{
		MipMapFromLevels([]Image{solidImage(4, 4, 0, 0, 0, 255), solidImage(2, 2, 0, 0, 0, 255)}),
		MipMapFromLevels([]Image{solidImage(4, 4, 0, 0, 0, 255), solidImage(2, 1, 0, 0, 0, 255)}),
	})
	assert.ErrorIs(t, err, ErrLayerMismatch)
}
