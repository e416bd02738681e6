package texture

import (
	"errors"
	"testing"

	"github.com/EliiasG/modula/asset"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

// newTestGroupBuilder returns a builder whose GPU calls only record, so
// building works without a device.
func newTestGroupBuilder(mipLevels uint32, descriptors *[]wgpu.TextureDescriptor, writes *[]recordedWrite) *GroupBuilder {
	b := NewGroupBuilder(mipLevels)
	b.createTexture = func(device *wgpu.Device, descriptor *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
		*descriptors = append(*descriptors, *descriptor)
		return nil, nil
	}
	b.writeImage = func(gpuQueue *wgpu.Queue, image MipMapImage, origin wgpu.Origin3D, texture *wgpu.Texture) {
		*writes = append(*writes, recordedWrite{origin: origin, levels: image.LevelCount()})
	}
	return b
}

func TestNewAtlasGroupEnumeratesEntries(t *testing.T) {
	group := NewAtlasGroup([]Atlas{
		NewAtlas(nil, AtlasLayout{{Width: 1}, {Width: 2}}),
		NewAtlas(nil, AtlasLayout{{Width: 3}}),
	})

	assert.Equal(t, 2, group.AtlasCount())
	assert.Equal(t, []EntryLocation{
		{Atlas: 0, SubTexture: 0},
		{Atlas: 0, SubTexture: 1},
		{Atlas: 1, SubTexture: 0},
	}, group.EntryMap())

	_, subTexture := group.Locate(GroupEntry{index: 2})
	assert.Equal(t, uint32(3), subTexture.Width)
}

func TestGroupBuilderEntriesAndSizes(t *testing.T) {
	builder := NewGroupBuilder(2)
	first := builder.AddImage(MipMapFromBase(solidImage(4, 2, 0, 0, 0, 255), 2))
	second := builder.AddImage(MipMapFromBase(solidImage(8, 8, 0, 0, 0, 255), 2))

	assert.Equal(t, 0, first.Index())
	assert.Equal(t, 1, second.Index())
	assert.Equal(t, uint32(2), builder.MipLevels())
	assert.Equal(t, []Size{{Width: 4, Height: 2}, {Width: 8, Height: 8}}, builder.Sizes())
}

func TestGroupBuilderBuild(t *testing.T) {
	var (
		descriptors []wgpu.TextureDescriptor
		writes      []recordedWrite
	)
	builder := newTestGroupBuilder(1, &descriptors, &writes)
	builder.AddImage(MipMapFromBase(solidImage(2, 2, 1, 0, 0, 255), 1))
	builder.AddImage(MipMapFromBase(solidImage(4, 4, 0, 1, 0, 255), 1))

	group, err := builder.Build(DefaultLayouter{}, MaxAtlasSize{MaxWidthHeight: 64, MaxLayers: 8}, nil, nil)
	assert.NoError(t, err)

	assert.Len(t, descriptors, 1)
	descriptor := descriptors[0]
	assert.Equal(t, "Atlas Texture", descriptor.Label)
	assert.Equal(t, uint32(6), descriptor.Size.Width)
	assert.Equal(t, uint32(6), descriptor.Size.Height)
	assert.Equal(t, uint32(1), descriptor.Size.DepthOrArrayLayers)
	assert.Equal(t, uint32(1), descriptor.MipLevelCount)
	assert.Equal(t, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst, descriptor.Usage)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, descriptor.Format)

	// one write per image, at its packed spot
	assert.Equal(t, []recordedWrite{
		{origin: wgpu.Origin3D{X: 4, Y: 0}, levels: 1},
		{origin: wgpu.Origin3D{X: 0, Y: 0}, levels: 1},
	}, writes)

	assert.Equal(t, 1, group.AtlasCount())
	_, subTexture := group.Locate(GroupEntry{index: 0})
	assert.Equal(t, SubTexture{Layer: 0, X: 4, Y: 0, Width: 2, Height: 2}, subTexture)
}

// crossLayouter sends the first image to the second atlas and vice versa, to
// check that entries resolve through the layouter's map rather than atlas
// order.
type crossLayouter struct{}

func (crossLayouter) Layout(sizes []Size, maxSize MaxAtlasSize) (LayouterOutput, error) {
	return LayouterOutput{
		EntryMap: []EntryLocation{{Atlas: 1, SubTexture: 0}, {Atlas: 0, SubTexture: 0}},
		Atlases: []AtlasPlan{
			{Width: 8, Height: 8, Layers: 1, Layout: AtlasLayout{{X: 1, Width: sizes[1].Width, Height: sizes[1].Height}}},
			{Width: 8, Height: 8, Layers: 1, Layout: AtlasLayout{{X: 2, Width: sizes[0].Width, Height: sizes[0].Height}}},
		},
	}, nil
}

func TestGroupBuilderBuildKeepsLayouterEntryMap(t *testing.T) {
	var (
		descriptors []wgpu.TextureDescriptor
		writes      []recordedWrite
	)
	builder := newTestGroupBuilder(1, &descriptors, &writes)
	first := builder.AddImage(MipMapFromBase(solidImage(2, 2, 0, 0, 0, 255), 1))
	builder.AddImage(MipMapFromBase(solidImage(4, 4, 0, 0, 0, 255), 1))

	group, err := builder.Build(crossLayouter{}, MaxAtlasSize{MaxWidthHeight: 8, MaxLayers: 1}, nil, nil)
	assert.NoError(t, err)

	assert.Len(t, descriptors, 2)
	_, subTexture := group.Locate(first)
	assert.Equal(t, uint32(2), subTexture.X, "first image lives in the second atlas")
	assert.Equal(t, wgpu.Origin3D{X: 2}, writes[0].origin)
}

type failingLayouter struct{}

func (failingLayouter) Layout(sizes []Size, maxSize MaxAtlasSize) (LayouterOutput, error) {
	return LayouterOutput{}, errors.New("boom")
}

func TestGroupBuilderBuildLayoutError(t *testing.T) {
	var (
		descriptors []wgpu.TextureDescriptor
		writes      []recordedWrite
	)
	builder := newTestGroupBuilder(1, &descriptors, &writes)
	builder.AddImage(MipMapFromBase(solidImage(2, 2, 0, 0, 0, 255), 1))

	_, err := builder.Build(failingLayouter{}, MaxAtlasSize{MaxWidthHeight: 8, MaxLayers: 1}, nil, nil)
	assert.ErrorContains(t, err, "failed to lay out atlas group")
	assert.Empty(t, descriptors)
}

func TestGroupQueueFlush(t *testing.T) {
	var (
		descriptors []wgpu.TextureDescriptor
		writes      []recordedWrite
	)
	builder := newTestGroupBuilder(1, &descriptors, &writes)
	builder.AddImage(MipMapFromBase(solidImage(2, 2, 0, 0, 0, 255), 1))

	groups := asset.NewStore[*AtlasGroup]()
	id := groups.AddEmpty()
	q := NewGroupQueue(DefaultLayouter{})
	q.InitGroup(id, builder)

	q.Flush(groups, MaxAtlasSize{MaxWidthHeight: 64, MaxLayers: 8}, nil, nil)

	group, ok := groups.Get(id)
	assert.True(t, ok)
	assert.Equal(t, 1, group.AtlasCount())

	// the queue is cleared by the flush
	q.Flush(groups, MaxAtlasSize{MaxWidthHeight: 64, MaxLayers: 8}, nil, nil)
	assert.Len(t, descriptors, 1)
}

func TestGroupQueueFlushPanicsOnLayoutError(t *testing.T) {
	var (
		descriptors []wgpu.TextureDescriptor
		writes      []recordedWrite
	)
	builder := newTestGroupBuilder(1, &descriptors, &writes)
	builder.AddImage(MipMapFromBase(solidImage(2, 2, 0, 0, 0, 255), 1))

	groups := asset.NewStore[*AtlasGroup]()
	q := NewGroupQueue(failingLayouter{})
	q.InitGroup(groups.AddEmpty(), builder)

	assert.PanicsWithError(t, "error during atlas layout: failed to lay out atlas group: boom", func() {
		q.Flush(groups, MaxAtlasSize{MaxWidthHeight: 64, MaxLayers: 8}, nil, nil)
	})
}

func TestMaxAtlasSizeFromLimits(t *testing.T) {
	limits := wgpu.Limits{MaxTextureDimension2D: 8192, MaxTextureArrayLayers: 256}
	assert.Equal(t, MaxAtlasSize{MaxWidthHeight: 8192, MaxLayers: 256}, MaxAtlasSizeFromLimits(limits))
}
