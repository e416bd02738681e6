package texture

import (
	"fmt"

	"github.com/EliiasG/modula/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

// Atlas stores many images in a single texture that can be indexed through
// its layout.
type Atlas struct {
	texture *wgpu.Texture
	layout  AtlasLayout
}

// NewAtlas wraps a texture and the layout describing its contents.
//
// Parameters:
//   - texture: the atlas texture.
//   - layout: the placement of every subtexture.
//
// Returns:
//   - Atlas: the atlas.
func NewAtlas(texture *wgpu.Texture, layout AtlasLayout) Atlas {
	return Atlas{texture: texture, layout: layout}
}

// Texture returns the atlas texture.
//
// Returns:
//   - *wgpu.Texture: the texture holding the subtextures.
func (a Atlas) Texture() *wgpu.Texture {
	return a.texture
}

// Layout returns the placement of every subtexture in the atlas.
//
// Returns:
//   - AtlasLayout: the layout.
func (a Atlas) Layout() AtlasLayout {
	return a.layout
}

// AtlasLayout is the placement of every subtexture within one atlas.
type AtlasLayout []SubTexture

// SubTexture is a subsection of a texture atlas.
type SubTexture struct {
	Layer  uint32
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32
}

// EntryLocation locates a group entry: which atlas in the group, and which
// subtexture in that atlas's layout.
type EntryLocation struct {
	Atlas      int
	SubTexture int
}

// AtlasGroup is a set of Atlases acting as one, for when a single atlas is
// not big enough for all subtextures. Entries index into the entry map, which
// locates the atlas and subtexture they ended up in.
type AtlasGroup struct {
	atlases  []Atlas
	entryMap []EntryLocation
}

// NewAtlasGroup groups manually built atlases. The entry map enumerates the
// subtextures of each atlas in order, first atlas first.
//
// Parameters:
//   - atlases: the atlases forming the group.
//
// Returns:
//   - *AtlasGroup: the group.
func NewAtlasGroup(atlases []Atlas) *AtlasGroup {
	var entryMap []EntryLocation
	for i, atlas := range atlases {
		for j := range atlas.layout {
			entryMap = append(entryMap, EntryLocation{Atlas: i, SubTexture: j})
		}
	}
	return &AtlasGroup{atlases: atlases, entryMap: entryMap}
}

// NewAtlasGroupWithEntryMap groups atlases with an explicit entry map, used
// when entries were laid out in a different order than the atlases store
// them.
//
// Parameters:
//   - atlases: the atlases forming the group.
//   - entryMap: the location of every entry.
//
// Returns:
//   - *AtlasGroup: the group.
func NewAtlasGroupWithEntryMap(atlases []Atlas, entryMap []EntryLocation) *AtlasGroup {
	return &AtlasGroup{atlases: atlases, entryMap: entryMap}
}

// AtlasCount returns the number of atlases in the group.
//
// Returns:
//   - int: the atlas count.
func (g *AtlasGroup) AtlasCount() int {
	return len(g.atlases)
}

// Atlases returns the atlases in the group.
//
// Returns:
//   - []Atlas: the atlases.
func (g *AtlasGroup) Atlases() []Atlas {
	return g.atlases
}

// EntryMap returns the mapping from entry indices to atlas and subtexture
// indices.
//
// Returns:
//   - []EntryLocation: one location per entry.
func (g *AtlasGroup) EntryMap() []EntryLocation {
	return g.entryMap
}

// Locate resolves an entry to its atlas and subtexture.
//
// Parameters:
//   - entry: the entry handed out when the image was added.
//
// Returns:
//   - Atlas: the atlas the image ended up in.
//   - SubTexture: the region the image occupies.
func (g *AtlasGroup) Locate(entry GroupEntry) (Atlas, SubTexture) {
	location := g.entryMap[entry.index]
	atlas := g.atlases[location.Atlas]
	return atlas, atlas.layout[location.SubTexture]
}

// GroupEntry is a ticket for one image added to a GroupBuilder, resolved
// through the entry map of the built group.
type GroupEntry struct {
	index int
}

// Index returns the entry's index in the entry map of its group.
//
// Returns:
//   - int: the entry map index.
func (e GroupEntry) Index() int {
	return e.index
}

// GroupBuilder collects images to be packed into an AtlasGroup.
type GroupBuilder struct {
	images    []MipMapImage
	mipLevels uint32
	usages    wgpu.TextureUsage

	createTexture queueTextureCreator
	writeImage    queueImageWriter
}

// NewGroupBuilder creates a builder for atlases with the given number of mip
// levels, usable as texture bindings.
//
// Parameters:
//   - mipLevels: the mip level count of every atlas texture.
//
// Returns:
//   - *GroupBuilder: the newly created builder.
func NewGroupBuilder(mipLevels uint32) *GroupBuilder {
	return NewGroupBuilderWithUsages(wgpu.TextureUsageTextureBinding, mipLevels)
}

// NewGroupBuilderWithUsages creates a builder for atlases with custom usage
// flags. Copy destination usage is always added, as building writes the
// images to the atlas textures.
//
// Parameters:
//   - usages: the usage flags of every atlas texture.
//   - mipLevels: the mip level count of every atlas texture.
//
// Returns:
//   - *GroupBuilder: the newly created builder.
func NewGroupBuilderWithUsages(usages wgpu.TextureUsage, mipLevels uint32) *GroupBuilder {
	return &GroupBuilder{
		mipLevels: mipLevels,
		usages:    usages | wgpu.TextureUsageCopyDst,
		createTexture: func(device *wgpu.Device, descriptor *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
			return device.CreateTexture(descriptor)
		},
		writeImage: func(gpuQueue *wgpu.Queue, image MipMapImage, origin wgpu.Origin3D, texture *wgpu.Texture) {
			image.WriteToTexture(gpuQueue, origin, texture)
		},
	}
}

// AddImage adds an image to be packed. An image with a single mip level is
// written to the base level only; otherwise its level count should match the
// builder's.
//
// Parameters:
//   - image: the image to pack.
//
// Returns:
//   - GroupEntry: the entry the image can be located by after building.
func (b *GroupBuilder) AddImage(image MipMapImage) GroupEntry {
	b.images = append(b.images, image)
	return GroupEntry{index: len(b.images) - 1}
}

// MipLevels returns the mip level count of the atlas textures.
//
// Returns:
//   - uint32: the mip level count.
func (b *GroupBuilder) MipLevels() uint32 {
	return b.mipLevels
}

// Sizes returns the base sizes of the added images, useful for layouting.
//
// Returns:
//   - []Size: one Size per added image, in insertion order.
func (b *GroupBuilder) Sizes() []Size {
	sizes := make([]Size, len(b.images))
	for i, image := range b.images {
		sizes[i] = image.BaseSize()
	}
	return sizes
}

// Build lays the images out, creates the atlas textures and writes every
// image to its spot. For basic cases use a GroupQueue instead.
//
// Parameters:
//   - layouter: the packing strategy.
//   - maxSize: the size limits a single atlas texture may not exceed.
//   - device: the device the atlas textures are created on.
//   - gpuQueue: the queue image uploads are submitted on.
//
// Returns:
//   - *AtlasGroup: the built group.
//   - error: an error if layouting or texture creation fails.
func (b *GroupBuilder) Build(layouter Layouter, maxSize MaxAtlasSize, device *wgpu.Device, gpuQueue *wgpu.Queue) (*AtlasGroup, error) {
	output, err := layouter.Layout(b.Sizes(), maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out atlas group: %w", err)
	}
	atlases := make([]Atlas, 0, len(output.Atlases))
	for _, plan := range output.Atlases {
		texture, err := b.createTexture(device, &wgpu.TextureDescriptor{
			Label: "Atlas Texture",
			Size: wgpu.Extent3D{
				Width:              plan.Width,
				Height:             plan.Height,
				DepthOrArrayLayers: plan.Layers,
			},
			MipLevelCount: b.mipLevels,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        wgpu.TextureFormatRGBA8UnormSrgb,
			Usage:         b.usages,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create atlas texture: %w", err)
		}
		atlases = append(atlases, NewAtlas(texture, plan.Layout))
	}
	for imageIndex, location := range output.EntryMap {
		atlas := atlases[location.Atlas]
		subTexture := atlas.layout[location.SubTexture]
		b.writeImage(gpuQueue, b.images[imageIndex], wgpu.Origin3D{
			X: subTexture.X,
			Y: subTexture.Y,
			Z: subTexture.Layer,
		}, atlas.texture)
	}
	return NewAtlasGroupWithEntryMap(atlases, output.EntryMap), nil
}

// Layouter decides how images are packed into the atlases of a group.
type Layouter interface {
	// Layout packs the given image sizes into one or more atlases, none
	// exceeding the given size limits.
	//
	// Parameters:
	//   - sizes: the base sizes of the images to pack.
	//   - maxSize: the size limits a single atlas may not exceed.
	//
	// Returns:
	//   - LayouterOutput: the planned atlases and the location of every image.
	//   - error: an error if the images cannot be packed within the limits.
	Layout(sizes []Size, maxSize MaxAtlasSize) (LayouterOutput, error)
}

// LayouterOutput is the plan a Layouter produces for an atlas group.
type LayouterOutput struct {
	// EntryMap maps image indices to their location in the group.
	EntryMap []EntryLocation
	// Atlases holds the size and layout of every atlas to create.
	Atlases []AtlasPlan
}

// AtlasPlan is the size and layout of a single atlas to create.
type AtlasPlan struct {
	Width  uint32
	Height uint32
	Layers uint32
	Layout AtlasLayout
}

// MaxAtlasSize bounds what a Layouter may produce.
type MaxAtlasSize struct {
	// MaxWidthHeight is the maximum width and height of an atlas texture.
	MaxWidthHeight uint32
	// MaxLayers is the maximum number of array layers of an atlas texture.
	MaxLayers uint32
}

// MaxAtlasSizeFromLimits derives atlas size limits from device limits.
//
// Parameters:
//   - limits: the limits of the device the atlases are created on.
//
// Returns:
//   - MaxAtlasSize: the corresponding atlas size limits.
func MaxAtlasSizeFromLimits(limits wgpu.Limits) MaxAtlasSize {
	return MaxAtlasSize{
		MaxWidthHeight: limits.MaxTextureDimension2D,
		MaxLayers:      limits.MaxTextureArrayLayers,
	}
}

// GroupQueue lays out and creates atlas groups during the engine's upload
// phase. To lay out groups manually, build AtlasGroups directly.
type GroupQueue struct {
	layouter Layouter
	pending  []pendingGroup
}

type pendingGroup struct {
	id      asset.Id[*AtlasGroup]
	builder *GroupBuilder
}

// NewGroupQueue creates a queue that lays groups out with the given layouter.
//
// Parameters:
//   - layouter: the packing strategy used for every group.
//
// Returns:
//   - *GroupQueue: the newly created queue.
func NewGroupQueue(layouter Layouter) *GroupQueue {
	return &GroupQueue{layouter: layouter}
}

// InitGroup schedules the builder to be built into the group stored under the
// given id on the next flush.
//
// Parameters:
//   - id: the asset id the group is stored under.
//   - builder: the builder holding the images to pack.
func (q *GroupQueue) InitGroup(id asset.Id[*AtlasGroup], builder *GroupBuilder) {
	q.pending = append(q.pending, pendingGroup{id: id, builder: builder})
}

// Flush builds every pending group and clears the queue. Panics if a group
// cannot be laid out.
//
// Parameters:
//   - groups: the store holding the groups by id.
//   - maxSize: the size limits a single atlas texture may not exceed.
//   - device: the device the atlas textures are created on.
//   - gpuQueue: the queue image uploads are submitted on.
func (q *GroupQueue) Flush(groups *asset.Store[*AtlasGroup], maxSize MaxAtlasSize, device *wgpu.Device, gpuQueue *wgpu.Queue) {
	defer func() {
		q.pending = q.pending[:0]
	}()
	for _, pending := range q.pending {
		group, err := pending.builder.Build(q.layouter, maxSize, device, gpuQueue)
		if err != nil {
			panic(fmt.Errorf("error during atlas layout: %w", err))
		}
		groups.Replace(pending.id, group)
	}
}
