package texture

import (
	"errors"
	"fmt"
	"slices"

	"github.com/EliiasG/modula/common"
)

// ErrDoesNotFit is returned when images cannot be packed within the atlas
// size limits.
var ErrDoesNotFit = errors.New("images do not fit within the atlas size limits")

// DefaultLayouter packs subtextures onto shelves. It first searches for the
// smallest single-layer square atlas that fits everything; if even the
// largest square is not enough, it grows the number of layers at maximum
// size instead, splitting them into as many atlases as the layer limit
// demands.
type DefaultLayouter struct{}

var _ Layouter = DefaultLayouter{}

// Layout implements Layouter.
func (DefaultLayouter) Layout(sizes []Size, maxSize MaxAtlasSize) (LayouterOutput, error) {
	output, err := common.SearchSmallest(1, int(maxSize.MaxWidthHeight), func(wh int) (LayouterOutput, error) {
		return packShelves(sizes, uint32(wh), 1, 1)
	})
	if err == nil {
		return output, nil
	}
	return common.SearchUpward(1, func(layers int) (LayouterOutput, error) {
		return packShelves(sizes, maxSize.MaxWidthHeight, maxSize.MaxLayers, uint32(layers))
	})
}

// packShelves places the sizes onto rows of wh by wh layers, at most layers
// in total, and splits the result into atlases of at most maxDepth layers
// each. Placement order is tallest first so each shelf is opened by its
// tallest member; the stable sort keeps equal sizes in insertion order.
func packShelves(sizes []Size, wh, maxDepth, layers uint32) (LayouterOutput, error) {
	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if sizes[a].Height != sizes[b].Height {
			return int(sizes[b].Height) - int(sizes[a].Height)
		}
		return int(sizes[b].Width) - int(sizes[a].Width)
	})

	layout := make([]SubTexture, len(sizes))
	var (
		layer       uint32
		shelfTop    uint32
		shelfHeight uint32
		cursorX     uint32
	)
	for _, index := range order {
		size := sizes[index]
		if size.Width > wh || size.Height > wh {
			return LayouterOutput{}, fmt.Errorf("%w: image %dx%d exceeds %dx%d", ErrDoesNotFit, size.Width, size.Height, wh, wh)
		}
		if cursorX+size.Width > wh {
			shelfTop += shelfHeight
			shelfHeight = 0
			cursorX = 0
		}
		if shelfTop+size.Height > wh {
			layer++
			shelfTop = 0
			shelfHeight = 0
			cursorX = 0
		}
		if layer >= layers {
			return LayouterOutput{}, fmt.Errorf("%w: not enough room in %d layers of %dx%d", ErrDoesNotFit, layers, wh, wh)
		}
		layout[index] = SubTexture{
			Layer:  layer,
			X:      cursorX,
			Y:      shelfTop,
			Width:  size.Width,
			Height: size.Height,
		}
		cursorX += size.Width
		shelfHeight = max(shelfHeight, size.Height)
	}

	atlasCount := common.DivCeil(layers, maxDepth)
	atlases := make([]AtlasPlan, atlasCount)
	for i := range atlases {
		depth := maxDepth
		if i == int(atlasCount)-1 {
			// the last atlas holds only the layers that remain
			depth = layers - maxDepth*(atlasCount-1)
		}
		atlases[i] = AtlasPlan{Width: wh, Height: wh, Layers: depth}
	}

	entryMap := make([]EntryLocation, len(layout))
	for i, subTexture := range layout {
		atlasIndex := int(subTexture.Layer / maxDepth)
		subTexture.Layer %= maxDepth
		atlases[atlasIndex].Layout = append(atlases[atlasIndex].Layout, subTexture)
		entryMap[i] = EntryLocation{Atlas: atlasIndex, SubTexture: len(atlases[atlasIndex].Layout) - 1}
	}
	return LayouterOutput{EntryMap: entryMap, Atlases: atlases}, nil
}
