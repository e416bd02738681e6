// Package texture loads image data onto the GPU: decode, mip chains, a
// deferred upload queue flushed before drawing, and atlas packing for many
// small images.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  uint32
	Height uint32
}

// Image is decoded RGBA pixel data, not a GPU resource. It sits between
// image files and textures.
type Image struct {
	// Data holds 4 bytes per pixel in row-major order.
	Data   []byte
	Width  uint32
	Height uint32
}

// DecodeImage decodes PNG or JPEG file data into RGBA pixels.
//
// Parameters:
//   - data: the raw file bytes.
//
// Returns:
//   - Image: the decoded image.
//   - error: an error if decoding fails.
func DecodeImage(data []byte) (Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return fromImage(img), nil
}

// LoadImage reads and decodes an image file.
//
// Parameters:
//   - path: the file to read.
//
// Returns:
//   - Image: the decoded image.
//   - error: an error if reading or decoding fails.
func LoadImage(path string) (Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image file %s: %w", path, err)
	}
	return fromImage(img), nil
}

func fromImage(img image.Image) Image {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return Image{
		Data:   rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}

// Size returns the image dimensions.
//
// Returns:
//   - Size: the width and height in pixels.
func (i Image) Size() Size {
	return Size{Width: i.Width, Height: i.Height}
}

// ToMipMap wraps the image as the base of a mip chain with the given number
// of levels, the rest to be generated.
//
// Parameters:
//   - levelCount: the total number of mip levels.
//
// Returns:
//   - MipMapImage: the mip chain.
func (i Image) ToMipMap(levelCount int) MipMapImage {
	return MipMapFromBase(i, levelCount)
}

// rgba views the pixel data as an image.RGBA without copying.
func (i Image) rgba() *image.RGBA {
	return &image.RGBA{
		Pix:    i.Data,
		Stride: int(4 * i.Width),
		Rect:   image.Rect(0, 0, int(i.Width), int(i.Height)),
	}
}
