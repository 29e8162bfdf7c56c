// Package bitmap holds reconstructed display images as packed ARGB pixels.
package bitmap

import (
	"image"
	"image/color"
)

// Bitmap is a row-major image of packed 0xAARRGGBB pixels
type Bitmap struct {
	Width  int
	Height int
	Data   []uint32
}

// New creates a fully transparent bitmap of the given size
func New(width, height int) *Bitmap {
	return &Bitmap{
		Width:  width,
		Height: height,
		Data:   make([]uint32, width*height),
	}
}

// PackRGB converts channels in [0, 1] to an opaque packed pixel
func PackRGB(r, g, b float64) uint32 {
	return 0xFF000000 | channel8(r)<<16 | channel8(g)<<8 | channel8(b)
}

func channel8(c float64) uint32 {
	return uint32(255*c + .5)
}

// Unpack splits a packed pixel into its 8-bit channels
func Unpack(argb uint32) (a, r, g, b uint8) {
	return uint8(argb >> 24), uint8(argb >> 16), uint8(argb >> 8), uint8(argb)
}

// SetPixel stores a packed pixel. Out of range coordinates are ignored.
func (b *Bitmap) SetPixel(x, y int, argb uint32) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	b.Data[y*b.Width+x] = argb
}

// Pixel returns the packed pixel at (x, y)
func (b *Bitmap) Pixel(x, y int) uint32 {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0
	}
	return b.Data[y*b.Width+x]
}

// Clone returns a deep copy of the bitmap
func (b *Bitmap) Clone() *Bitmap {
	c := &Bitmap{Width: b.Width, Height: b.Height, Data: make([]uint32, len(b.Data))}
	copy(c.Data, b.Data)
	return c
}

func (b *Bitmap) ColorModel() color.Model {
	return color.NRGBAModel
}

func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

func (b *Bitmap) At(x, y int) color.Color {
	a, r, g, bl := Unpack(b.Pixel(x, y))
	return color.NRGBA{R: r, G: g, B: bl, A: a}
}

// ToRGBA converts the bitmap to a standard library image
func (b *Bitmap) ToRGBA() *image.RGBA {
	img := image.NewRGBA(b.Bounds())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			a, r, g, bl := Unpack(b.Data[y*b.Width+x])
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bl, A: a})
		}
	}
	return img
}
