// Package img contains routines for rendering rows of pixel data as images.
package img

import (
	"image"
	"image/color"
	"image/draw"
)

// GrayModel converts any color to a Gray value.
var GrayModel = color.ModelFunc(grayModel)

// Gray color stored a float in range 0-1
type Gray struct {
	Y float32
}

func (c Gray) RGBA() (r, g, b, a uint32) {
	y := clampu(c.Y, 0, 1)
	return y, y, y, 0xffff
}

func grayModel(c color.Color) color.Color {
	if _, ok := c.(Gray); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return Gray{Y: 0.299*float32(r)/0xffff + 0.587*float32(g)/0xffff + 0.114*float32(b)/0xffff}
}

// GrayImage type stores the image data as float32 values in row major order.
type GrayImage struct {
	Pix    []float32
	Height int
	Width  int
}

func NewGray(width, height int) *GrayImage {
	return &GrayImage{Pix: make([]float32, height*width), Height: height, Width: width}
}

// FromPixels creates an image from a flattened row of pixel intensities in range 0-1.
func FromPixels(pix []float64, width, height int) *GrayImage {
	if len(pix) != width*height {
		panic("FromPixels: pixel count does not match image size")
	}
	m := NewGray(width, height)
	for i, v := range pix {
		m.Pix[i] = float32(v)
	}
	return m
}

func (m *GrayImage) ColorModel() color.Model {
	return GrayModel
}

func (m *GrayImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func (m *GrayImage) GrayAt(x, y int) Gray {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return Gray{}
	}
	return Gray{Y: m.Pix[x+y*m.Width]}
}

func (m *GrayImage) At(x, y int) color.Color {
	return m.GrayAt(x, y)
}

func (m *GrayImage) Set(x, y int, c color.Color) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	m.Pix[x+y*m.Width] = grayModel(c).(Gray).Y
}

// Highlight inverts a monochrome image to dark on light and adds a red tint if on is set.
func Highlight(in *GrayImage, on bool) *image.NRGBA {
	dst := image.NewNRGBA(in.Bounds())
	for y := 0; y < in.Height; y++ {
		for x := 0; x < in.Width; x++ {
			v := uint8(clampu(1-in.GrayAt(x, y).Y, 0, 1) >> 8)
			col := color.NRGBA{R: v, G: v, B: v, A: 255}
			if on {
				col.R = 255
			}
			dst.SetNRGBA(x, y, col)
		}
	}
	return dst
}

// Scale enlarges an image by an integer factor using nearest neighbour sampling.
func Scale(src image.Image, factor int) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	for y := 0; y < dst.Bounds().Dy(); y++ {
		for x := 0; x < dst.Bounds().Dx(); x++ {
			dst.Set(x, y, src.At(b.Min.X+x/factor, b.Min.Y+y/factor))
		}
	}
	return dst
}

// Grid tiles the images in rows of cols images with a border of pad pixels.
func Grid(images []image.Image, cols, pad int, bg color.Color) *image.NRGBA {
	if len(images) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	if cols > len(images) {
		cols = len(images)
	}
	rows := (len(images) + cols - 1) / cols
	cell := images[0].Bounds()
	w, h := cell.Dx()+pad, cell.Dy()+pad
	dst := image.NewNRGBA(image.Rect(0, 0, cols*w+pad, rows*h+pad))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	for i, m := range images {
		x, y := pad+(i%cols)*w, pad+(i/cols)*h
		draw.Draw(dst, image.Rect(x, y, x+cell.Dx(), y+cell.Dy()), m, m.Bounds().Min, draw.Src)
	}
	return dst
}

func clampu(x, x0, x1 float32) uint32 {
	return uint32(clamp(x, x0, x1) * 0xffff)
}

func clamp(x, x0, x1 float32) float32 {
	if x < x0 {
		return x0
	}
	if x > x1 {
		return x1
	}
	return x
}
