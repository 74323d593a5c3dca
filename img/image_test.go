package img

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"
)

func printArray(in []float32, width int) string {
	s := make([]string, len(in)/width)
	for i := range s {
		s[i] = fmt.Sprintf("%4.1f", in[i*width:(i+1)*width])
	}
	return strings.Join(s, "\n")
}

func diagonal(size int) []float64 {
	pix := make([]float64, size*size)
	for i := 0; i < size; i++ {
		pix[i*size+i] = 1
	}
	return pix
}

func TestFromPixels(t *testing.T) {
	m := FromPixels(diagonal(4), 4, 4)
	t.Logf("\n%s", printArray(m.Pix, 4))
	if m.GrayAt(2, 2).Y != 1 || m.GrayAt(1, 2).Y != 0 {
		t.Error("pixel layout should be row major")
	}
	m.Set(3, 0, color.White)
	if m.GrayAt(3, 0).Y < 0.99 {
		t.Error("set white failed: got", m.GrayAt(3, 0))
	}
	if m.GrayAt(-1, 0).Y != 0 {
		t.Error("out of bounds should be black")
	}
}

func TestHighlight(t *testing.T) {
	m := FromPixels(diagonal(3), 3, 3)
	plain := Highlight(m, false)
	if c := plain.NRGBAAt(1, 0); c.R != 255 || c.G != 255 {
		t.Error("background should be white, got", c)
	}
	if c := plain.NRGBAAt(1, 1); c.R != 0 || c.G != 0 {
		t.Error("foreground should be black, got", c)
	}
	red := Highlight(m, true)
	if c := red.NRGBAAt(1, 1); c.R != 255 || c.G != 0 {
		t.Error("highlighted pixel should be red, got", c)
	}
}

func TestGrid(t *testing.T) {
	var images []image.Image
	for i := 0; i < 5; i++ {
		images = append(images, FromPixels(diagonal(4), 4, 4))
	}
	g := Grid(images, 3, 1, color.White)
	if b := g.Bounds(); b.Dx() != 3*5+1 || b.Dy() != 2*5+1 {
		t.Error("unexpected grid size", b)
	}
	s := Scale(images[0], 3)
	if b := s.Bounds(); b.Dx() != 12 || b.Dy() != 12 {
		t.Error("unexpected scaled size", b)
	}
}
