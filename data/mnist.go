package data

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/jnb666/mlbench/img"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	labelMagic = 2049
	imageMagic = 2051
	NumClasses = 10
	maxPixels  = 1 << 20 // upper limit on the size of one image
)

type labelHeader struct{ Magic, Num uint32 }

type imageHeader struct{ Magic, Num, Height, Width uint32 }

// Images is a labelled image data set with each image flattened to one row of pixel values in
// range 0-1.
type Images struct {
	X       *mat.Dense
	Labels  []int32
	Classes int
	Height  int
	Width   int
}

// Len returns the number of images.
func (d *Images) Len() int { return len(d.Labels) }

// Subset returns a copy of the images with the given indexes.
func (d *Images) Subset(idx []int) *Images {
	sub := *d
	sub.X = Rows(d.X, idx)
	sub.Labels = Labels(d.Labels, idx)
	return &sub
}

// Image returns image number i.
func (d *Images) Image(i int) *img.GrayImage {
	return img.FromPixels(d.X.RawRowView(i), d.Width, d.Height)
}

// Thumbnail renders image i, highlighted in red if the predicted class differs from the label.
func (d *Images) Thumbnail(i int, pred int32) image.Image {
	return img.Highlight(d.Image(i), pred >= 0 && pred != d.Labels[i])
}

func (d *Images) String() string {
	return fmt.Sprintf("%d %dx%d images", d.Len(), d.Height, d.Width)
}

// LoadMNIST reads the 60000 training and 10000 test images in IDX format from dir.
func LoadMNIST(dir string) (train, test *Images, err error) {
	if train, err = LoadIDX(dir, "train-images-idx3-ubyte", "train-labels-idx1-ubyte"); err != nil {
		return nil, nil, err
	}
	if test, err = LoadIDX(dir, "t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte"); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// LoadIDX reads one pair of image and label files.
func LoadIDX(dir, imageFile, labelFile string) (*Images, error) {
	labels, err := readLabels(filepath.Join(dir, labelFile))
	if err != nil {
		return nil, err
	}
	d, err := readImages(filepath.Join(dir, imageFile))
	if err != nil {
		return nil, err
	}
	if d.Len() != len(labels) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d images with %d labels", d.Len(), len(labels))
	}
	d.Labels = labels
	d.Classes = NumClasses
	for _, label := range labels {
		if int(label) >= d.Classes {
			return nil, errors.Wrapf(ErrShapeMismatch, "label %d out of range", label)
		}
	}
	return d, nil
}

func readImages(name string) (*Images, error) {
	f, err := Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var head imageHeader
	if err = binary.Read(f, binary.BigEndian, &head); err != nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s: %v", name, err)
	}
	if head.Magic != imageMagic {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s: bad magic number %d", name, head.Magic)
	}
	n, h, w := int(head.Num), int(head.Height), int(head.Width)
	if n == 0 || h == 0 || w == 0 || h*w > maxPixels {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s: invalid header: %d images of %dx%d", name, n, h, w)
	}
	// read one image at a time so a corrupt count fails at end of file rather than allocating
	// storage for images which are not there
	pixels := make([]uint8, h*w)
	data := make([]float64, 0, min(n, 1024)*h*w)
	for i := 0; i < n; i++ {
		if _, err = io.ReadFull(f, pixels); err != nil {
			return nil, errors.Wrapf(ErrDataUnavailable, "%s: image %d of %d: %v", name, i, n, err)
		}
		for _, pix := range pixels {
			data = append(data, float64(pix)/255)
		}
	}
	return &Images{X: mat.NewDense(n, h*w, data), Height: h, Width: w}, nil
}

func readLabels(name string) ([]int32, error) {
	f, err := Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var head labelHeader
	if err = binary.Read(f, binary.BigEndian, &head); err != nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s: %v", name, err)
	}
	if head.Magic != labelMagic {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s: bad magic number %d", name, head.Magic)
	}
	if head.Num == 0 {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s: no labels", name)
	}
	bytes, err := io.ReadAll(io.LimitReader(f, int64(head.Num)))
	if err != nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s: %v", name, err)
	}
	if len(bytes) != int(head.Num) {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s: read %d of %d labels", name, len(bytes), head.Num)
	}
	labels := make([]int32, len(bytes))
	for i, label := range bytes {
		labels[i] = int32(label)
	}
	return labels, nil
}

// WriteIDX saves images and labels in IDX format, compressed if the names end in .gz or .xz.
func WriteIDX(dir, imageFile, labelFile string, d *Images) error {
	f, err := Create(filepath.Join(dir, labelFile))
	if err != nil {
		return err
	}
	head := labelHeader{Magic: labelMagic, Num: uint32(d.Len())}
	bytes := make([]byte, d.Len())
	for i, label := range d.Labels {
		bytes[i] = byte(label)
	}
	if err = writeAll(f, head, bytes); err != nil {
		return err
	}
	if f, err = Create(filepath.Join(dir, imageFile)); err != nil {
		return err
	}
	ihead := imageHeader{Magic: imageMagic, Num: uint32(d.Len()), Height: uint32(d.Height), Width: uint32(d.Width)}
	raw := d.X.RawMatrix()
	pixels := make([]byte, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		for _, v := range d.X.RawRowView(i) {
			pixels = append(pixels, byte(v*255+0.5))
		}
	}
	return writeAll(f, ihead, pixels)
}

func writeAll(f io.WriteCloser, head interface{}, body []byte) error {
	if err := binary.Write(f, binary.BigEndian, head); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
