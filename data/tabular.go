package data

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Default file names for the solubility data set.
const (
	QSARFeatures = "solubility_X.npy"
	QSARLabels   = "solubility_y.npy"
)

// Tabular data set with one row of descriptor values per sample and one real valued target.
type Tabular struct {
	X *mat.Dense
	Y []float64
}

// Len returns the number of samples.
func (t *Tabular) Len() int { return len(t.Y) }

// Features returns the number of feature columns.
func (t *Tabular) Features() int {
	_, c := t.X.Dims()
	return c
}

// Subset returns a copy of the rows with the given indexes.
func (t *Tabular) Subset(idx []int) *Tabular {
	return &Tabular{X: Rows(t.X, idx), Y: Values(t.Y, idx)}
}

func (t *Tabular) String() string {
	return fmt.Sprintf("%d samples x %d features", t.Len(), t.Features())
}

// LoadTabular reads the feature and label arrays in NumPy .npy format from dir.
func LoadTabular(dir, featFile, labelFile string) (*Tabular, error) {
	shape, xdata, err := readNpy(filepath.Join(dir, featFile))
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "%s: expected 2 dimensional array, got shape %v", featFile, shape)
	}
	lshape, ydata, err := readNpy(filepath.Join(dir, labelFile))
	if err != nil {
		return nil, err
	}
	if len(ydata) != shape[0] || len(lshape) > 2 || (len(lshape) == 2 && lshape[1] != 1) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%v features with %v labels", shape, lshape)
	}
	return &Tabular{X: mat.NewDense(shape[0], shape[1], xdata), Y: ydata}, nil
}

// SaveTabular writes the feature and label arrays in NumPy .npy format to dir.
func SaveTabular(dir, featFile, labelFile string, t *Tabular) error {
	if err := writeNpy(filepath.Join(dir, featFile), t.X); err != nil {
		return err
	}
	return writeNpy(filepath.Join(dir, labelFile), t.Y)
}

func readNpy(name string) (shape []int, data []float64, err error) {
	f, err := Open(name)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrDataUnavailable, "%s: %v", name, err)
	}
	shape = r.Header.Descr.Shape
	switch r.Header.Descr.Type {
	case "<f8":
		err = r.Read(&data)
	case "<f4":
		var vals []float32
		if err = r.Read(&vals); err == nil {
			data = make([]float64, len(vals))
			for i, v := range vals {
				data[i] = float64(v)
			}
		}
	case "<i8":
		var vals []int64
		if err = r.Read(&vals); err == nil {
			data = make([]float64, len(vals))
			for i, v := range vals {
				data[i] = float64(v)
			}
		}
	case "<i4":
		var vals []int32
		if err = r.Read(&vals); err == nil {
			data = make([]float64, len(vals))
			for i, v := range vals {
				data[i] = float64(v)
			}
		}
	default:
		return nil, nil, errors.Wrapf(ErrDataUnavailable, "%s: unsupported dtype %q", name, r.Header.Descr.Type)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(ErrDataUnavailable, "%s: %v", name, err)
	}
	if r.Header.Descr.Fortran && len(shape) == 2 {
		data = transpose(data, shape[0], shape[1])
	}
	return shape, data, nil
}

// column major to row major
func transpose(data []float64, rows, cols int) []float64 {
	res := make([]float64, len(data))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			res[i*cols+j] = data[j*rows+i]
		}
	}
	return res
}

func writeNpy(name string, val interface{}) error {
	f, err := Create(name)
	if err != nil {
		return err
	}
	if err = npyio.Write(f, val); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	return f.Close()
}
