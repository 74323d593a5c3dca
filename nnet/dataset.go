package nnet

import (
	"fmt"
	"math/rand"

	"github.com/jnb666/mlbench/num"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dataset type encapsulates a set of training, test or validation data split into batches.
type Dataset struct {
	X         *mat.Dense
	Y         *mat.Dense // targets, one hot encoded for classification
	Labels    []int32    // class labels, nil for regression
	Samples   int
	BatchSize int
	Batches   int
	indexes   []int
	x, y      *mat.Dense
}

// NewDataset creates a regression dataset with one row of targets per sample.
// A batchSize of 0 uses the whole set as a single batch.
func NewDataset(x, y *mat.Dense, batchSize int) (*Dataset, error) {
	rows, _ := x.Dims()
	if yr, _ := y.Dims(); yr != rows {
		return nil, errors.Errorf("dataset: %d input rows but %d target rows", rows, yr)
	}
	if rows == 0 {
		return nil, errors.New("dataset: no samples")
	}
	d := &Dataset{X: x, Y: y, Samples: rows}
	if batchSize <= 0 || batchSize > d.Samples {
		d.BatchSize = d.Samples
	} else {
		d.BatchSize = batchSize
	}
	d.Batches = d.Samples / d.BatchSize
	if d.Samples%d.BatchSize != 0 {
		d.Batches++
	}
	d.indexes = make([]int, d.Samples)
	for i := range d.indexes {
		d.indexes[i] = i
	}
	return d, nil
}

// NewClassDataset creates a classification dataset with the labels one hot encoded.
func NewClassDataset(x *mat.Dense, labels []int32, classes, batchSize int) (*Dataset, error) {
	for _, l := range labels {
		if l < 0 || int(l) >= classes {
			return nil, errors.Errorf("dataset: label %d out of range for %d classes", l, classes)
		}
	}
	if len(labels) == 0 {
		return nil, errors.New("dataset: no samples")
	}
	d, err := NewDataset(x, num.Onehot(labels, classes), batchSize)
	if err != nil {
		return nil, err
	}
	d.Labels = labels
	return d, nil
}

// Classes returns the number of output classes, or 0 for a regression dataset.
func (d *Dataset) Classes() int {
	if d.Labels == nil {
		return 0
	}
	_, cols := d.Y.Dims()
	return cols
}

// Shuffle the sample order using the given random source.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.indexes), func(i, j int) {
		d.indexes[i], d.indexes[j] = d.indexes[j], d.indexes[i]
	})
}

// Index returns the sample indexes for the given batch in the current order.
func (d *Dataset) Index(batch int) []int {
	start := batch * d.BatchSize
	end := start + d.BatchSize
	if end > d.Samples {
		end = d.Samples
	}
	return d.indexes[start:end]
}

// GetBatch gathers the input and target rows for the given batch. The returned matrices are
// reused on the next call.
func (d *Dataset) GetBatch(batch int) (x, y *mat.Dense) {
	idx := d.Index(batch)
	_, xc := d.X.Dims()
	_, yc := d.Y.Dims()
	d.x = num.Reuse(d.x, len(idx), xc)
	d.y = num.Reuse(d.y, len(idx), yc)
	for i, ix := range idx {
		d.x.SetRow(i, d.X.RawRowView(ix))
		d.y.SetRow(i, d.Y.RawRowView(ix))
	}
	return d.x, d.y
}

func (d *Dataset) String() string {
	_, cols := d.X.Dims()
	return fmt.Sprintf("%d samples x %d features, %d batches of %d", d.Samples, cols, d.Batches, d.BatchSize)
}
