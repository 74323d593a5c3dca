package data

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minStdDev is the threshold below which a feature column is treated as constant.
const minStdDev = 1e-12

// Scaler standardises each feature column to zero mean and unit variance using the mean and
// population standard deviation of the data passed to Fit.
type Scaler struct {
	Mean       []float64
	StdDev     []float64
	Degenerate []int // columns with zero variance, scaled by 1
	Strict     bool  // if set Fit returns a DegenerateFeatureError for constant columns
	fitted     bool
}

// Fit computes the column statistics. Constant columns get a standard deviation of 1 so that
// Transform only centres them.
func (s *Scaler) Fit(x mat.Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return errors.Wrap(ErrShapeMismatch, "scaler: no rows to fit")
	}
	s.Mean = make([]float64, cols)
	s.StdDev = make([]float64, cols)
	s.Degenerate = nil
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		s.Mean[j], s.StdDev[j] = stat.PopMeanStdDev(col, nil)
		if s.StdDev[j] < minStdDev {
			s.StdDev[j] = 1
			s.Degenerate = append(s.Degenerate, j)
		}
	}
	s.fitted = true
	if s.Strict && len(s.Degenerate) > 0 {
		return &DegenerateFeatureError{Columns: s.Degenerate}
	}
	return nil
}

// Transform applies (x - mean) / stddev to each column, returning a new matrix.
func (s *Scaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != len(s.Mean) {
		return nil, errors.Wrapf(ErrShapeMismatch, "scaler fitted with %d columns, got %d", len(s.Mean), cols)
	}
	res := mat.NewDense(rows, cols, nil)
	res.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.StdDev[j]
	}, x)
	return res, nil
}

// FitTransform fits the scaler to x and returns the transformed data.
func (s *Scaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
