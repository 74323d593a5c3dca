package estimator

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SVR is an epsilon insensitive support vector regressor with a radial basis function kernel.
// The dual problem is solved by coordinate descent with the bias term folded into the kernel,
// so the model is f(x) = sum_i beta_i (k(x_i, x) + 1).
type SVR struct {
	C       float64 // box constraint, default 1
	Epsilon float64 // width of the insensitive tube, 0 fits every point, NewSVR sets 0.1
	Gamma   float64 // kernel width, default 1/(features * variance of x)
	MaxIter int     // maximum passes over the data, default 1000
	Tol     float64 // stop when no coefficient changes by more than this, default 1e-4
	Iter    int     // passes used by the last fit
	sv      *mat.Dense
	beta    []float64
	gamma   float64
}

// NewSVR returns a regressor with box constraint c and the usual tube width of 0.1.
func NewSVR(c float64) *SVR {
	return &SVR{C: c, Epsilon: 0.1}
}

// solver settings for one fit with the defaults filled in
type svrParams struct {
	c, eps, tol float64
	maxIter     int
}

func (s *SVR) params(x mat.Matrix) svrParams {
	p := svrParams{c: s.C, eps: math.Max(s.Epsilon, 0), tol: s.Tol, maxIter: s.MaxIter}
	if p.c <= 0 {
		p.c = 1
	}
	if p.maxIter <= 0 {
		p.maxIter = 1000
	}
	if p.tol <= 0 {
		p.tol = 1e-4
	}
	s.gamma = s.Gamma
	if s.gamma <= 0 {
		rows, cols := x.Dims()
		vals := make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			vals = append(vals, mat.Row(nil, i, x)...)
		}
		if v := stat.PopVariance(vals, nil); v > 0 {
			s.gamma = 1 / (float64(cols) * v)
		} else {
			s.gamma = 1 / float64(cols)
		}
	}
	return p
}

// Fit computes the dual coefficients. Memory use is quadratic in the number of rows.
func (s *SVR) Fit(x mat.Matrix, y []float64) error {
	rows, _, err := checkDims(x, y)
	if err != nil {
		return err
	}
	p := s.params(x)
	xd := mat.DenseCopyOf(x)
	K := make([][]float64, rows)
	for i := range K {
		K[i] = make([]float64, rows)
		for j := 0; j <= i; j++ {
			K[i][j] = s.kernel(xd.RawRowView(i), xd.RawRowView(j)) + 1
			K[j][i] = K[i][j]
		}
	}
	beta := make([]float64, rows)
	f := make([]float64, rows) // f = K beta
	for s.Iter = 1; s.Iter <= p.maxIter; s.Iter++ {
		maxDelta := 0.0
		for i := range beta {
			qii := K[i][i]
			z := beta[i] - (f[i]-y[i])/qii
			b := clip(softThreshold(z, p.eps/qii), p.c)
			if delta := b - beta[i]; delta != 0 {
				for k, kv := range K[i] {
					f[k] += delta * kv
				}
				beta[i] = b
				maxDelta = math.Max(maxDelta, math.Abs(delta))
			}
		}
		if maxDelta < p.tol {
			break
		}
	}
	// keep the support vectors only
	var idx []int
	s.beta = nil
	for i, b := range beta {
		if b != 0 {
			idx = append(idx, i)
			s.beta = append(s.beta, b)
		}
	}
	_, cols := xd.Dims()
	s.sv = mat.NewDense(max(len(idx), 1), cols, nil)
	for i, ix := range idx {
		s.sv.SetRow(i, xd.RawRowView(ix))
	}
	if s.beta == nil {
		s.beta = []float64{0}
	}
	return nil
}

// Support returns the number of support vectors.
func (s *SVR) Support() int {
	n := 0
	for _, b := range s.beta {
		if b != 0 {
			n++
		}
	}
	return n
}

func (s *SVR) Predict(x mat.Matrix) ([]float64, error) {
	if s.sv == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if _, c := s.sv.Dims(); c != cols {
		return nil, errors.Wrapf(ErrShapeMismatch, "fitted with %d features, got %d", c, cols)
	}
	pred := make([]float64, rows)
	row := make([]float64, cols)
	for i := range pred {
		mat.Row(row, i, x)
		for k, b := range s.beta {
			pred[i] += b * (s.kernel(s.sv.RawRowView(k), row) + 1)
		}
	}
	return pred, nil
}

func (s *SVR) kernel(a, b []float64) float64 {
	d := 0.0
	for i, v := range a {
		d += (v - b[i]) * (v - b[i])
	}
	return math.Exp(-s.gamma * d)
}

func softThreshold(z, t float64) float64 {
	switch {
	case z > t:
		return z - t
	case z < -t:
		return z + t
	}
	return 0
}

func clip(x, c float64) float64 {
	return math.Max(-c, math.Min(c, x))
}
