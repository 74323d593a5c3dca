package estimator

import (
	"log"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is an ordinary least squares linear regression with an intercept term.
type Linear struct {
	Coef      []float64
	Intercept float64
}

// Fit solves for the coefficients which minimise the squared error on the training data.
func (l *Linear) Fit(x mat.Matrix, y []float64) error {
	rows, cols, err := checkDims(x, y)
	if err != nil {
		return err
	}
	A := mat.NewDense(rows, cols+1, nil)
	row := make([]float64, cols+1)
	for i := 0; i < rows; i++ {
		row[0] = 1
		mat.Row(row[1:], i, x)
		A.SetRow(i, row)
	}
	b := mat.NewVecDense(rows, append([]float64{}, y...))
	beta := mat.NewVecDense(cols+1, nil)
	if err = beta.SolveVec(A, b); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return errors.Wrap(err, "linear: least squares solve")
		}
		log.Printf("warning: linear: %v", err)
	}
	l.Intercept = beta.AtVec(0)
	l.Coef = make([]float64, cols)
	for j := range l.Coef {
		l.Coef[j] = beta.AtVec(j + 1)
	}
	return nil
}

func (l *Linear) Predict(x mat.Matrix) ([]float64, error) {
	if l.Coef == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != len(l.Coef) {
		return nil, errors.Wrapf(ErrShapeMismatch, "fitted with %d features, got %d", len(l.Coef), cols)
	}
	pred := make([]float64, rows)
	row := make([]float64, cols)
	for i := range pred {
		pred[i] = l.Intercept + floats.Dot(l.Coef, mat.Row(row, i, x))
	}
	return pred, nil
}
