// Package estimator has the baseline regression models and a uniform benchmark over anything
// which can be fitted to data and then used to predict.
package estimator

import (
	"fmt"
	"time"

	"github.com/jnb666/mlbench/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// These are the errors returned by the estimators.
var (
	ErrNotFitted     = errors.New("estimator used before Fit")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Estimator is a regression model with one real valued output per row.
// Fit trains the model, Predict is only valid after a successful Fit.
type Estimator interface {
	Fit(x mat.Matrix, y []float64) error
	Predict(x mat.Matrix) ([]float64, error)
}

// Named associates a display name with an estimator.
type Named struct {
	Name string
	Estimator
}

// Result holds the benchmark scores for one estimator.
type Result struct {
	Name     string
	TrainMSE float64
	TestMSE  float64
	Elapsed  time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf("%-20s train MSE=%.3f test MSE=%.3f  (%s)", r.Name, r.TrainMSE, r.TestMSE, r.Elapsed.Round(time.Millisecond))
}

// Bench fits each estimator to the training data and scores it on both partitions.
func Bench(models []Named, xTrain mat.Matrix, yTrain []float64, xTest mat.Matrix, yTest []float64) ([]Result, error) {
	var res []Result
	for _, m := range models {
		start := time.Now()
		if err := m.Fit(xTrain, yTrain); err != nil {
			return res, errors.Wrapf(err, "%s: fit", m.Name)
		}
		r := Result{Name: m.Name, Elapsed: time.Since(start)}
		pred, err := m.Predict(xTrain)
		if err != nil {
			return res, errors.Wrapf(err, "%s: predict", m.Name)
		}
		r.TrainMSE = stats.MSE(pred, yTrain)
		if pred, err = m.Predict(xTest); err != nil {
			return res, errors.Wrapf(err, "%s: predict", m.Name)
		}
		r.TestMSE = stats.MSE(pred, yTest)
		res = append(res, r)
	}
	return res, nil
}

func checkDims(x mat.Matrix, y []float64) (rows, cols int, err error) {
	rows, cols = x.Dims()
	if rows != len(y) {
		return rows, cols, errors.Wrapf(ErrShapeMismatch, "%d rows with %d targets", rows, len(y))
	}
	if rows == 0 {
		return rows, cols, errors.Wrap(ErrShapeMismatch, "no training data")
	}
	return rows, cols, nil
}
