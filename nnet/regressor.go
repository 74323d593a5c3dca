package nnet

import (
	"github.com/jnb666/mlbench/data"
	"github.com/jnb666/mlbench/estimator"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Regressor trains a network with a single output so it can be benchmarked alongside the
// baseline estimators. If TrainFrac is between 0 and 1 that fraction of the rows passed to Fit
// is used for training and the rest for validation.
type Regressor struct {
	Config
	Trainer *Trainer
	Tester  Tester
}

// NewRegressor returns a regressor using the given network config.
func NewRegressor(conf Config) *Regressor {
	return &Regressor{Config: conf, Tester: NewTestLogger()}
}

// Fit builds a fresh network and trains it for MaxEpoch epochs.
func (r *Regressor) Fit(x mat.Matrix, y []float64) error {
	rows, cols := x.Dims()
	if rows != len(y) || rows == 0 {
		return errors.Errorf("regressor: %d rows with %d targets", rows, len(y))
	}
	net, err := New(r.Config, cols)
	if err != nil {
		return err
	}
	if net.OutWidth() != 1 {
		return errors.Wrapf(ErrInvalidLossForTask, "regressor needs 1 output, got %d", net.OutWidth())
	}
	t := NewTrainer(net)
	t.Tester = r.Tester
	opt := OptimizerConfig{Kind: r.Optimizer, Eta: r.Eta, Lambda: r.Lambda}
	if err = t.Compile(r.Loss, opt); err != nil {
		return err
	}
	X := mat.DenseCopyOf(x)
	Y := mat.NewDense(rows, 1, append([]float64{}, y...))
	var train, valid *Dataset
	if r.TrainFrac > 0 && r.TrainFrac < 1 {
		trainIx, validIx, err := data.Split(rows, r.TrainFrac, r.RandSeed)
		if err != nil {
			return err
		}
		if train, err = NewDataset(data.Rows(X, trainIx), data.Rows(Y, trainIx), r.TrainBatch); err != nil {
			return err
		}
		if len(validIx) > 0 {
			if valid, err = NewDataset(data.Rows(X, validIx), data.Rows(Y, validIx), r.TestBatch); err != nil {
				return err
			}
		}
	} else if train, err = NewDataset(X, Y, r.TrainBatch); err != nil {
		return err
	}
	epochs := r.MaxEpoch
	if epochs <= 0 {
		epochs = 1
	}
	if _, err = t.Fit(train, valid, epochs); err != nil {
		return err
	}
	r.Trainer = t
	return nil
}

// Predict returns the network output for each row.
func (r *Regressor) Predict(x mat.Matrix) ([]float64, error) {
	if r.Trainer == nil {
		return nil, estimator.ErrNotFitted
	}
	pred, err := r.Trainer.Predict(mat.DenseCopyOf(x))
	if err != nil {
		return nil, err
	}
	return mat.Col(nil, 0, pred), nil
}

// History returns the training history from the last Fit.
func (r *Regressor) History() History {
	if r.Trainer == nil {
		return nil
	}
	return r.Trainer.History
}
