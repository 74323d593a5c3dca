package nnet

import (
	"math"

	"github.com/jnb666/mlbench/num"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// LossKind selects the training loss function.
type LossKind string

const (
	MSE          LossKind = "mse"
	CrossEntropy LossKind = "crossentropy"
)

// probabilities are clamped to this before taking the log
const minProb = 1e-12

func (k LossKind) parse() (LossKind, error) {
	switch k {
	case MSE, CrossEntropy:
		return k, nil
	case "":
		return MSE, nil
	}
	return k, errors.Errorf("unknown loss %q", string(k))
}

// Loss returns the mean loss over the batch. If grad is not nil it is set to the derivative of
// the loss with respect to the network output. For cross entropy this is the gradient with
// respect to the softmax input.
func (k LossKind) Loss(pred, target, grad *mat.Dense) float64 {
	rows, cols := pred.Dims()
	p, t := pred.RawMatrix(), target.RawMatrix()
	var g blas64.General
	if grad != nil {
		g = grad.RawMatrix()
	}
	sum := 0.0
	switch k {
	case CrossEntropy:
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				pv, tv := p.Data[i*p.Stride+j], t.Data[i*t.Stride+j]
				if tv != 0 {
					sum -= tv * math.Log(math.Max(pv, minProb))
				}
				if grad != nil {
					g.Data[i*g.Stride+j] = (pv - tv) / float64(rows)
				}
			}
		}
		return sum / float64(rows)
	default:
		n := float64(rows * cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				d := p.Data[i*p.Stride+j] - t.Data[i*t.Stride+j]
				sum += d * d
				if grad != nil {
					g.Data[i*g.Stride+j] = 2 * d / n
				}
			}
		}
		return sum / n
	}
}

// Metric is an extra score tracked during training.
type Metric string

const Accuracy Metric = "accuracy"

// accuracy is the fraction of rows where the most likely class matches the one hot target.
func accuracy(pred, target *mat.Dense) (correct int) {
	p, t := pred.RawMatrix(), target.RawMatrix()
	for i := 0; i < p.Rows; i++ {
		prow := p.Data[i*p.Stride : i*p.Stride+p.Cols]
		trow := t.Data[i*t.Stride : i*t.Stride+t.Cols]
		if num.Argmax(prow) == num.Argmax(trow) {
			correct++
		}
	}
	return correct
}
