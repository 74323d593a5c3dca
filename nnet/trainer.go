package nnet

import (
	"fmt"
	"log"
	"time"

	"github.com/jnb666/mlbench/num"
	"github.com/jnb666/mlbench/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidLossForTask = errors.New("loss or metric does not match network output")
	ErrNotCompiled        = errors.New("network must be compiled first")
	ErrTraining           = errors.New("training in progress")
)

// State of the trainer.
type State int

const (
	Uninitialized State = iota
	Compiled
	Training
	Evaluated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Compiled:
		return "compiled"
	case Training:
		return "training"
	case Evaluated:
		return "evaluated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Training statistics for one epoch
type Stats struct {
	Epoch       int
	TrainLoss   float64
	ValidLoss   float64
	ValidMetric float64
	Valid       bool
	Elapsed     time.Duration
}

// StatsHeaders returns the column names for Format.
func StatsHeaders(metric bool) []string {
	h := []string{"loss", "valid loss"}
	if metric {
		h = append(h, "valid acc")
	}
	return h
}

func (s Stats) Format(metric bool) []string {
	str := []string{fmt.Sprintf("%7.4f", s.TrainLoss), fmt.Sprintf("%7.4f", s.ValidLoss)}
	if metric {
		str = append(str, fmt.Sprintf("%6.2f%%", s.ValidMetric*100))
	}
	return str
}

// History is the per epoch training record, appended to while training.
type History []Stats

func (h History) TrainLoss() []float64 {
	return h.series(func(s Stats) float64 { return s.TrainLoss })
}

func (h History) ValidLoss() []float64 {
	return h.series(func(s Stats) float64 { return s.ValidLoss })
}

func (h History) ValidMetric() []float64 {
	return h.series(func(s Stats) float64 { return s.ValidMetric })
}

// Smoothed returns the exponential moving average of the validation loss over n epochs.
func (h History) Smoothed(n float64) []float64 {
	res := make([]float64, len(h))
	avg := stats.EMA{N: n}
	for i, s := range h {
		res[i] = avg.Add(s.ValidLoss)
	}
	return res
}

func (h History) series(get func(Stats) float64) []float64 {
	res := make([]float64, len(h))
	for i, s := range h {
		res[i] = get(s)
	}
	return res
}

// Score is the loss and optional accuracy on a dataset.
type Score struct {
	Loss      float64
	Metric    float64
	HasMetric bool
}

func (s Score) String() string {
	if s.HasMetric {
		return fmt.Sprintf("loss=%.4f accuracy=%.2f%%", s.Loss, s.Metric*100)
	}
	return fmt.Sprintf("loss=%.4f", s.Loss)
}

// Tester interface is called after each epoch, Test method returns true if training should be
// interrupted.
type Tester interface {
	Test(t *Trainer, s Stats) bool
}

type testLogger struct{}

// Create a new tester which logs stats to stdout every LogEvery epochs.
func NewTestLogger() Tester {
	return testLogger{}
}

func (testLogger) Test(t *Trainer, s Stats) bool {
	every := t.Net.LogEvery
	if every == 0 || s.Epoch%every == 0 || s.Epoch == t.epochs {
		msg := fmt.Sprintf("epoch %3d:", s.Epoch)
		hdr := StatsHeaders(t.metric)
		vals := s.Format(t.metric)
		if !s.Valid {
			vals = vals[:1]
		}
		for i, val := range vals {
			msg += fmt.Sprintf("  %s =%s", hdr[i], val)
		}
		fmt.Println(msg)
	}
	if s.Epoch == t.epochs {
		fmt.Printf("run time: %s\n", s.Elapsed.Round(10*time.Millisecond))
	}
	return false
}

// Trainer compiles, trains and evaluates a network.
type Trainer struct {
	Net     *Network
	State   State
	Loss    LossKind
	Opt     OptimizerConfig
	Tester  Tester
	History History
	metric  bool
	epochs  int
	opt     *optimizer
	grad    *mat.Dense
}

// NewTrainer returns an uncompiled trainer for the network which logs progress to stdout.
func NewTrainer(net *Network) *Trainer {
	return &Trainer{Net: net, Tester: NewTestLogger()}
}

// Compile sets the loss function, optimizer and tracked metrics. Cross entropy needs a softmax
// output with at least two classes, mean squared error needs a non softmax output.
func (t *Trainer) Compile(loss LossKind, opt OptimizerConfig, metrics ...Metric) error {
	if t.State == Training {
		return ErrTraining
	}
	loss, err := loss.parse()
	if err != nil {
		return err
	}
	softmax := t.Net.Softmax()
	switch {
	case loss == CrossEntropy && (!softmax || t.Net.OutWidth() < 2):
		return errors.Wrapf(ErrInvalidLossForTask, "%s with %d output", loss, t.Net.OutWidth())
	case loss == MSE && softmax:
		return errors.Wrapf(ErrInvalidLossForTask, "%s with softmax output", loss)
	}
	t.metric = false
	for _, m := range metrics {
		if m != Accuracy {
			return errors.Errorf("unknown metric %q", string(m))
		}
		if !softmax {
			return errors.Wrap(ErrInvalidLossForTask, "accuracy needs a classifier")
		}
		t.metric = true
	}
	if t.opt, err = newOptimizer(opt); err != nil {
		return err
	}
	t.Loss, t.Opt = loss, t.opt.OptimizerConfig
	t.State = Compiled
	return nil
}

// Fit trains the network for the given number of epochs. Each epoch makes one pass of
// mini-batch updates over train and then scores valid, which may be nil. There is no early
// stopping: only the Tester can cut the run short.
func (t *Trainer) Fit(train, valid *Dataset, epochs int) (History, error) {
	switch t.State {
	case Uninitialized:
		return nil, ErrNotCompiled
	case Training:
		return nil, ErrTraining
	}
	if epochs <= 0 {
		return nil, errors.Errorf("epochs %d must be positive", epochs)
	}
	if err := t.checkData(train); err != nil {
		return nil, errors.Wrap(err, "train")
	}
	if valid != nil {
		if err := t.checkData(valid); err != nil {
			return nil, errors.Wrap(err, "valid")
		}
	}
	t.State = Training
	defer func() { t.State = Compiled }()
	t.epochs = epochs
	t.History = nil
	start := time.Now()
	for epoch := 1; epoch <= epochs; epoch++ {
		s := Stats{Epoch: epoch, TrainLoss: t.trainEpoch(train)}
		if !num.Finite(s.TrainLoss) {
			log.Printf("warning: training diverged at epoch %d: loss=%g", epoch, s.TrainLoss)
		}
		if valid != nil {
			score := t.score(valid)
			s.Valid = true
			s.ValidLoss, s.ValidMetric = score.Loss, score.Metric
		}
		s.Elapsed = time.Since(start)
		t.History = append(t.History, s)
		if t.Tester != nil && t.Tester.Test(t, s) {
			break
		}
	}
	return t.History, nil
}

// Perform one training epoch on dataset, returns the mean loss over the batches.
func (t *Trainer) trainEpoch(dset *Dataset) float64 {
	net := t.Net
	if net.Shuffle {
		dset.Shuffle(net.rng)
	}
	total := 0.0
	for batch := 0; batch < dset.Batches; batch++ {
		x, y := dset.GetBatch(batch)
		yPred := net.Fprop(x, true)
		rows, cols := yPred.Dims()
		t.grad = num.Reuse(t.grad, rows, cols)
		loss := t.Loss.Loss(yPred, y, t.grad)
		total += loss * float64(rows)
		if net.DebugLevel >= 2 || (net.DebugLevel == 1 && batch == 0) {
			fmt.Printf("== train batch %d == loss=%.4f\n", batch, loss)
		}
		net.Bprop(t.grad)
		t.opt.next()
		for i, layer := range net.Layers {
			if l, ok := layer.(ParamLayer); ok {
				W, B := l.Params()
				dW, dB := l.ParamGrads()
				t.opt.update(2*i, W.RawMatrix().Data, dW.RawMatrix().Data, true)
				t.opt.update(2*i+1, B, dB, false)
			}
		}
	}
	if net.DebugLevel >= 2 {
		net.PrintWeights()
	}
	return total / float64(dset.Samples)
}

// Evaluate returns the loss and metric on the dataset without changing the weights.
func (t *Trainer) Evaluate(d *Dataset) (Score, error) {
	switch t.State {
	case Uninitialized:
		return Score{}, ErrNotCompiled
	case Training:
		return Score{}, ErrTraining
	}
	if err := t.checkData(d); err != nil {
		return Score{}, err
	}
	score := t.score(d)
	t.State = Evaluated
	return score, nil
}

func (t *Trainer) score(d *Dataset) Score {
	s := Score{HasMetric: t.metric}
	correct := 0
	for batch := 0; batch < d.Batches; batch++ {
		x, y := d.GetBatch(batch)
		yPred := t.Net.Fprop(x, false)
		rows, _ := yPred.Dims()
		s.Loss += t.Loss.Loss(yPred, y, nil) * float64(rows)
		if t.metric {
			correct += accuracy(yPred, y)
		}
	}
	s.Loss /= float64(d.Samples)
	s.Metric = float64(correct) / float64(d.Samples)
	return s
}

// Predict returns the network output for each row of x.
func (t *Trainer) Predict(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != t.Net.InWidth() {
		return nil, errors.Errorf("predict: input has %d features, network expects %d", cols, t.Net.InWidth())
	}
	if rows == 0 {
		return nil, errors.New("predict: no input rows")
	}
	batch := t.Net.TestBatch
	if batch <= 0 || batch > rows {
		batch = rows
	}
	out := mat.NewDense(rows, t.Net.OutWidth(), nil)
	for start := 0; start < rows; start += batch {
		end := start + batch
		if end > rows {
			end = rows
		}
		pred := t.Net.Fprop(x.Slice(start, end, 0, cols).(*mat.Dense), false)
		out.Slice(start, end, 0, t.Net.OutWidth()).(*mat.Dense).Copy(pred)
	}
	return out, nil
}

// Classes returns the predicted class for each row of x. Ties go to the lowest class index.
func (t *Trainer) Classes(x *mat.Dense) ([]int32, error) {
	if !t.Net.Softmax() {
		return nil, errors.Wrap(ErrInvalidLossForTask, "classes needs a softmax output")
	}
	pred, err := t.Predict(x)
	if err != nil {
		return nil, err
	}
	return num.Unhot(pred, nil), nil
}

func (t *Trainer) checkData(d *Dataset) error {
	_, xc := d.X.Dims()
	_, yc := d.Y.Dims()
	if xc != t.Net.InWidth() || yc != t.Net.OutWidth() {
		return errors.Errorf("data shape %d->%d does not match network %d->%d", xc, yc, t.Net.InWidth(), t.Net.OutWidth())
	}
	return nil
}
