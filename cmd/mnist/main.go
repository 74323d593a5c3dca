// Program mnist trains and compares the fully connected digit classifiers.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jnb666/mlbench/data"
	"github.com/jnb666/mlbench/history"
	"github.com/jnb666/mlbench/nnet"
	"github.com/jnb666/mlbench/report"
	"github.com/jnb666/mlbench/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/plot/vg"
)

var defaultModels = []string{"mnist_linear", "mnist_mlp", "mnist_dropout"}

// command line overrides, zero values keep the config setting
type overrides struct {
	eta, lambda float64
	epochs      int
	batch       int
	seed        int64
	debug       int
}

func (o overrides) apply(conf nnet.Config) nnet.Config {
	if o.eta > 0 {
		conf.Eta = o.eta
	}
	if o.lambda > 0 {
		conf.Lambda = o.lambda
	}
	if o.epochs > 0 {
		conf.MaxEpoch = o.epochs
	}
	if o.batch > 0 {
		conf.TrainBatch = o.batch
	}
	if o.seed != 0 {
		conf.RandSeed = o.seed
	}
	if o.debug > 0 {
		conf.DebugLevel = o.debug
	}
	return conf
}

func main() {
	log.SetFlags(0)
	var (
		dir, plotDir, ledgerFile string
		frac                     float64
		seed                     int64
		opts                     overrides
	)
	flag.StringVar(&dir, "data", nnet.DataDir, "directory with the MNIST IDX files")
	flag.StringVar(&plotDir, "plots", "", "directory to write plots and misclassified images")
	flag.StringVar(&ledgerFile, "history", "", "sqlite file to record the runs")
	flag.Float64Var(&frac, "frac", 0.8, "fraction of the training pool used for training")
	flag.Int64Var(&seed, "split", 4826, "random number seed for the train / validation split")
	flag.Float64Var(&opts.eta, "eta", 0, "learning rate")
	flag.Float64Var(&opts.lambda, "lambda", 0, "weight decay parameter")
	flag.IntVar(&opts.epochs, "epochs", 0, "max epochs")
	flag.IntVar(&opts.batch, "batch", 0, "train batch size")
	flag.Int64Var(&opts.seed, "seed", 0, "random number seed for weights and shuffling")
	flag.IntVar(&opts.debug, "debug", 0, "debug logging level")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: mnist [opts] [model...]")
		flag.PrintDefaults()
	}
	flag.Parse()
	models := flag.Args()
	if len(models) == 0 {
		models = defaultModels
	}

	d, err := data.LoadMNISTSplit(dir, frac, seed)
	nnet.CheckErr(err)
	fmt.Printf("train: %s\nvalid: %s\ntest:  %s\n", d.Train, d.Valid, d.Test)

	var ledger *history.DB
	if ledgerFile != "" {
		ledger, err = history.Open(ledgerFile)
		nnet.CheckErr(err)
		defer ledger.Close()
	}
	for _, model := range models {
		fmt.Printf("\n== %s ==\n", model)
		conf, err := nnet.LoadConfig(model + ".net")
		nnet.CheckErr(errors.Wrap(err, "run genconfig to create the default configs"))
		res, err := run(opts.apply(conf), d)
		nnet.CheckErr(err)
		fmt.Printf("test set: %s\n", res.score)
		report.PrintConfusion(os.Stdout, res.confusion)
		if plotDir != "" {
			nnet.CheckErr(res.save(filepath.Join(plotDir, model)))
		}
		if ledger != nil {
			nnet.CheckErr(res.record(ledger, model))
		}
	}
}

type result struct {
	conf      nnet.Config
	hist      nnet.History
	score     nnet.Score
	pred      []int32
	test      *data.Images
	confusion *stats.Confusion
	elapsed   time.Duration
}

// train a new network and score it on the test set
func run(conf nnet.Config, d *data.MNIST) (*result, error) {
	_, cols := d.Train.X.Dims()
	net, err := nnet.New(conf, cols)
	if err != nil {
		return nil, err
	}
	fmt.Println(net)
	t := nnet.NewTrainer(net)
	opt := nnet.OptimizerConfig{Kind: conf.Optimizer, Eta: conf.Eta, Lambda: conf.Lambda}
	if err = t.Compile(conf.Loss, opt, nnet.Accuracy); err != nil {
		return nil, err
	}
	train, err := nnet.NewClassDataset(d.Train.X, d.Train.Labels, d.Train.Classes, conf.TrainBatch)
	if err != nil {
		return nil, err
	}
	valid, err := nnet.NewClassDataset(d.Valid.X, d.Valid.Labels, d.Valid.Classes, conf.TestBatch)
	if err != nil {
		return nil, err
	}
	test, err := nnet.NewClassDataset(d.Test.X, d.Test.Labels, d.Test.Classes, conf.TestBatch)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res := &result{conf: conf, test: d.Test}
	if res.hist, err = t.Fit(train, valid, conf.MaxEpoch); err != nil {
		return nil, err
	}
	res.elapsed = time.Since(start)
	if conf.DebugLevel >= 1 {
		report.PrintHistory(os.Stdout, res.hist, true)
	}
	if res.score, err = t.Evaluate(test); err != nil {
		return nil, err
	}
	if res.pred, err = t.Classes(d.Test.X); err != nil {
		return nil, err
	}
	res.confusion, err = stats.ConfusionMatrix(d.Test.Classes, d.Test.Labels, res.pred)
	return res, err
}

// write the plots and misclassified examples with the given path prefix
func (r *result) save(prefix string) error {
	p, err := report.LossPlot(r.hist)
	if err != nil {
		return err
	}
	if err = report.Save(p, prefix+"_loss.png", 5*vg.Inch, 3.5*vg.Inch); err != nil {
		return err
	}
	if p, err = report.AccuracyPlot(r.hist); err != nil {
		return err
	}
	if err = report.Save(p, prefix+"_accuracy.png", 5*vg.Inch, 3.5*vg.Inch); err != nil {
		return err
	}
	if p, err = report.ConfusionPlot(r.confusion); err != nil {
		return err
	}
	if err = report.Save(p, prefix+"_confusion.png", 5*vg.Inch, 5*vg.Inch); err != nil {
		return err
	}
	m, idx, err := report.Misclassified(r.test, r.pred, 50, 10)
	if err != nil {
		return err
	}
	fmt.Printf("first misclassified test images: %v\n", idx)
	return report.SaveImage(m, prefix+"_errors.png")
}

func (r *result) record(ledger *history.DB, model string) error {
	conf, err := json.Marshal(r.conf)
	if err != nil {
		return err
	}
	run := history.Run{
		Model:      model,
		Dataset:    "mnist",
		Config:     string(conf),
		TestLoss:   r.score.Loss,
		TestMetric: r.score.Metric,
		Epochs:     len(r.hist),
		Elapsed:    r.elapsed,
	}
	if len(r.hist) > 0 {
		run.TrainLoss = r.hist[len(r.hist)-1].TrainLoss
	}
	_, err = ledger.Add(run)
	return err
}
