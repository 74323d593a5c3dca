// Program solubility benchmarks the regression models on the QSAR aqueous solubility data.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jnb666/mlbench/data"
	"github.com/jnb666/mlbench/estimator"
	"github.com/jnb666/mlbench/history"
	"github.com/jnb666/mlbench/nnet"
	"github.com/jnb666/mlbench/report"
	"github.com/pkg/errors"
	"gonum.org/v1/plot/vg"
)

func main() {
	log.SetFlags(0)
	var (
		dir, plotDir, ledgerFile string
		frac                     float64
		seed                     int64
		epochs, trees            int
	)
	flag.StringVar(&dir, "data", nnet.DataDir, "directory with the solubility arrays")
	flag.StringVar(&plotDir, "plots", "", "directory to write training loss plots")
	flag.StringVar(&ledgerFile, "history", "", "sqlite file to record the runs")
	flag.Float64Var(&frac, "frac", 0.7, "fraction of rows used for training")
	flag.Int64Var(&seed, "seed", 1234, "random number seed for the split")
	flag.IntVar(&epochs, "epochs", 0, "override max epochs for the networks")
	flag.IntVar(&trees, "trees", 100, "number of trees in the random forest")
	flag.Parse()

	q, err := data.LoadQSAR(dir, frac, seed)
	nnet.CheckErr(err)
	fmt.Printf("train: %s\ntest:  %s\n", q.Train, q.Test)

	models := []estimator.Named{
		{Name: "linear regression", Estimator: new(estimator.Linear)},
		{Name: "linear net", Estimator: network("solubility_linear", epochs)},
		{Name: "random forest", Estimator: &estimator.Forest{NTrees: trees, Seed: seed}},
		{Name: "svr", Estimator: estimator.NewSVR(10)},
		{Name: "dropout net", Estimator: network("solubility_dnn", epochs)},
	}
	results, err := estimator.Bench(models, q.Train.X, q.Train.Y, q.Test.X, q.Test.Y)
	nnet.CheckErr(err)
	fmt.Println()
	report.Table(os.Stdout, results)

	if plotDir != "" {
		for _, m := range models {
			if r, ok := m.Estimator.(*nnet.Regressor); ok {
				path := filepath.Join(plotDir, strings.ReplaceAll(m.Name, " ", "_")+"_loss.png")
				nnet.CheckErr(savePlot(r, m.Name, path))
			}
		}
	}
	if ledgerFile != "" {
		ledger, err := history.Open(ledgerFile)
		nnet.CheckErr(err)
		defer ledger.Close()
		for i, res := range results {
			nnet.CheckErr(record(ledger, models[i], res))
		}
		fmt.Printf("recorded %d runs in %s\n", len(results), ledgerFile)
	}
}

// load network config saved by genconfig
func network(name string, epochs int) *nnet.Regressor {
	conf, err := nnet.LoadConfig(name + ".net")
	nnet.CheckErr(errors.Wrap(err, "run genconfig to create the default configs"))
	if epochs > 0 {
		conf.MaxEpoch = epochs
	}
	return nnet.NewRegressor(conf)
}

func savePlot(r *nnet.Regressor, title, path string) error {
	p, err := report.LossPlot(r.History())
	if err != nil {
		return err
	}
	p.Title.Text = title
	return report.Save(p, path, 5*vg.Inch, 3.5*vg.Inch)
}

func record(ledger *history.DB, m estimator.Named, res estimator.Result) error {
	run := history.Run{
		Model:     m.Name,
		Dataset:   "solubility",
		TrainLoss: res.TrainMSE,
		TestLoss:  res.TestMSE,
		Elapsed:   res.Elapsed,
	}
	var conf interface{} = m.Estimator
	if r, ok := m.Estimator.(*nnet.Regressor); ok {
		conf = r.Config
		if h := r.History(); len(h) > 0 {
			run.Epochs = h[len(h)-1].Epoch
		}
	}
	buf, err := json.Marshal(conf)
	if err != nil {
		return err
	}
	run.Config = string(buf)
	_, err = ledger.Add(run)
	return err
}
