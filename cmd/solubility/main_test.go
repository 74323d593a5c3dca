package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jnb666/mlbench/estimator"
	"github.com/jnb666/mlbench/history"
	"github.com/jnb666/mlbench/nnet"
	"gotest.tools/assert"
)

func TestRecord(t *testing.T) {
	ledger, err := history.Open(filepath.Join(t.TempDir(), "runs.db"))
	assert.NilError(t, err)
	defer ledger.Close()

	forest := estimator.Named{Name: "random forest", Estimator: &estimator.Forest{NTrees: 10, Seed: 1}}
	net := estimator.Named{Name: "linear net", Estimator: nnet.NewRegressor(nnet.Config{Eta: 0.1})}
	assert.NilError(t, record(ledger, forest, estimator.Result{Name: forest.Name, TrainMSE: 0.5, TestMSE: 0.75, Elapsed: time.Second}))
	assert.NilError(t, record(ledger, net, estimator.Result{Name: net.Name, TrainMSE: 1, TestMSE: 1.5}))

	runs, err := ledger.List("random forest")
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 1)
	assert.Equal(t, runs[0].Dataset, "solubility")
	assert.Equal(t, runs[0].TestLoss, 0.75)
	assert.Assert(t, runs[0].Config != "")

	runs, err = ledger.List("linear net")
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 1)
	assert.Equal(t, runs[0].Epochs, 0)
}
