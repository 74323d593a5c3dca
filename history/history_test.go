package history

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(path)
	assert.NilError(t, err)

	r, err := db.Add(Run{Model: "linear", Dataset: "qsar", Config: "{}", TrainLoss: 0.5, TestLoss: 0.6, Elapsed: time.Second})
	assert.NilError(t, err)
	assert.Equal(t, r.ID, int64(1))
	assert.Assert(t, !r.Created.IsZero())
	_, err = db.Add(Run{Model: "forest", Dataset: "qsar", Config: "{}", TrainLoss: 0.1, TestLoss: 0.4, Epochs: 0})
	assert.NilError(t, err)
	assert.NilError(t, db.Close())

	// reopen to check runs persist
	db, err = Open(path)
	assert.NilError(t, err)
	defer db.Close()
	runs, err := db.List("")
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 2)
	assert.Equal(t, runs[0].Model, "linear")
	assert.Equal(t, runs[0].Elapsed, time.Second)
	assert.Assert(t, runs[0].Created.Equal(r.Created))

	runs, err = db.List("forest")
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 1)
	assert.Equal(t, runs[0].TestLoss, 0.4)
}

func TestDivergedRun(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	assert.NilError(t, err)
	defer db.Close()
	_, err = db.Add(Run{Model: "net", Dataset: "qsar", Config: "{}", TrainLoss: math.NaN(), TestLoss: math.Inf(1), TestMetric: 0.1, Epochs: 3})
	assert.NilError(t, err)
	runs, err := db.List("net")
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 1)
	assert.Assert(t, math.IsNaN(runs[0].TrainLoss))
	assert.Assert(t, math.IsNaN(runs[0].TestLoss))
	assert.Equal(t, runs[0].TestMetric, 0.1)
	assert.Equal(t, runs[0].Epochs, 3)
}
