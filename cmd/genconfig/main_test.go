package main

import (
	"testing"

	"github.com/jnb666/mlbench/nnet"
	"gotest.tools/assert"
)

func TestConfigs(t *testing.T) {
	widths := map[string]int{"mnist": 784, "solubility": 228}
	for name, conf := range configs() {
		assert.NilError(t, conf.Validate(), name)
		net, err := nnet.New(conf, widths[conf.DataSet])
		assert.NilError(t, err, name)
		if conf.DataSet == "mnist" {
			assert.Equal(t, net.OutWidth(), 10, name)
			assert.Assert(t, net.Softmax(), name)
		} else {
			assert.Equal(t, net.OutWidth(), 1, name)
		}
	}
}
