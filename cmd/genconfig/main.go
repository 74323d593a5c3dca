// Program genconfig writes the standard network configurations to the data directory.
package main

import (
	"flag"
	"fmt"

	"github.com/jnb666/mlbench/nnet"
)

var (
	relu    = nnet.Activation{Atype: "relu"}
	dropout = nnet.Dropout{Ratio: 0.2}
)

func mnistBase() nnet.Config {
	return nnet.Config{
		DataSet:    "mnist",
		Loss:       nnet.CrossEntropy,
		Optimizer:  nnet.Adam,
		Eta:        0.001,
		Shuffle:    true,
		TrainBatch: 128,
		TestBatch:  1000,
		MaxEpoch:   10,
		LogEvery:   1,
		RandSeed:   4826,
	}
}

func solubilityBase() nnet.Config {
	return nnet.Config{
		DataSet:    "solubility",
		Loss:       nnet.MSE,
		Shuffle:    true,
		TrainBatch: 32,
		TestBatch:  256,
		MaxEpoch:   200,
		LogEvery:   50,
		RandSeed:   1234,
	}
}

func configs() map[string]nnet.Config {
	sgd := solubilityBase()
	sgd.Optimizer, sgd.Eta = nnet.SGD, 0.01
	adam := solubilityBase()
	adam.Optimizer, adam.Eta, adam.TrainFrac = nnet.Adam, 0.001, 0.8
	return map[string]nnet.Config{
		"mnist_linear": mnistBase().AddLayers(
			nnet.Linear{Nout: 10},
			nnet.Softmax{},
		),
		"mnist_mlp": mnistBase().AddLayers(
			nnet.Linear{Nout: 100}, relu,
			nnet.Linear{Nout: 10},
			nnet.Softmax{},
		),
		"mnist_dropout": mnistBase().AddLayers(
			nnet.Linear{Nout: 128}, relu, dropout,
			nnet.Linear{Nout: 128}, relu, dropout,
			nnet.Linear{Nout: 10},
			nnet.Softmax{},
		),
		"solubility_linear": sgd.AddLayers(
			nnet.Linear{Nout: 1},
		),
		"solubility_dnn": adam.AddLayers(
			nnet.Linear{Nout: 64}, relu, dropout,
			nnet.Linear{Nout: 64}, relu, dropout,
			nnet.Linear{Nout: 1},
		),
	}
}

func main() {
	flag.StringVar(&nnet.DataDir, "data", nnet.DataDir, "directory for config files")
	flag.Parse()
	for name, conf := range configs() {
		nnet.CheckErr(conf.Validate())
		nnet.CheckErr(conf.Save(name + ".net"))
		nnet.CheckErr(conf.Save(name + ".default"))
		fmt.Printf("== %s ==\n%s\n", name, conf)
	}
}
