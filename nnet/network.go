// Package nnet contains routines for constructing, training and testing neural networks.
package nnet

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jnb666/mlbench/num"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Network type represents a multilayer feed forward neural network model.
type Network struct {
	Config
	Layers []Layer
	nIn    int
	nOut   int
	rng    *rand.Rand
}

// New function creates a new network with the given layers taking nIn input features.
// Weights are initialised from a random source seeded with conf.RandSeed.
func New(conf Config, nIn int) (*Network, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if nIn <= 0 {
		return nil, errors.Errorf("input width %d must be positive", nIn)
	}
	n := &Network{Config: conf, nIn: nIn, rng: SetSeed(conf.RandSeed)}
	width := nIn
	for i, l := range conf.Layers {
		layer, err := l.Unmarshal()
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		if _, ok := layer.(*softmax); ok && i != len(conf.Layers)-1 {
			return nil, errors.Errorf("layer %d: softmax must be the output layer", i)
		}
		if width, err = layer.Init(width, n.rng); err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		n.Layers = append(n.Layers, layer)
	}
	n.nOut = width
	n.InitWeights()
	return n, nil
}

// Initialise network weights using a uniform or normal distribution.
// Weights for each layer are scaled by 1/sqrt(nin)
func (n *Network) InitWeights() {
	width := n.nIn
	for _, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			l.InitParams(1/math.Sqrt(float64(width)), n.NormalWeights, n.rng)
			W, _ := l.Params()
			_, width = W.Dims()
		}
	}
	if n.DebugLevel >= 2 {
		n.PrintWeights()
	}
}

// InWidth is the number of input features.
func (n *Network) InWidth() int { return n.nIn }

// OutWidth is the number of outputs per sample, fixed when the network is built.
func (n *Network) OutWidth() int { return n.nOut }

// Softmax reports if the output layer is a softmax classifier.
func (n *Network) Softmax() bool {
	_, ok := n.Layers[len(n.Layers)-1].(*softmax)
	return ok
}

// Copy weights and bias arrays to destination net
func (n *Network) CopyTo(net *Network) {
	for i, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			W, B := l.Params()
			net.Layers[i].(ParamLayer).SetParams(W, B)
		}
	}
}

// Feed forward the input to get the predicted output. Dropout is only applied if train is set.
// The returned matrix is owned by the output layer and overwritten by the next call.
func (n *Network) Fprop(input *mat.Dense, train bool) *mat.Dense {
	pred := input
	for i, layer := range n.Layers {
		if n.DebugLevel >= 3 {
			fmt.Printf("layer %d input\n%s", i, num.String(pred))
		}
		pred = layer.Fprop(pred, train)
	}
	return pred
}

// Back propagate the gradient at the output, setting the parameter gradients for each layer.
func (n *Network) Bprop(grad *mat.Dense) {
	for i := len(n.Layers) - 1; i >= 0; i-- {
		grad = n.Layers[i].Bprop(grad)
		if n.DebugLevel >= 3 {
			fmt.Printf("layer %d bprop output:\n%s", i, num.String(grad))
		}
	}
}

// Print network description
func (n *Network) String() string {
	s := make([]string, len(n.Layers))
	width := n.nIn
	for i, layer := range n.Layers {
		s[i] = fmt.Sprintf("%2d: %-25s [%d]", i, layer.ToString(), width)
		if l, ok := layer.(ParamLayer); ok {
			W, _ := l.Params()
			_, width = W.Dims()
		}
	}
	settings := n.Config
	settings.Layers = nil
	return fmt.Sprintf("%s\n== Network ==\n%s", settings, strings.Join(s, "\n"))
}

// Print network weights
func (n *Network) PrintWeights() {
	for i, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			W, B := l.Params()
			fmt.Printf("== Layer %d weights ==\n%s%v\n", i, num.String(W), B)
		}
	}
}

// Set random number seed, or random seed if seed <= 0
func SetSeed(seed int64) *rand.Rand {
	if seed <= 0 {
		seed = time.Now().UTC().UnixNano()
		fmt.Println("random seed =", seed)
	}
	return rand.New(rand.NewSource(seed))
}

// Exit in case of error
func CheckErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
