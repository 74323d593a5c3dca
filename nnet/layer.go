package nnet

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/jnb666/mlbench/num"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Layer interface type represents one layer of the neural net.
// Fprop and Bprop work on a batch with one sample per row.
type Layer interface {
	Init(nIn int, rng *rand.Rand) (nOut int, err error)
	Fprop(in *mat.Dense, train bool) *mat.Dense
	Bprop(grad *mat.Dense) *mat.Dense
	ToString() string
}

// ParamLayer is a layer with weight and bias parameters
type ParamLayer interface {
	Layer
	InitParams(scale float64, normal bool, rng *rand.Rand)
	Params() (W *mat.Dense, B []float64)
	ParamGrads() (dW *mat.Dense, dB []float64)
	SetParams(W *mat.Dense, B []float64)
}

// Layer configuration details
type LayerConfig struct {
	Type string
	Data json.RawMessage
}

type ConfigLayer interface {
	Marshal() LayerConfig
}

// Unmarshal JSON data and construct new layer
func (l LayerConfig) Unmarshal() (Layer, error) {
	switch l.Type {
	case "linear":
		cfg := new(Linear)
		return cfg.unmarshal(l.Data)
	case "activation":
		cfg := new(Activation)
		return cfg.unmarshal(l.Data)
	case "dropout":
		cfg := new(Dropout)
		return cfg.unmarshal(l.Data)
	case "softmax":
		return &softmax{}, nil
	default:
		return nil, errors.Errorf("invalid layer type: %q", l.Type)
	}
}

func (l LayerConfig) String() string {
	layer, err := l.Unmarshal()
	if err != nil {
		return err.Error()
	}
	return layer.ToString()
}

// Linear fully connected layer, implements ParamLayer interface.
type Linear struct {
	Nout int
}

func (c Linear) Marshal() LayerConfig {
	return LayerConfig{Type: "linear", Data: marshal(c)}
}

func (c Linear) ToString() string {
	return fmt.Sprintf("linear %+v", c)
}

func (c *Linear) unmarshal(data json.RawMessage) (Layer, error) {
	if err := unmarshal(data, c); err != nil {
		return nil, err
	}
	if c.Nout <= 0 {
		return nil, errors.Errorf("linear: output width %d must be positive", c.Nout)
	}
	return &linear{Linear: *c}, nil
}

// Relu or identity activation layer.
type Activation struct {
	Atype string
}

func (c Activation) Marshal() LayerConfig {
	return LayerConfig{Type: "activation", Data: marshal(c)}
}

func (c Activation) ToString() string {
	return fmt.Sprintf("activation %+v", c)
}

func (c *Activation) unmarshal(data json.RawMessage) (Layer, error) {
	if err := unmarshal(data, c); err != nil {
		return nil, err
	}
	switch c.Atype {
	case "relu", "none", "":
		return &activation{Activation: *c}, nil
	}
	return nil, errors.Errorf("activation type %q invalid", c.Atype)
}

// Dropout layer zeros a fraction Ratio of its inputs while training.
type Dropout struct {
	Ratio float64
}

func (c Dropout) Marshal() LayerConfig {
	return LayerConfig{Type: "dropout", Data: marshal(c)}
}

func (c Dropout) ToString() string {
	return fmt.Sprintf("dropout %+v", c)
}

func (c *Dropout) unmarshal(data json.RawMessage) (Layer, error) {
	if err := unmarshal(data, c); err != nil {
		return nil, err
	}
	if c.Ratio < 0 || c.Ratio >= 1 {
		return nil, errors.Errorf("dropout: ratio %g outside [0,1)", c.Ratio)
	}
	return &dropout{Dropout: *c}, nil
}

// Softmax output layer. Must be the last layer and used with the cross entropy loss.
type Softmax struct{}

func (c Softmax) Marshal() LayerConfig {
	return LayerConfig{Type: "softmax"}
}

// linear layer implementation
type linear struct {
	Linear
	paramBase
	nIn     int
	in      *mat.Dense
	out, dx *mat.Dense
}

func (l *linear) Init(nIn int, rng *rand.Rand) (int, error) {
	l.nIn = nIn
	l.paramBase = newParams(nIn, l.Nout)
	return l.Nout, nil
}

// out = in * W + B
func (l *linear) Fprop(in *mat.Dense, train bool) *mat.Dense {
	rows, _ := in.Dims()
	l.in = in
	l.out = num.Reuse(l.out, rows, l.Nout)
	l.out.Mul(in, l.W)
	num.AddBias(l.out, l.B)
	return l.out
}

func (l *linear) Bprop(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()
	l.dW.Mul(l.in.T(), grad)
	num.SumRows(l.dB, grad)
	l.dx = num.Reuse(l.dx, rows, l.nIn)
	l.dx.Mul(grad, l.W.T())
	return l.dx
}

// activation layer implementation
type activation struct {
	Activation
	in, out, dx *mat.Dense
}

func (l *activation) Init(nIn int, rng *rand.Rand) (int, error) {
	return nIn, nil
}

func (l *activation) Fprop(in *mat.Dense, train bool) *mat.Dense {
	if l.Atype != "relu" {
		return in
	}
	rows, cols := in.Dims()
	l.in = in
	l.out = num.Reuse(l.out, rows, cols)
	num.Relu(l.out, in)
	return l.out
}

func (l *activation) Bprop(grad *mat.Dense) *mat.Dense {
	if l.Atype != "relu" {
		return grad
	}
	rows, cols := grad.Dims()
	l.dx = num.Reuse(l.dx, rows, cols)
	num.ReluD(l.dx, l.in, grad)
	return l.dx
}

// inverted dropout: survivors are scaled by 1/(1-ratio) so inference is the identity
type dropout struct {
	Dropout
	rng     *rand.Rand
	mask    *mat.Dense
	out, dx *mat.Dense
	active  bool
}

func (l *dropout) Init(nIn int, rng *rand.Rand) (int, error) {
	l.rng = rng
	return nIn, nil
}

func (l *dropout) Fprop(in *mat.Dense, train bool) *mat.Dense {
	l.active = train && l.Ratio > 0
	if !l.active {
		return in
	}
	rows, cols := in.Dims()
	l.mask = num.Reuse(l.mask, rows, cols)
	scale := 1 / (1 - l.Ratio)
	mask := l.mask.RawMatrix().Data
	for i := range mask {
		if l.rng.Float64() < l.Ratio {
			mask[i] = 0
		} else {
			mask[i] = scale
		}
	}
	l.out = num.Reuse(l.out, rows, cols)
	l.out.MulElem(in, l.mask)
	return l.out
}

func (l *dropout) Bprop(grad *mat.Dense) *mat.Dense {
	if !l.active {
		return grad
	}
	rows, cols := grad.Dims()
	l.dx = num.Reuse(l.dx, rows, cols)
	l.dx.MulElem(grad, l.mask)
	return l.dx
}

// softmax layer implementation. The gradient of softmax combined with cross entropy loss is
// computed by the loss function so Bprop passes it through.
type softmax struct {
	out *mat.Dense
}

func (l *softmax) ToString() string { return "softmax" }

func (l *softmax) Init(nIn int, rng *rand.Rand) (int, error) {
	if nIn < 2 {
		return 0, errors.Errorf("softmax: needs at least 2 inputs, got %d", nIn)
	}
	return nIn, nil
}

func (l *softmax) Fprop(in *mat.Dense, train bool) *mat.Dense {
	rows, cols := in.Dims()
	l.out = num.Reuse(l.out, rows, cols)
	num.Softmax(l.out, in)
	return l.out
}

func (l *softmax) Bprop(grad *mat.Dense) *mat.Dense {
	return grad
}

// weight and bias arrays with their gradients
type paramBase struct {
	W, dW *mat.Dense
	B, dB []float64
}

func newParams(nIn, nOut int) paramBase {
	return paramBase{
		W:  mat.NewDense(nIn, nOut, nil),
		dW: mat.NewDense(nIn, nOut, nil),
		B:  make([]float64, nOut),
		dB: make([]float64, nOut),
	}
}

func (p *paramBase) Params() (W *mat.Dense, B []float64) {
	return p.W, p.B
}

func (p *paramBase) ParamGrads() (dW *mat.Dense, dB []float64) {
	return p.dW, p.dB
}

// Weights are drawn from a normal or uniform distribution scaled by scale, bias is zero.
func (p *paramBase) InitParams(scale float64, normal bool, rng *rand.Rand) {
	w := p.W.RawMatrix().Data
	for i := range w {
		if normal {
			w[i] = scale * rng.NormFloat64()
		} else {
			w[i] = scale * math.Sqrt(3) * (2*rng.Float64() - 1)
		}
	}
	for i := range p.B {
		p.B[i] = 0
	}
}

func (p *paramBase) SetParams(W *mat.Dense, B []float64) {
	p.W.Copy(W)
	copy(p.B, B)
}

func marshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func unmarshal(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, v), "layer config")
}
