package nnet

import (
	"math"

	"github.com/pkg/errors"
)

// OptimizerKind selects the weight update rule.
type OptimizerKind string

const (
	SGD     OptimizerKind = "sgd"
	Adam    OptimizerKind = "adam"
	RMSprop OptimizerKind = "rmsprop"
)

const (
	adamBeta1  = 0.9
	adamBeta2  = 0.999
	rmspropRho = 0.9
	optEpsilon = 1e-8
)

func (k OptimizerKind) parse() (OptimizerKind, error) {
	switch k {
	case SGD, Adam, RMSprop:
		return k, nil
	case "":
		return SGD, nil
	}
	return k, errors.Errorf("unknown optimizer %q", string(k))
}

// OptimizerConfig holds the update rule and its learning rate and L2 weight decay.
type OptimizerConfig struct {
	Kind   OptimizerKind
	Eta    float64
	Lambda float64
}

// optimizer keeps the per parameter state between updates
type optimizer struct {
	OptimizerConfig
	step int
	m, v map[int][]float64
}

func newOptimizer(c OptimizerConfig) (*optimizer, error) {
	var err error
	if c.Kind, err = c.Kind.parse(); err != nil {
		return nil, err
	}
	if c.Eta <= 0 {
		return nil, errors.Errorf("learning rate %g must be positive", c.Eta)
	}
	return &optimizer{OptimizerConfig: c, m: map[int][]float64{}, v: map[int][]float64{}}, nil
}

// start a new batch of updates
func (o *optimizer) next() {
	o.step++
}

// update parameter w with gradient g. id identifies the parameter array across calls and
// decay is set for weights which take L2 regularisation.
func (o *optimizer) update(id int, w, g []float64, decay bool) {
	lambda := 0.0
	if decay {
		lambda = o.Lambda
	}
	switch o.Kind {
	case SGD:
		for i, gv := range g {
			w[i] -= o.Eta * (gv + lambda*w[i])
		}
	case Adam:
		m, v := o.state(id, len(w))
		c1 := 1 - math.Pow(adamBeta1, float64(o.step))
		c2 := 1 - math.Pow(adamBeta2, float64(o.step))
		for i, gv := range g {
			gv += lambda * w[i]
			m[i] = adamBeta1*m[i] + (1-adamBeta1)*gv
			v[i] = adamBeta2*v[i] + (1-adamBeta2)*gv*gv
			w[i] -= o.Eta * (m[i] / c1) / (math.Sqrt(v[i]/c2) + optEpsilon)
		}
	case RMSprop:
		_, v := o.state(id, len(w))
		for i, gv := range g {
			gv += lambda * w[i]
			v[i] = rmspropRho*v[i] + (1-rmspropRho)*gv*gv
			w[i] -= o.Eta * gv / (math.Sqrt(v[i]) + optEpsilon)
		}
	}
}

func (o *optimizer) state(id, n int) (m, v []float64) {
	if o.m[id] == nil {
		o.m[id] = make([]float64, n)
		o.v[id] = make([]float64, n)
	}
	return o.m[id], o.v[id]
}
