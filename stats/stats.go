// Package stats has the evaluation metrics and running statistics used to score trained models.
package stats

import (
	"fmt"
	"html/template"
	"math"
)

// EMA is an exponential moving average with a smoothing window of about N values.
// The first value added is taken as is.
type EMA struct {
	N     float64
	Value float64
	count int
}

// Add updates the average with val and returns the new value.
func (e *EMA) Add(val float64) float64 {
	e.count++
	if e.count == 1 {
		e.Value = val
		return val
	}
	k := 2 / (e.N + 1)
	e.Value = k*val + (1-k)*e.Value
	return e.Value
}

// Average accumulates the mean and sample standard deviation of a series using Welford's
// update, along with the range of values seen.
type Average struct {
	Count    int
	Mean     float64
	StdDev   float64
	Min, Max float64
	m2       float64
}

// Add includes x in the statistics.
func (s *Average) Add(x float64) {
	s.Count++
	if s.Count == 1 {
		s.Mean, s.Min, s.Max, s.m2 = x, x, x, 0
		return
	}
	delta := x - s.Mean
	s.Mean += delta / float64(s.Count)
	s.m2 += delta * (x - s.Mean)
	s.StdDev = math.Sqrt(s.m2 / float64(s.Count-1))
	s.Min, s.Max = math.Min(s.Min, x), math.Max(s.Max, x)
}

func (s *Average) String() string {
	return fmt.Sprintf("%.3f±%.3f (n=%d)", s.Mean, s.StdDev, s.Count)
}

// HTML formats the mean with the spread shown only if it is significant at the displayed
// precision.
func (s *Average) HTML() template.HTML {
	prec := 2
	if math.Abs(s.Mean) > 10 {
		prec = 1
	}
	if s.StdDev < 0.5*math.Pow(10, -float64(prec)) {
		return template.HTML(fmt.Sprintf("%.*f", prec, s.Mean))
	}
	return template.HTML(fmt.Sprintf("%.*f&PlusMinus;%.*f", prec, s.Mean, prec, s.StdDev))
}
