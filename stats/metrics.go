package stats

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// MSE returns the mean of the squared differences between pred and truth.
func MSE(pred, truth []float64) float64 {
	if len(pred) != len(truth) {
		panic("MSE: length mismatch")
	}
	if len(pred) == 0 {
		return 0
	}
	sum := 0.0
	for i, p := range pred {
		d := p - truth[i]
		sum += d * d
	}
	return sum / float64(len(pred))
}

// Accuracy returns the fraction of predicted classes which match the true class.
func Accuracy(pred, truth []int32) float64 {
	if len(pred) != len(truth) {
		panic("Accuracy: length mismatch")
	}
	if len(pred) == 0 {
		return 0
	}
	n := 0
	for i, p := range pred {
		if p == truth[i] {
			n++
		}
	}
	return float64(n) / float64(len(pred))
}

// Confusion matrix with Counts[i][j] = number of samples with true class i predicted as class j.
type Confusion struct {
	Classes []string
	Counts  [][]int
}

// ConfusionMatrix tallies the true versus predicted classes for k classes.
func ConfusionMatrix(k int, truth, pred []int32) (*Confusion, error) {
	if len(truth) != len(pred) {
		return nil, errors.Errorf("confusion matrix: %d labels but %d predictions", len(truth), len(pred))
	}
	c := &Confusion{Classes: make([]string, k), Counts: make([][]int, k)}
	for i := range c.Counts {
		c.Classes[i] = fmt.Sprint(i)
		c.Counts[i] = make([]int, k)
	}
	for i, t := range truth {
		p := pred[i]
		if t < 0 || int(t) >= k || p < 0 || int(p) >= k {
			return nil, errors.Errorf("confusion matrix: class out of range at row %d: %d => %d", i, t, p)
		}
		c.Counts[t][p]++
	}
	return c, nil
}

// RowSums returns the number of samples of each true class.
func (c *Confusion) RowSums() []int {
	sums := make([]int, len(c.Counts))
	for i, row := range c.Counts {
		for _, n := range row {
			sums[i] += n
		}
	}
	return sums
}

// Trace returns the number of correct predictions.
func (c *Confusion) Trace() int {
	n := 0
	for i := range c.Counts {
		n += c.Counts[i][i]
	}
	return n
}

// Total returns the number of samples.
func (c *Confusion) Total() int {
	n := 0
	for _, s := range c.RowSums() {
		n += s
	}
	return n
}

func (c *Confusion) Accuracy() float64 {
	if total := c.Total(); total > 0 {
		return float64(c.Trace()) / float64(total)
	}
	return 0
}

func (c *Confusion) String() string {
	s := []string{"true\\pred" + cells(c.Classes)}
	for i, row := range c.Counts {
		str := make([]string, len(row))
		for j, n := range row {
			str[j] = fmt.Sprint(n)
		}
		s = append(s, fmt.Sprintf("%9s", c.Classes[i])+cells(str))
	}
	return strings.Join(s, "\n")
}

func cells(vals []string) string {
	var s string
	for _, v := range vals {
		s += fmt.Sprintf(" %5s", v)
	}
	return s
}
