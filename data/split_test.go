package data

import (
	"math"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func checkPartition(t *testing.T, n int, train, test []int) {
	t.Helper()
	all := append(append([]int{}, train...), test...)
	sort.Ints(all)
	assert.Equal(t, len(all), n)
	for i, ix := range all {
		if ix != i {
			t.Fatalf("partitions not disjoint and exhaustive: index %d at position %d", ix, i)
		}
	}
}

func TestSplitSizes(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 100, 1001} {
		for _, frac := range []float64{0.01, 0.25, 0.5, 0.7, 0.8, 0.99} {
			train, test, err := Split(n, frac, 42)
			assert.NilError(t, err)
			ntrain := int(math.Round(float64(n) * frac))
			assert.Equal(t, len(train), ntrain)
			assert.Equal(t, len(test), n-ntrain)
			checkPartition(t, n, train, test)
		}
	}
}

func TestSplitRounds(t *testing.T) {
	for _, c := range []struct {
		n      int
		frac   float64
		ntrain int
	}{{100, 0.29, 29}, {10, 0.75, 8}, {10, 0.74, 7}, {3, 0.5, 2}} {
		train, test, err := Split(c.n, c.frac, 1)
		assert.NilError(t, err)
		assert.Equal(t, len(train), c.ntrain, "n=%d frac=%g", c.n, c.frac)
		checkPartition(t, c.n, train, test)
	}
}

func TestSplitDeterministic(t *testing.T) {
	a1, b1, _ := Split(500, 0.7, 1234)
	a2, b2, _ := Split(500, 0.7, 1234)
	assert.DeepEqual(t, a1, a2)
	assert.DeepEqual(t, b1, b2)
	a3, _, _ := Split(500, 0.7, 1235)
	assert.Assert(t, !equal(a1, a3), "different seeds should give different splits")
}

func TestSplitInvalidFraction(t *testing.T) {
	for _, frac := range []float64{0, 1, -0.5, 1.5} {
		_, _, err := Split(10, frac, 1)
		assert.Assert(t, errors.Cause(err) == ErrInvalidFraction, "frac=%g err=%v", frac, err)
	}
}

func TestSplitQSAR(t *testing.T) {
	train, test, err := Split(1142, 0.7, 1234)
	assert.NilError(t, err)
	assert.Equal(t, len(train), 799)
	assert.Equal(t, len(test), 343)
	checkPartition(t, 1142, train, test)
}

func TestSplitMNIST(t *testing.T) {
	train, valid, err := Split(60000, 0.8, 4826)
	assert.NilError(t, err)
	assert.Equal(t, len(train), 48000)
	assert.Equal(t, len(valid), 12000)
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
