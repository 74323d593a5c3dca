package num

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const eps = 1e-9

func TestOnehot(t *testing.T) {
	y := Onehot([]int32{2, 0, 1}, 3)
	expect := []float64{0, 0, 1, 1, 0, 0, 0, 1, 0}
	if res := y.RawMatrix().Data; !reflect.DeepEqual(res, expect) {
		t.Error("got", res, "expect", expect)
	}
}

func TestUnhot(t *testing.T) {
	y := mat.NewDense(3, 3, []float64{
		0.1, 0.7, 0.2,
		0.4, 0.4, 0.2,
		0.3, 0.3, 0.3,
	})
	res := Unhot(y, nil)
	expect := []int32{1, 0, 0}
	if !reflect.DeepEqual(res, expect) {
		t.Error("got", res, "expect", expect)
	}
}

func TestArgmaxTie(t *testing.T) {
	if ix := Argmax([]float64{1, 3, 3, 2}); ix != 1 {
		t.Error("tie should pick first max: got", ix)
	}
}

func TestSoftmax(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 1000, 1000, 1000})
	y := mat.NewDense(2, 3, nil)
	Softmax(y, x)
	t.Logf("softmax\n%s", String(y))
	for i := 0; i < 2; i++ {
		if sum := mat.Sum(y.RowView(i)); math.Abs(sum-1) > eps {
			t.Errorf("row %d sums to %g", i, sum)
		}
	}
	if math.Abs(y.At(1, 0)-1.0/3) > eps {
		t.Error("expect uniform row for equal inputs, got", y.At(1, 0))
	}
	if !(y.At(0, 2) > y.At(0, 1) && y.At(0, 1) > y.At(0, 0)) {
		t.Error("softmax should preserve ordering")
	}
}

func TestRelu(t *testing.T) {
	x := mat.NewDense(1, 4, []float64{-1, 0, 0.5, 2})
	y := mat.NewDense(1, 4, nil)
	Relu(y, x)
	expect := []float64{0, 0, 0.5, 2}
	if res := y.RawMatrix().Data; !reflect.DeepEqual(res, expect) {
		t.Error("got", res, "expect", expect)
	}
	grad := mat.NewDense(1, 4, []float64{1, 1, 1, 1})
	dx := mat.NewDense(1, 4, nil)
	ReluD(dx, x, grad)
	expect = []float64{0, 0, 1, 1}
	if res := dx.RawMatrix().Data; !reflect.DeepEqual(res, expect) {
		t.Error("got", res, "expect", expect)
	}
}

func TestBias(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	AddBias(m, []float64{10, 20})
	expect := []float64{11, 22, 13, 24}
	if res := m.RawMatrix().Data; !reflect.DeepEqual(res, expect) {
		t.Error("got", res, "expect", expect)
	}
	sum := make([]float64, 2)
	SumRows(sum, m)
	if !reflect.DeepEqual(sum, []float64{24, 46}) {
		t.Error("got", sum)
	}
}

func TestReuse(t *testing.T) {
	m := mat.NewDense(2, 3, nil)
	if Reuse(m, 2, 3) != m {
		t.Error("expect same matrix for matching shape")
	}
	if r, c := Reuse(m, 3, 3).Dims(); r != 3 || c != 3 {
		t.Error("bad shape", r, c)
	}
}

func TestFillView(t *testing.T) {
	m := mat.NewDense(3, 4, nil)
	view := m.Slice(1, 3, 1, 3).(*mat.Dense)
	Fill(view, 2)
	expect := []float64{
		0, 0, 0, 0,
		0, 2, 2, 0,
		0, 2, 2, 0,
	}
	if res := m.RawMatrix().Data; !reflect.DeepEqual(res, expect) {
		t.Error("got", res, "expect", expect)
	}
}
