// Package num contains numeric array processing routines used by the network layers.
// Arrays are gonum dense matrices with one sample per row.
package num

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Reuse returns m if it already has the given shape, else a newly allocated matrix.
func Reuse(m *mat.Dense, rows, cols int) *mat.Dense {
	if m != nil {
		if r, c := m.Dims(); r == rows && c == cols {
			return m
		}
	}
	return mat.NewDense(rows, cols, nil)
}

// Fill array with a scalar value
func Fill(m *mat.Dense, scalar float64) {
	raw := m.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j := range row {
			row[j] = scalar
		}
	}
}

// Convert class labels to one hot representation with one row per label.
func Onehot(labels []int32, classes int) *mat.Dense {
	y := mat.NewDense(len(labels), classes, nil)
	for i, label := range labels {
		if int(label) < 0 || int(label) >= classes {
			panic(fmt.Sprintf("Onehot: label %d out of range", label))
		}
		y.Set(i, int(label), 1)
	}
	return y
}

// Argmax returns the index of the largest value. Ties go to the lowest index.
func Argmax(row []float64) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}

// Unhot converts each row of probabilities back to the most likely class.
func Unhot(y mat.RawMatrixer, classes []int32) []int32 {
	raw := y.RawMatrix()
	if classes == nil || len(classes) != raw.Rows {
		classes = make([]int32, raw.Rows)
	}
	for i := range classes {
		classes[i] = int32(Argmax(raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]))
	}
	return classes
}

// AddBias adds vector b to each row of m.
func AddBias(m *mat.Dense, b []float64) {
	raw := m.RawMatrix()
	if len(b) != raw.Cols {
		panic("AddBias: length mismatch")
	}
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j := range row {
			row[j] += b[j]
		}
	}
}

// SumRows sets dst to the column wise sum over all rows of m.
func SumRows(dst []float64, m mat.RawMatrixer) {
	raw := m.RawMatrix()
	if len(dst) != raw.Cols {
		panic("SumRows: length mismatch")
	}
	for j := range dst {
		dst[j] = 0
	}
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j, v := range row {
			dst[j] += v
		}
	}
}

// Relu activation: dst = max(src, 0)
func Relu(dst, src *mat.Dense) {
	dst.Apply(func(i, j int, v float64) float64 {
		return math.Max(v, 0)
	}, src)
}

// ReluD backpropagates grad through a relu given the layer input src.
func ReluD(dst, src, grad *mat.Dense) {
	dst.Apply(func(i, j int, v float64) float64 {
		if src.At(i, j) > 0 {
			return v
		}
		return 0
	}, grad)
}

// Softmax normalises each row of src so it sums to one.
func Softmax(dst, src *mat.Dense) {
	if dst != src {
		dst.Copy(src)
	}
	raw := dst.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}
		sum := 0.0
		for j, v := range row {
			row[j] = math.Exp(v - max)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}
}

// Finite reports if x is not NaN or infinite.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Prod returns the product of the array elements.
func Prod(arr []int) int {
	prod := 1
	for _, v := range arr {
		prod *= v
	}
	return prod
}

// SameShape reports if the two dimension lists match.
func SameShape(xd, yd []int) bool {
	if len(xd) != len(yd) {
		return false
	}
	for i := range xd {
		if xd[i] != yd[i] {
			return false
		}
	}
	return true
}

// String formats a matrix for debug logging, eliding the middle rows of large arrays.
func String(m mat.Matrix) string {
	rows, cols := m.Dims()
	var s []string
	for i := 0; i < rows; i++ {
		if rows > 8 && i == 4 {
			s = append(s, "  ...")
			i = rows - 4
		}
		row := make([]string, cols)
		for j := range row {
			row[j] = fmt.Sprintf("%8.4f", m.At(i, j))
		}
		s = append(s, "["+strings.Join(row, " ")+"]")
	}
	return strings.Join(s, "\n") + "\n"
}
