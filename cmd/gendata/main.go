// Program gendata writes synthetic solubility and digit data sets in the same formats as the
// real files, for trying out the programs without downloading them.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/jnb666/mlbench/data"
	"github.com/jnb666/mlbench/nnet"
	"gonum.org/v1/gonum/mat"
)

// digit image size
const side = 28

func main() {
	var (
		dir, ext       string
		rows, features int
		images, tests  int
		seed           int64
	)
	flag.StringVar(&dir, "data", nnet.DataDir, "output directory")
	flag.StringVar(&ext, "ext", "", "compression extension for the image files: .gz or .xz")
	flag.IntVar(&rows, "rows", 1142, "number of solubility samples")
	flag.IntVar(&features, "features", 20, "number of solubility descriptors")
	flag.IntVar(&images, "images", 6000, "number of training images, 0 to skip")
	flag.IntVar(&tests, "tests", 1000, "number of test images")
	flag.Int64Var(&seed, "seed", 1, "random number seed")
	flag.Parse()
	nnet.CheckErr(os.MkdirAll(dir, 0755))
	rng := rand.New(rand.NewSource(seed))

	t := solubility(rows, features, rng)
	nnet.CheckErr(data.SaveTabular(dir, data.QSARFeatures, data.QSARLabels, t))
	fmt.Println("solubility:", t)

	if images > 0 {
		train := digits(images, rng)
		nnet.CheckErr(data.WriteIDX(dir, "train-images-idx3-ubyte"+ext, "train-labels-idx1-ubyte"+ext, train))
		test := digits(tests, rng)
		nnet.CheckErr(data.WriteIDX(dir, "t10k-images-idx3-ubyte"+ext, "t10k-labels-idx1-ubyte"+ext, test))
		fmt.Println("train:", train)
		fmt.Println("test: ", test)
	}
}

// target is a linear function of the descriptors plus a nonlinear term and noise
func solubility(rows, features int, rng *rand.Rand) *data.Tabular {
	coef := make([]float64, features)
	for j := range coef {
		coef[j] = rng.NormFloat64()
	}
	t := &data.Tabular{X: mat.NewDense(rows, features, nil), Y: make([]float64, rows)}
	for i := range t.Y {
		y := -3.0
		for j, c := range coef {
			x := rng.NormFloat64()*float64(j+1) + float64(j)
			t.X.Set(i, j, x)
			y += c * x / float64(j+1)
		}
		y += math.Sin(t.X.At(i, 0)) + 0.3*rng.NormFloat64()
		t.Y[i] = y
	}
	return t
}

// each class is a noisy bar at a different angle through the image centre
func digits(n int, rng *rand.Rand) *data.Images {
	d := &data.Images{X: mat.NewDense(n, side*side, nil), Labels: make([]int32, n),
		Classes: data.NumClasses, Height: side, Width: side}
	for i := range d.Labels {
		label := rng.Intn(data.NumClasses)
		d.Labels[i] = int32(label)
		angle := math.Pi*float64(label)/data.NumClasses + 0.1*rng.NormFloat64()
		dx, dy := math.Cos(angle), math.Sin(angle)
		row := d.X.RawRowView(i)
		for r := -10.0; r <= 10; r += 0.5 {
			x := int(side/2 + r*dx + rng.Float64())
			y := int(side/2 + r*dy + rng.Float64())
			if x >= 0 && x < side && y >= 0 && y < side {
				row[y*side+x] = 1
			}
		}
	}
	return d
}
