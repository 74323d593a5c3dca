package estimator

import (
	"math/rand"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Forest is a random forest regressor: an average over regression trees each grown on a
// bootstrap sample of the training data.
type Forest struct {
	NTrees      int   // number of trees, default 100
	MaxDepth    int   // maximum tree depth, 0 for no limit
	MinLeaf     int   // minimum samples in a leaf, default 1
	MaxFeatures int   // features tried at each split, default all
	Seed        int64 // random seed, tree i uses Seed+i
	Workers     int   // trees grown in parallel, default GOMAXPROCS
	trees       []*node
	nfeat       int
}

type node struct {
	feature   int
	threshold float64
	value     float64
	left      *node
	right     *node
}

func (n *node) leaf() bool { return n.left == nil }

// settings for growing one tree with the defaults filled in
type treeParams struct {
	minLeaf, maxDepth, maxFeatures int
}

// tree builder state
type grower struct {
	treeParams
	cols [][]float64 // feature major copy of the training data
	y    []float64
	rng  *rand.Rand
	perm []int
}

// Fit grows the trees concurrently. Each tree has its own random source so the result does
// not depend on scheduling.
func (f *Forest) Fit(x mat.Matrix, y []float64) error {
	rows, cols, err := checkDims(x, y)
	if err != nil {
		return err
	}
	ntrees, workers := f.NTrees, f.Workers
	if ntrees <= 0 {
		ntrees = 100
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	params := treeParams{minLeaf: f.MinLeaf, maxDepth: f.MaxDepth, maxFeatures: f.MaxFeatures}
	if params.minLeaf <= 0 {
		params.minLeaf = 1
	}
	if params.maxFeatures <= 0 || params.maxFeatures > cols {
		params.maxFeatures = cols
	}
	data := make([][]float64, cols)
	for j := range data {
		data[j] = mat.Col(nil, j, x)
	}
	trees := make([]*node, ntrees)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range trees {
		i := i
		g.Go(func() error {
			gr := &grower{treeParams: params, cols: data, y: y, rng: rand.New(rand.NewSource(f.Seed + int64(i)))}
			sample := make([]int, rows)
			for k := range sample {
				sample[k] = gr.rng.Intn(rows)
			}
			trees[i] = gr.grow(sample, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	f.nfeat, f.trees = cols, trees
	return nil
}

func (f *Forest) Predict(x mat.Matrix) ([]float64, error) {
	if f.trees == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != f.nfeat {
		return nil, errors.Wrapf(ErrShapeMismatch, "fitted with %d features, got %d", f.nfeat, cols)
	}
	pred := make([]float64, rows)
	row := make([]float64, cols)
	for i := range pred {
		mat.Row(row, i, x)
		sum := 0.0
		for _, t := range f.trees {
			sum += t.predict(row)
		}
		pred[i] = sum / float64(len(f.trees))
	}
	return pred, nil
}

func (n *node) predict(row []float64) float64 {
	for !n.leaf() {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// grow builds a subtree by choosing the split which gives the largest reduction in squared error
func (g *grower) grow(idx []int, depth int) *node {
	sum := 0.0
	for _, ix := range idx {
		sum += g.y[ix]
	}
	n := &node{value: sum / float64(len(idx))}
	if len(idx) < 2*g.minLeaf || (g.maxDepth > 0 && depth >= g.maxDepth) || g.constant(idx) {
		return n
	}
	best := sum * sum / float64(len(idx))
	found := false
	sorted := make([]int, len(idx))
	for _, j := range g.features() {
		col := g.cols[j]
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return col[sorted[a]] < col[sorted[b]] })
		left := 0.0
		for k := 0; k < len(sorted)-1; k++ {
			left += g.y[sorted[k]]
			nl, nr := k+1, len(sorted)-k-1
			if nl < g.minLeaf || nr < g.minLeaf || col[sorted[k]] == col[sorted[k+1]] {
				continue
			}
			right := sum - left
			score := left*left/float64(nl) + right*right/float64(nr)
			if score > best+1e-12 {
				best = score
				found = true
				n.feature = j
				n.threshold = (col[sorted[k]] + col[sorted[k+1]]) / 2
			}
		}
	}
	if !found {
		return n
	}
	var li, ri []int
	col := g.cols[n.feature]
	for _, ix := range idx {
		if col[ix] <= n.threshold {
			li = append(li, ix)
		} else {
			ri = append(ri, ix)
		}
	}
	if len(li) == 0 || len(ri) == 0 {
		return n
	}
	n.left = g.grow(li, depth+1)
	n.right = g.grow(ri, depth+1)
	return n
}

func (g *grower) constant(idx []int) bool {
	for _, ix := range idx[1:] {
		if g.y[ix] != g.y[idx[0]] {
			return false
		}
	}
	return true
}

// random subset of feature columns to try at a split
func (g *grower) features() []int {
	if g.perm == nil {
		g.perm = make([]int, len(g.cols))
		for i := range g.perm {
			g.perm[i] = i
		}
	}
	if g.maxFeatures >= len(g.cols) {
		return g.perm
	}
	g.rng.Shuffle(len(g.perm), func(i, j int) { g.perm[i], g.perm[j] = g.perm[j], g.perm[i] })
	return g.perm[:g.maxFeatures]
}
