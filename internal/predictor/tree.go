package predictor

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Node is one node of a regression tree. Leaves have Left and Right set to -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a CART regression tree grown on squared error.
// Rows with a value at or below a node's threshold go left.
type Tree struct {
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
	MinSamplesLeaf  int       `json:"min_samples_leaf"`
	Nodes           []Node    `json:"nodes"`
	Importances     []float64 `json:"importances"`
}

// NewTree creates an unfitted tree
func NewTree(maxDepth, minSamplesSplit, minSamplesLeaf int) *Tree {
	return &Tree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MinSamplesLeaf:  minSamplesLeaf,
	}
}

// Fit grows the tree on every row of x
func (t *Tree) Fit(x mat.Matrix, y []float64) error {
	n, _, err := checkShape(x, y)
	if err != nil {
		return err
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	t.fit(columnsOf(x), y, rows)
	return nil
}

// Predict returns one value per row of x
func (t *Tree) Predict(x mat.Matrix) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = t.predictRow(x, i)
	}
	return out
}

// FeatureImportances returns the normalized squared-error reduction per column
func (t *Tree) FeatureImportances() []float64 {
	return append([]float64(nil), t.Importances...)
}

func (t *Tree) predictRow(x mat.Matrix, i int) float64 {
	node := 0
	for {
		nd := t.Nodes[node]
		if nd.Left < 0 {
			return nd.Value
		}
		if x.At(i, nd.Feature) <= nd.Threshold {
			node = nd.Left
		} else {
			node = nd.Right
		}
	}
}

// fit grows the tree on the given rows; rows may repeat
func (t *Tree) fit(cols [][]float64, y []float64, rows []int) {
	b := &treeBuilder{
		tree:        t,
		cols:        cols,
		y:           y,
		minLeaf:     max(t.MinSamplesLeaf, 1),
		importances: make([]float64, len(cols)),
		order:       make([]int, len(rows)),
	}
	t.Nodes = t.Nodes[:0]
	b.grow(rows, 0)
	t.Importances = normalize(b.importances)
}

type treeBuilder struct {
	tree        *Tree
	cols        [][]float64
	y           []float64
	minLeaf     int
	importances []float64
	order       []int
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *treeBuilder) grow(rows []int, depth int) int {
	var sum float64
	for _, i := range rows {
		sum += b.y[i]
	}
	mean := sum / float64(len(rows))

	pos := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Left: -1, Right: -1, Value: mean})

	if depth >= b.tree.MaxDepth || len(rows) < b.tree.MinSamplesSplit || len(rows) < 2*b.minLeaf {
		return pos
	}

	var sse float64
	for _, i := range rows {
		d := b.y[i] - mean
		sse += d * d
	}
	if sse <= 0 {
		return pos
	}

	best, ok := b.bestSplit(rows, mean, sse)
	if !ok {
		return pos
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	col := b.cols[best.feature]
	for _, i := range rows {
		if col[i] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.importances[best.feature] += best.gain
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	nd := &b.tree.Nodes[pos]
	nd.Feature = best.feature
	nd.Threshold = best.threshold
	nd.Left = l
	nd.Right = r
	return pos
}

// bestSplit scans every column for the threshold with the lowest summed child
// error. Targets are centered on the parent mean to keep the running sums small.
func (b *treeBuilder) bestSplit(rows []int, mean, parentSSE float64) (split, bool) {
	n := len(rows)
	order := b.order[:n]

	var totalSum, totalSq float64
	for _, i := range rows {
		d := b.y[i] - mean
		totalSum += d
		totalSq += d * d
	}

	var best split
	found := false
	for j, col := range b.cols {
		copy(order, rows)
		sort.Slice(order, func(a, c int) bool { return col[order[a]] < col[order[c]] })

		var leftSum, leftSq float64
		for k := 1; k < n; k++ {
			d := b.y[order[k-1]] - mean
			leftSum += d
			leftSq += d * d

			if k < b.minLeaf || n-k < b.minLeaf {
				continue
			}
			lo, hi := col[order[k-1]], col[order[k]]
			if !(lo < hi) {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			childSSE := leftSq - leftSum*leftSum/float64(k) + rightSq - rightSum*rightSum/float64(n-k)
			gain := parentSSE - childSSE
			if gain > best.gain {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: j, threshold: threshold, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
