package classify

import (
	"math"
	"math/rand"
	"sort"
)

// A Node represents a splitting decision of the form "x[FeatureIndex] < Threshold ?" in a decision tree
type Node struct {
	// FeatureIndex indicates which feature is used in this splitting decision
	FeatureIndex int `json:"feature_index"`
	// Threshold indicates the cutoff value between the left and right subtrees
	Threshold float64 `json:"threshold"`
	// LeftChild is the index of the node representing the left subtree
	LeftChild int `json:"left_child"`
	// LeftIsLeaf indicates whether the left subtree is a leaf node
	LeftIsLeaf bool `json:"left_is_leaf"`
	// RightChild is the index of the node representing the right subtree
	RightChild int `json:"right_child"`
	// RightIsLeaf indicates whether the right subtree is a leaf node
	RightIsLeaf bool `json:"right_is_leaf"`
}

// A Tree maps feature vectors to class indices through a flat array of
// splitting decisions.
type Tree struct {
	// Nodes is a flat list of all nodes in the tree
	Nodes []Node `json:"nodes"`
	// Outputs is an array containing the class index for each leaf bin
	Outputs []int `json:"outputs"`
	// FeatureSize is the length of feature vectors processed by this tree
	FeatureSize int `json:"feature_size"`
	// Depth is the maximum depth of any leaf in the tree
	Depth int `json:"depth"`
}

// Bin drops a feature vector down the tree and returns the index of the bin that it ends up in
func (t *Tree) Bin(x []float64) int {
	if len(x) != t.FeatureSize {
		panic("feature vector had incorrect length")
	}
	if t.Nodes == nil {
		panic("tree not initialized")
	}
	cur := t.Nodes[0]
	for i := 0; i < t.Depth; i++ {
		if x[cur.FeatureIndex] < cur.Threshold {
			if cur.LeftIsLeaf {
				return cur.LeftChild
			}
			cur = t.Nodes[cur.LeftChild]
		} else {
			if cur.RightIsLeaf {
				return cur.RightChild
			}
			cur = t.Nodes[cur.RightChild]
		}
	}
	panic("tree traversal did not terminate")
}

// ClassIndex drops a feature vector down the tree and returns the class
// index associated with the bin it ends up in.
func (t *Tree) ClassIndex(x []float64) int {
	return t.Outputs[t.Bin(x)]
}

// treeBuilder grows a Tree with weighted-gini CART splits.
type treeBuilder struct {
	maxDepth int
	minLeaf  int
	// mtry is the number of candidate features examined per split
	mtry    int
	classes int
	rng     *rand.Rand

	x [][]float64
	y []int
	w []float64

	tree  Tree
	depth int
}

func (b *treeBuilder) build(indices []int) *Tree {
	b.tree = Tree{FeatureSize: len(b.x[0])}
	b.depth = 0
	child, isLeaf := b.grow(indices, 0)
	if isLeaf {
		// degenerate single-class data: emit one unconditional split so
		// the flat traversal layout stays uniform
		b.tree.Nodes = append(b.tree.Nodes, Node{
			FeatureIndex: 0,
			Threshold:    math.MaxFloat64,
			LeftChild:    child,
			LeftIsLeaf:   true,
			RightChild:   child,
			RightIsLeaf:  true,
		})
		b.depth = 1
	}
	b.tree.Depth = b.depth
	return &b.tree
}

// grow recursively builds the subtree over indices and returns either a
// node index (isLeaf false) or a bin index (isLeaf true).
func (b *treeBuilder) grow(indices []int, depth int) (child int, isLeaf bool) {
	if depth+1 > b.depth {
		b.depth = depth + 1
	}
	if depth >= b.maxDepth || len(indices) < 2*b.minLeaf || b.pure(indices) {
		return b.leaf(indices), true
	}

	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return b.leaf(indices), true
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(indices), true
	}

	at := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{FeatureIndex: feature, Threshold: threshold})

	lc, ll := b.grow(left, depth+1)
	rc, rl := b.grow(right, depth+1)
	b.tree.Nodes[at].LeftChild = lc
	b.tree.Nodes[at].LeftIsLeaf = ll
	b.tree.Nodes[at].RightChild = rc
	b.tree.Nodes[at].RightIsLeaf = rl
	return at, false
}

// leaf records the weighted-majority class of indices as a new bin.
func (b *treeBuilder) leaf(indices []int) int {
	counts := make([]float64, b.classes)
	for _, i := range indices {
		counts[b.y[i]] += b.w[i]
	}
	best := 0
	for c, n := range counts {
		if n > counts[best] {
			best = c
		}
	}
	b.tree.Outputs = append(b.tree.Outputs, best)
	return len(b.tree.Outputs) - 1
}

func (b *treeBuilder) pure(indices []int) bool {
	first := b.y[indices[0]]
	for _, i := range indices[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans mtry random features for the threshold minimizing the
// weighted gini impurity of the two sides.
func (b *treeBuilder) bestSplit(indices []int) (feature int, threshold float64, ok bool) {
	numFeatures := len(b.x[0])
	candidates := b.rng.Perm(numFeatures)
	if b.mtry < len(candidates) {
		candidates = candidates[:b.mtry]
	}

	bestImpurity := math.Inf(1)
	parent := b.gini(indices)

	sorted := make([]int, len(indices))
	for _, f := range candidates {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		leftCounts := make([]float64, b.classes)
		rightCounts := make([]float64, b.classes)
		var leftTotal, rightTotal float64
		for _, i := range sorted {
			rightCounts[b.y[i]] += b.w[i]
			rightTotal += b.w[i]
		}

		for pos := 0; pos < len(sorted)-1; pos++ {
			i := sorted[pos]
			leftCounts[b.y[i]] += b.w[i]
			leftTotal += b.w[i]
			rightCounts[b.y[i]] -= b.w[i]
			rightTotal -= b.w[i]

			cur, next := b.x[i][f], b.x[sorted[pos+1]][f]
			if cur == next {
				continue
			}
			if pos+1 < b.minLeaf || len(sorted)-pos-1 < b.minLeaf {
				continue
			}
			impurity := (leftTotal*giniOf(leftCounts, leftTotal) + rightTotal*giniOf(rightCounts, rightTotal)) / (leftTotal + rightTotal)
			if impurity < bestImpurity {
				bestImpurity = impurity
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}
	if ok && bestImpurity >= parent {
		// no impurity reduction, splitting is pointless
		ok = false
	}
	return feature, threshold, ok
}

func (b *treeBuilder) gini(indices []int) float64 {
	counts := make([]float64, b.classes)
	var total float64
	for _, i := range indices {
		counts[b.y[i]] += b.w[i]
		total += b.w[i]
	}
	return giniOf(counts, total)
}

func giniOf(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, n := range counts {
		p := n / total
		g -= p * p
	}
	return g
}
