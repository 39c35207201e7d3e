package ml

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
)

// Node is one node of a regression tree. Exported for gob.
type Node struct {
	Leaf      bool
	Value     float64 // mean target of the samples in this leaf
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
}

// Tree is a single CART regression tree.
type Tree struct {
	Root *Node
}

func (t *Tree) predict(row []float64) float64 {
	n := t.Root
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// Forest is a bootstrap-aggregated ensemble of regression trees. Prediction
// is the mean of the per-tree predictions.
type Forest struct {
	Trees []*Tree
	Seed  int64
}

// TrainForest fits numTrees regression trees, each on a bootstrap sample of
// (x, y). Trees grow until leaves are pure or indivisible, splitting on the
// threshold that minimizes the summed squared error of the two sides. Tree
// construction runs across all CPUs; each tree seeds its own RNG from the
// base seed and its index, so results do not depend on scheduling.
func TrainForest(x [][]float64, y []float64, numTrees int, seed int64) *Forest {
	f := &Forest{Trees: make([]*Tree, numTrees), Seed: seed}

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i := 0; i < numTrees; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			rng := rand.New(rand.NewSource(seed + int64(i)))
			idx := bootstrap(len(y), rng)
			f.Trees[i] = &Tree{Root: buildNode(x, y, idx)}
		}(i)
	}
	wg.Wait()
	return f
}

// Predict returns the forest's estimate for one encoded feature row.
func (f *Forest) Predict(row []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("forest has no trees")
	}

	sum := 0.0
	for _, t := range f.Trees {
		sum += t.predict(row)
	}
	pred := sum / float64(len(f.Trees))
	if math.IsNaN(pred) || math.IsInf(pred, 0) {
		return 0, fmt.Errorf("forest produced a non-finite prediction")
	}
	return pred, nil
}

func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

func buildNode(x [][]float64, y []float64, idx []int) *Node {
	mean := meanAt(y, idx)
	if len(idx) < 2 || constantAt(y, idx) {
		return &Node{Leaf: true, Value: mean}
	}

	feature, threshold, ok := bestSplit(x, y, idx)
	if !ok {
		// All rows identical in feature space; nothing left to split on.
		return &Node{Leaf: true, Value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildNode(x, y, left),
		Right:     buildNode(x, y, right),
	}
}

// bestSplit scans every feature in sorted order with running sums, scoring
// each candidate threshold by the summed squared error of the two sides.
func bestSplit(x [][]float64, y []float64, idx []int) (int, float64, bool) {
	bestCost := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0
	numFeatures := len(x[idx[0]])

	var sumTotal, sumSqTotal float64
	for _, i := range idx {
		sumTotal += y[i]
		sumSqTotal += y[i] * y[i]
	}

	order := make([]int, len(idx))
	for f := 0; f < numFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		var sumL, sumSqL float64
		for pos := 0; pos < len(order)-1; pos++ {
			yi := y[order[pos]]
			sumL += yi
			sumSqL += yi * yi

			v, next := x[order[pos]][f], x[order[pos+1]][f]
			if v == next {
				continue // no boundary between equal values
			}

			nL := float64(pos + 1)
			nR := float64(len(order)) - nL
			sumR := sumTotal - sumL
			sumSqR := sumSqTotal - sumSqL
			cost := (sumSqL - sumL*sumL/nL) + (sumSqR - sumR*sumR/nR)
			if cost < bestCost {
				bestCost = cost
				bestFeature = f
				bestThreshold = (v + next) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func constantAt(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}
