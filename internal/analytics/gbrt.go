package analytics

import "math"

// Gradient-boosted regression trees over the five calendar features.
// Squared-error loss, so each stage fits a depth-limited tree to the
// current residuals and the leaves predict the residual mean.

const featureCount = 5

const (
	gbrtTrees        = 100
	gbrtLearningRate = 0.1
	gbrtMaxDepth     = 4
	gbrtMinLeaf      = 2
)

type treeNode struct {
	leaf    bool
	value   float64
	feature int
	thresh  float64
	left    *treeNode
	right   *treeNode
}

func (n *treeNode) predict(x [featureCount]float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.thresh {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type gbrt struct {
	base        float64
	trees       []*treeNode
	importances [featureCount]float64
}

func (m *gbrt) predict(x [featureCount]float64) float64 {
	out := m.base
	for _, t := range m.trees {
		out += gbrtLearningRate * t.predict(x)
	}
	return out
}

// fitGBRT trains on the given rows. Feature importances accumulate the
// squared-error reduction of every split, normalized to sum to one.
func fitGBRT(xs [][featureCount]float64, ys []float64) *gbrt {
	m := &gbrt{base: meanOf(ys)}

	residuals := make([]float64, len(ys))
	preds := make([]float64, len(ys))
	for i := range preds {
		preds[i] = m.base
	}

	idx := make([]int, len(ys))
	for i := range idx {
		idx[i] = i
	}

	for t := 0; t < gbrtTrees; t++ {
		for i := range ys {
			residuals[i] = ys[i] - preds[i]
		}
		tree := buildTree(xs, residuals, idx, 0, &m.importances)
		m.trees = append(m.trees, tree)
		for i := range preds {
			preds[i] += gbrtLearningRate * tree.predict(xs[i])
		}
	}

	var total float64
	for _, g := range m.importances {
		total += g
	}
	if total > 0 {
		for i := range m.importances {
			m.importances[i] /= total
		}
	}
	return m
}

func buildTree(xs [][featureCount]float64, ys []float64, idx []int, depth int, gains *[featureCount]float64) *treeNode {
	if depth >= gbrtMaxDepth || len(idx) < 2*gbrtMinLeaf {
		return &treeNode{leaf: true, value: meanAt(ys, idx)}
	}

	feature, thresh, gain, ok := bestSplit(xs, ys, idx)
	if !ok {
		return &treeNode{leaf: true, value: meanAt(ys, idx)}
	}
	gains[feature] += gain

	var left, right []int
	for _, i := range idx {
		if xs[i][feature] <= thresh {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature: feature,
		thresh:  thresh,
		left:    buildTree(xs, ys, left, depth+1, gains),
		right:   buildTree(xs, ys, right, depth+1, gains),
	}
}

// bestSplit scans every feature and every midpoint between adjacent
// distinct values, maximizing the reduction in sum of squared errors.
func bestSplit(xs [][featureCount]float64, ys []float64, idx []int) (feature int, thresh, gain float64, ok bool) {
	parentSSE := sseAt(ys, idx)

	for f := 0; f < featureCount; f++ {
		thresholds := candidateThresholds(xs, idx, f)
		for _, th := range thresholds {
			var left, right []int
			for _, i := range idx {
				if xs[i][f] <= th {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) < gbrtMinLeaf || len(right) < gbrtMinLeaf {
				continue
			}
			g := parentSSE - sseAt(ys, left) - sseAt(ys, right)
			if g > gain {
				feature, thresh, gain, ok = f, th, g, true
			}
		}
	}
	return feature, thresh, gain, ok
}

func candidateThresholds(xs [][featureCount]float64, idx []int, f int) []float64 {
	seen := make(map[float64]struct{}, len(idx))
	var values []float64
	for _, i := range idx {
		v := xs[i][f]
		if _, dup := seen[v]; !dup {
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return nil
	}
	sortFloats(values)
	thresholds := make([]float64, 0, len(values)-1)
	for i := 0; i+1 < len(values); i++ {
		thresholds = append(thresholds, (values[i]+values[i+1])/2)
	}
	return thresholds
}

func sortFloats(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}

func meanAt(ys []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += ys[i]
	}
	return sum / float64(len(idx))
}

func sseAt(ys []float64, idx []int) float64 {
	mean := meanAt(ys, idx)
	var sse float64
	for _, i := range idx {
		d := ys[i] - mean
		sse += d * d
	}
	return sse
}

func mae(pred, actual []float64) float64 {
	var sum float64
	for i := range pred {
		sum += math.Abs(pred[i] - actual[i])
	}
	return sum / float64(len(pred))
}

// rSquared returns the coefficient of determination; can be negative
// when the model is worse than predicting the mean.
func rSquared(pred, actual []float64) float64 {
	mean := meanOf(actual)
	var ssRes, ssTot float64
	for i := range actual {
		ssRes += (actual[i] - pred[i]) * (actual[i] - pred[i])
		ssTot += (actual[i] - mean) * (actual[i] - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
