// Package boost implements gradient-boosted regression trees for the residual corrector.
package boost

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	domsvc "BrentCast/internal/domain/service"
)

// Params are the boosting hyperparameters. Objective is squared error.
type Params struct {
	Estimators     int
	LearningRate   float64
	MaxDepth       int
	MinChildWeight float64
	Lambda         float64 // L2 penalty on leaf weights
	Subsample      float64
	Seed           int64
}

// DefaultParams matches the residual model settings: 100 trees, eta 0.1, seed 42.
func DefaultParams() Params {
	return Params{
		Estimators:     100,
		LearningRate:   0.1,
		MaxDepth:       6,
		MinChildWeight: 1,
		Lambda:         1,
		Subsample:      1,
		Seed:           42,
	}
}

// Node is a tree node. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// Tree is a flat binary tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Ensemble is a trained model.
type Ensemble struct {
	Features     int     `json:"features"`
	BaseScore    float64 `json:"base_score"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

var _ domsvc.ResidualModel = (*Ensemble)(nil)

// Predict returns the model output for one feature vector.
func (e *Ensemble) Predict(x []float64) float64 {
	out := e.BaseScore
	for i := range e.Trees {
		out += e.LearningRate * e.Trees[i].predict(x)
	}
	return out
}

// Decode restores an ensemble produced by json.Marshal.
func Decode(b []byte) (*Ensemble, error) {
	var e Ensemble
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode residual model: %w", err)
	}
	if e.Features <= 0 {
		return nil, fmt.Errorf("decode residual model: missing feature count")
	}
	for ti, t := range e.Trees {
		if len(t.Nodes) == 0 {
			return nil, fmt.Errorf("decode residual model: tree %d is empty", ti)
		}
		for _, n := range t.Nodes {
			if n.Feature >= e.Features || (n.Feature >= 0 && (n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes))) {
				return nil, fmt.Errorf("decode residual model: tree %d is malformed", ti)
			}
		}
	}
	return &e, nil
}

// Fit trains an ensemble on rows x with targets y. Training is deterministic for a
// given Seed. ctx is checked between boosting rounds.
func Fit(ctx context.Context, x [][]float64, y []float64, p Params) (*Ensemble, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("boost: no training rows")
	}
	if len(y) != n {
		return nil, fmt.Errorf("boost: %d rows but %d targets", n, len(y))
	}
	nf := len(x[0])
	for i, row := range x {
		if len(row) != nf {
			return nil, fmt.Errorf("boost: row %d has %d features, want %d", i, len(row), nf)
		}
	}
	if p.Estimators <= 0 || p.LearningRate <= 0 || p.MaxDepth <= 0 {
		return nil, fmt.Errorf("boost: invalid params %+v", p)
	}
	if p.Subsample <= 0 || p.Subsample > 1 {
		p.Subsample = 1
	}

	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	ens := &Ensemble{Features: nf, BaseScore: base, LearningRate: p.LearningRate}
	b := newBuilder(x, p)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	grad := make([]float64, n)
	rng := rand.New(rand.NewPCG(uint64(p.Seed), uint64(p.Seed)^0x9e3779b97f4a7c15))

	for round := 0; round < p.Estimators; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range grad {
			grad[i] = pred[i] - y[i]
		}
		tree := b.build(grad, b.sample(rng))
		for i := range pred {
			pred[i] += p.LearningRate * tree.predict(x[i])
		}
		ens.Trees = append(ens.Trees, tree)
	}
	return ens, nil
}

// builder grows trees level by level with exact greedy split search. Hessians are 1
// under squared error, so hessian sums are row counts.
type builder struct {
	x     [][]float64
	p     Params
	order [][]int // row indices sorted by each feature
	pos   []int   // current open node of each row, -1 when settled or unsampled
	mask  []bool  // rows drawn for the current tree
}

func newBuilder(x [][]float64, p Params) *builder {
	n, nf := len(x), len(x[0])
	order := make([][]int, nf)
	for f := 0; f < nf; f++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]][f] < x[idx[b]][f] })
		order[f] = idx
	}
	return &builder{x: x, p: p, order: order, pos: make([]int, n), mask: make([]bool, n)}
}

func (b *builder) sample(rng *rand.Rand) []bool {
	for i := range b.mask {
		b.mask[i] = b.p.Subsample >= 1 || rng.Float64() < b.p.Subsample
	}
	return b.mask
}

type nodeStats struct {
	g, h float64
}

type split struct {
	gain      float64
	feature   int
	threshold float64
	ok        bool
}

type scan struct {
	gl, hl float64
	last   float64
	seen   bool
}

func (b *builder) build(grad []float64, inSample []bool) Tree {
	tree := Tree{Nodes: []Node{{Feature: -1}}}
	open := []int{0}

	stats := map[int]*nodeStats{0: {}}
	for i := range b.pos {
		if inSample[i] {
			b.pos[i] = 0
			stats[0].g += grad[i]
			stats[0].h++
		} else {
			b.pos[i] = -1
		}
	}

	for depth := 0; len(open) > 0; depth++ {
		if depth >= b.p.MaxDepth {
			for _, id := range open {
				tree.Nodes[id].Value = b.leafWeight(stats[id])
			}
			break
		}

		best := make(map[int]*split, len(open))
		for _, id := range open {
			best[id] = &split{}
		}
		for f, idx := range b.order {
			scans := make(map[int]*scan, len(open))
			for _, i := range idx {
				id := b.pos[i]
				if id < 0 {
					continue
				}
				st, ok := stats[id]
				if !ok {
					continue
				}
				sc := scans[id]
				if sc == nil {
					sc = &scan{}
					scans[id] = sc
				}
				v := b.x[i][f]
				if sc.seen && v != sc.last {
					b.consider(best[id], st, sc.gl, sc.hl, f, (sc.last+v)/2)
				}
				sc.gl += grad[i]
				sc.hl++
				sc.last = v
				sc.seen = true
			}
		}

		var next []int
		children := make(map[int][2]int)
		for _, id := range open {
			s := best[id]
			if !s.ok {
				tree.Nodes[id].Value = b.leafWeight(stats[id])
				delete(stats, id)
				continue
			}
			left := len(tree.Nodes)
			tree.Nodes = append(tree.Nodes, Node{Feature: -1}, Node{Feature: -1})
			tree.Nodes[id] = Node{Feature: s.feature, Threshold: s.threshold, Left: left, Right: left + 1}
			children[id] = [2]int{left, left + 1}
			stats[left], stats[left+1] = &nodeStats{}, &nodeStats{}
			next = append(next, left, left+1)
		}

		for i, id := range b.pos {
			if id < 0 {
				continue
			}
			ch, ok := children[id]
			if !ok {
				b.pos[i] = -1
				continue
			}
			n := tree.Nodes[id]
			child := ch[1]
			if b.x[i][n.Feature] < n.Threshold {
				child = ch[0]
			}
			b.pos[i] = child
			stats[child].g += grad[i]
			stats[child].h++
		}
		for id := range children {
			delete(stats, id)
		}
		open = next
	}
	return tree
}

func (b *builder) consider(best *split, node *nodeStats, gl, hl float64, feature int, threshold float64) {
	gr, hr := node.g-gl, node.h-hl
	if hl < b.p.MinChildWeight || hr < b.p.MinChildWeight {
		return
	}
	lambda := b.p.Lambda
	gain := 0.5 * (gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - node.g*node.g/(node.h+lambda))
	if gain > 1e-12 && (!best.ok || gain > best.gain) {
		*best = split{gain: gain, feature: feature, threshold: threshold, ok: true}
	}
}

func (b *builder) leafWeight(st *nodeStats) float64 {
	if st == nil || st.h == 0 {
		return 0
	}
	w := -st.g / (st.h + b.p.Lambda)
	if math.IsNaN(w) {
		return 0
	}
	return w
}
