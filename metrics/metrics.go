// Package metrics computes evaluation statistics between predicted and
// reference trees: head accuracy, arc overlap, binary-matrix F1, and
// span/node similarity. All scores are in [0,1].
//
// Package metrics は予測木と参照木の評価統計（ヘッド正解率・アーク一致・
// 2値行列F1・スパン/ノード類似度）を計算します。スコアは全て[0,1]です。
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/sw965/lark/adjacency"
	"github.com/sw965/lark/ctree"
	"github.com/sw965/lark/dtree"
)

// HeadAccuracy is the fraction of tokens whose predicted head equals the
// reference head. Positions whose reference head equals ignore are skipped;
// passing dtree.NoHead skips rests. With no countable position the score
// is 0.
//
// HeadAccuracyは、予測ヘッドが参照ヘッドと一致したトークンの割合です。
// 参照ヘッドがignoreと等しい位置は数えません。
func HeadAccuracy(pred, truth dtree.Heads, ignore int) (float64, error) {
	if len(pred) != len(truth) {
		return 0.0, fmt.Errorf("%w: pred=%d truth=%d", dtree.ErrLengthMismatch, len(pred), len(truth))
	}

	total, correct := 0, 0
	for i, th := range truth {
		if th == ignore {
			continue
		}
		total++
		if pred[i] == th {
			correct++
		}
	}
	if total == 0 {
		return 0.0, nil
	}
	return float64(correct) / float64(total), nil
}

// Overlap holds the set-overlap counts between a predicted and a reference
// arc set.
type Overlap struct {
	TP int
	FP int
	FN int
}

func (o Overlap) Precision() float64 {
	denom := o.TP + o.FP
	if denom == 0 {
		return 0.0
	}
	return float64(o.TP) / float64(denom)
}

func (o Overlap) Recall() float64 {
	denom := o.TP + o.FN
	if denom == 0 {
		return 0.0
	}
	return float64(o.TP) / float64(denom)
}

func (o Overlap) F1() float64 {
	p := o.Precision()
	r := o.Recall()
	if p+r == 0 {
		return 0.0
	}
	return 2 * p * r / (p + r)
}

// Accuracy is the fraction of reference arcs recovered. Arc lists derived
// from head arrays over the same tokens carry one arc per token, so this
// coincides with precision there.
func (o Overlap) Accuracy() float64 {
	return o.Recall()
}

// CompareArcs counts the overlap between two arc lists, treated as sets.
// Lists derived from head arrays never contain duplicates.
func CompareArcs(pred, truth dtree.Arcs) Overlap {
	truthSet := make(map[dtree.Arc]bool, len(truth))
	for _, a := range truth {
		truthSet[a] = true
	}

	o := Overlap{}
	for _, a := range pred {
		if truthSet[a] {
			o.TP++
		} else {
			o.FP++
		}
	}
	o.FN = len(truth) - o.TP
	return o
}

// BinaryF1 is the F1 over the positive cells of two 0/1 matrices of the same
// shape. For adjacency matrices built by adjacency.FromTree it equals the F1
// of the underlying arc sets.
func BinaryF1(pred, truth blas32.General) (float64, error) {
	if pred.Rows != truth.Rows || pred.Cols != truth.Cols {
		return 0.0, fmt.Errorf(
			"%w: pred=%dx%d truth=%dx%d",
			dtree.ErrLengthMismatch, pred.Rows, pred.Cols, truth.Rows, truth.Cols,
		)
	}

	tp := float64(blas32.Dot(adjacency.ToVector(pred), adjacency.ToVector(truth)))
	predPos := float64(blas32.Asum(adjacency.ToVector(pred)))
	truthPos := float64(blas32.Asum(adjacency.ToVector(truth)))
	if predPos == 0 || truthPos == 0 {
		return 0.0, nil
	}

	p := tp / predPos
	r := tp / truthPos
	if p+r == 0 {
		return 0.0, nil
	}
	return 2 * p * r / (p + r), nil
}

func jaccard[T comparable](a, b []T) float64 {
	aSet := make(map[T]bool, len(a))
	for _, x := range a {
		aSet[x] = true
	}
	bSet := make(map[T]bool, len(b))
	for _, x := range b {
		bSet[x] = true
	}

	inter := 0
	for x := range aSet {
		if bSet[x] {
			inter++
		}
	}
	union := len(aSet) + len(bSet) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

// SpanSimilarity is the Jaccard overlap between the span sets of two
// constituency trees. Identical trees score 1.0 and the measure is
// symmetric. Both trees must be non-nil.
//
// SpanSimilarityは2つの句構造木のスパン集合のJaccard係数です。同一の木は
// 1.0になり、引数を入れ替えても値は変わりません。
func SpanSimilarity(pred, truth *ctree.Node) float64 {
	return jaccard(pred.Spans(), truth.Spans())
}

func renderings(root *ctree.Node) []string {
	nodes := root.Nodes()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.String()
	}
	return out
}

// NodeSimilarity compares whole constituents instead of bare boundaries:
// every node is canonicalized to its bracket rendering and the Jaccard
// overlap of the two rendering sets is returned. Stricter than
// SpanSimilarity, with the same symmetry and reflexivity.
//
// NodeSimilarityは境界だけでなく構成素全体を比較します。各ノードを括弧
// 表記へ正規化し、その集合のJaccard係数を返します。
func NodeSimilarity(pred, truth *ctree.Node) float64 {
	return jaccard(renderings(pred), renderings(truth))
}
