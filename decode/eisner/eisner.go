// Package eisner implements the projective dependency decoder: the classical
// O(N^3) span dynamic program with arena-indexed chart and backpointer
// tables.
//
// Package eisner は射影的な係り受けデコーダを実装します。古典的な O(N^3) の
// スパン動的計画法で、チャートとバックポインタはフラットな配列で持ちます。
package eisner

import (
	"fmt"
	"math"

	"github.com/sw965/lark/adjacency"
	"github.com/sw965/lark/dtree"
	"gonum.org/v1/gonum/blas/blas32"
)

const (
	// 係り先が左（ヘッドが右）のスパン状態。
	left = iota
	right
)

type chart struct {
	size         int
	complete     []float64
	incomplete   []float64
	completeBk   []int
	incompleteBk []int
}

func newChart(size int) *chart {
	n := size * size * 2
	c := &chart{
		size:         size,
		complete:     make([]float64, n),
		incomplete:   make([]float64, n),
		completeBk:   make([]int, n),
		incompleteBk: make([]int, n),
	}
	for i := range n {
		c.completeBk[i] = -1
		c.incompleteBk[i] = -1
	}
	return c
}

func (c *chart) at(s, t, dir int) int {
	return (s*c.size+t)*2 + dir
}

func (c *chart) walkComplete(s, t, dir int, heads []int) {
	if s == t {
		return
	}
	r := c.completeBk[c.at(s, t, dir)]
	if dir == left {
		c.walkComplete(s, r, left, heads)
		c.walkIncomplete(r, t, left, heads)
	} else {
		c.walkIncomplete(s, r, right, heads)
		c.walkComplete(r, t, right, heads)
	}
}

func (c *chart) walkIncomplete(s, t, dir int, heads []int) {
	if s == t {
		return
	}
	r := c.incompleteBk[c.at(s, t, dir)]
	if dir == left {
		heads[s] = t
	} else {
		heads[t] = s
	}
	c.walkComplete(s, r, right, heads)
	c.walkComplete(r+1, t, left, heads)
}

// Decode finds the best projective attachment for every token of a dense
// score matrix (rows = heads, columns = dependents, index 0 = the root).
// Spans are combined bottom-up by width; ties between splits resolve to the
// leftmost, so decoding is deterministic. The result always has one head per
// token but may attach several tokens to the root when the scores prefer it.
//
// Decodeは、密スコア行列から各トークンの最良の射影的な係り先を求めます。
// スパンは幅の昇順に合成され、分割点が同点の場合は常に最左を選ぶ為、結果は
// 決定的です。スコア次第では複数のトークンがルートへ接続され得ます。
func Decode(scores blas32.General) (dtree.Heads, error) {
	if scores.Rows != scores.Cols {
		return nil, fmt.Errorf("%w: rows=%d cols=%d", adjacency.ErrNotSquare, scores.Rows, scores.Cols)
	}
	n := scores.Rows - 1
	if n < 1 {
		return nil, fmt.Errorf("%w: rows=%d", adjacency.ErrNonPositiveTokens, scores.Rows)
	}

	size := scores.Rows
	sc := make([][]float64, size)
	for i := range sc {
		sc[i] = make([]float64, size)
		for j := range sc[i] {
			sc[i][j] = float64(scores.Data[adjacency.At(scores, i, j)])
		}
	}

	negInf := math.Inf(-1)
	c := newChart(size)

	for k := 1; k <= n; k++ {
		for s := 0; s+k <= n; s++ {
			t := s + k

			// 不完全スパン: 左右の完全スパンを繋ぎ、アーク(s,t)または(t,s)を足す。
			// 分割点の価値は方向に依らないので、argmaxは共通。
			bestV, bestR := negInf, s
			for r := s; r < t; r++ {
				v := c.complete[c.at(s, r, right)] + c.complete[c.at(r+1, t, left)]
				if v > bestV {
					bestV = v
					bestR = r
				}
			}

			leftVal := bestV + sc[t][s]
			if s == 0 {
				// ルートは係り先になれない。
				leftVal = negInf
			}
			c.incomplete[c.at(s, t, left)] = leftVal
			c.incompleteBk[c.at(s, t, left)] = bestR
			c.incomplete[c.at(s, t, right)] = bestV + sc[s][t]
			c.incompleteBk[c.at(s, t, right)] = bestR

			// 完全スパン（左向き）: 完全スパン + 不完全スパン。
			bestV, bestR = negInf, s
			for r := s; r < t; r++ {
				v := c.complete[c.at(s, r, left)] + c.incomplete[c.at(r, t, left)]
				if v > bestV {
					bestV = v
					bestR = r
				}
			}
			c.complete[c.at(s, t, left)] = bestV
			c.completeBk[c.at(s, t, left)] = bestR

			// 完全スパン（右向き）: 不完全スパン + 完全スパン。
			bestV, bestR = negInf, s+1
			for r := s + 1; r <= t; r++ {
				v := c.incomplete[c.at(s, r, right)] + c.complete[c.at(r, t, right)]
				if v > bestV {
					bestV = v
					bestR = r
				}
			}
			c.complete[c.at(s, t, right)] = bestV
			c.completeBk[c.at(s, t, right)] = bestR
		}
	}

	heads := make([]int, size)
	for i := range heads {
		heads[i] = -1
	}
	c.walkComplete(0, n, right, heads)

	out := make(dtree.Heads, n)
	copy(out, heads[1:])
	return out, nil
}
