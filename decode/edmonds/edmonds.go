// Package edmonds implements the non-projective dependency decoder: the
// Chu-Liu-Edmonds maximum spanning arborescence with a single-root
// guarantee. Cycles in the per-token best-head selection are contracted into
// pseudo-nodes via remapped index arrays and the contracted problem is solved
// recursively (depth is bounded by the token count).
//
// Package edmonds は非射影的な係り受けデコーダ（Chu-Liu-Edmonds法による最大
// 全域有向木）を実装します。トークン毎の最良ヘッド選択に生じた閉路は、
// インデックスを写し替えた縮約問題として再帰的に解かれます。
package edmonds

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/sw965/lark/adjacency"
	"github.com/sw965/lark/dtree"
	"gonum.org/v1/gonum/blas/blas32"
)

var ErrNoSingleRoot = errors.New("ルート探索エラー: 有限スコアで単一ルートの全域木を構成出来ません")

func cloneScores(scores [][]float64) [][]float64 {
	out := make([][]float64, len(scores))
	for i, row := range scores {
		out[i] = slices.Clone(row)
	}
	return out
}

// findCycle returns one cycle of the out-degree-one selection graph, sorted
// ascending, or nil. Node 0 never participates.
func findCycle(tree []int) []int {
	n := len(tree)
	const (
		unknown = iota
		visiting
		done
	)
	states := make([]int, n)
	states[0] = done

	for i := 1; i < n; i++ {
		if states[i] != unknown {
			continue
		}
		path := []int{}
		cur := i
		for states[cur] == unknown {
			states[cur] = visiting
			path = append(path, cur)
			cur = tree[cur]
		}
		if states[cur] == visiting {
			cycle := slices.Clone(path[slices.Index(path, cur):])
			slices.Sort(cycle)
			return cycle
		}
		for _, v := range path {
			states[v] = done
		}
	}
	return nil
}

// run solves the maximum arborescence of a dependent-major score matrix
// (row = dependent, column = head). The matrix is consumed: the diagonal and
// the root row are overwritten. Returned heads may include -inf edges; the
// caller judges quality.
func run(scores [][]float64) []int {
	n := len(scores)
	negInf := math.Inf(-1)

	for i := range scores {
		scores[i][i] = negInf
	}
	for j := range scores[0] {
		scores[0][j] = negInf
	}
	scores[0][0] = 0

	// トークン毎に最良の入り辺を選ぶ。同点は常に先頭を選ぶ。
	tree := make([]int, n)
	for d := range scores {
		best, bestH := scores[d][0], 0
		for h := 1; h < n; h++ {
			if scores[d][h] > best {
				best = scores[d][h]
				bestH = h
			}
		}
		tree[d] = bestH
	}

	cycle := findCycle(tree)
	if cycle == nil {
		return tree
	}

	inCycle := make([]bool, n)
	for _, c := range cycle {
		inCycle[c] = true
	}

	// 閉路内で選ばれている辺と、その合計スコア。
	cycleEdge := make(map[int]float64, len(cycle))
	cycleScore := 0.0
	for _, c := range cycle {
		cycleEdge[c] = scores[c][tree[c]]
		cycleScore += scores[c][tree[c]]
	}

	nonCycle := make([]int, 0, n-len(cycle))
	for i := range n {
		if !inCycle[i] {
			nonCycle = append(nonCycle, i)
		}
	}
	m := len(nonCycle) // 縮約後のメタノードのインデックス

	sub := make([][]float64, m+1)
	for i := range sub {
		sub[i] = make([]float64, m+1)
	}
	for i, a := range nonCycle {
		for j, b := range nonCycle {
			sub[i][j] = scores[a][b]
		}
	}

	// メタノードへの入り辺: 外のヘッドbに付け替える閉路ノードを選ぶ。
	// 付け替えで外れる閉路内の辺を引き、閉路全体のスコアを足す事で、
	// 縮約問題の総スコアが展開後の木のスコアと一致する。
	entry := make([]int, m)
	for j, b := range nonCycle {
		best, bestC := negInf, cycle[0]
		for _, c := range cycle {
			v := scores[c][b] - cycleEdge[c] + cycleScore
			if v > best {
				best = v
				bestC = c
			}
		}
		sub[m][j] = best
		entry[j] = bestC
	}

	// メタノードからの出辺: 外の係り先aが付くのに最良な閉路ノードを選ぶ。
	exit := make([]int, m)
	for i, a := range nonCycle {
		best, bestC := negInf, cycle[0]
		for _, c := range cycle {
			if scores[a][c] > best {
				best = scores[a][c]
				bestC = c
			}
		}
		sub[i][m] = best
		exit[i] = bestC
	}

	subTree := run(sub)

	heads := make([]int, n)
	for _, c := range cycle {
		heads[c] = tree[c]
	}
	for i, a := range nonCycle {
		h := subTree[i]
		if h == m {
			heads[a] = exit[i]
		} else {
			heads[a] = nonCycle[h]
		}
	}

	// メタノードのヘッドが決まったので、その地点で閉路を破る。
	mh := subTree[m]
	heads[entry[mh]] = nonCycle[mh]
	return heads
}

func rootsOf(tree []int) []int {
	roots := []int{}
	for d := 1; d < len(tree); d++ {
		if tree[d] == 0 {
			roots = append(roots, d)
		}
	}
	return roots
}

// oneRoot retries the arborescence with each candidate root pinned when the
// first pass attaches several tokens to the root, and keeps the best
// finite-scoring tree.
func oneRoot(scores [][]float64) ([]int, error) {
	n := len(scores)
	tree := run(cloneScores(scores))
	roots := rootsOf(tree)
	if len(roots) == 1 {
		return tree, nil
	}

	negInf := math.Inf(-1)
	bestScore := negInf
	var bestTree []int

	for _, root := range roots {
		pinned := cloneScores(scores)
		rootScore := pinned[root][0]
		for d := 1; d < n; d++ {
			pinned[d][0] = negInf
		}
		for h := range pinned[root] {
			pinned[root][h] = negInf
		}
		pinned[root][0] = 0

		cand := run(pinned)

		total := rootScore
		valid := true
		for d := 1; d < n; d++ {
			v := pinned[d][cand[d]]
			if math.IsInf(v, -1) {
				valid = false
				break
			}
			total += v
		}
		if !valid {
			continue
		}
		if total > bestScore {
			bestScore = total
			bestTree = cand
		}
	}

	if bestTree == nil {
		return nil, fmt.Errorf("%w: roots=%v", ErrNoSingleRoot, roots)
	}
	return bestTree, nil
}

// Decode finds the maximum spanning arborescence of a dense score matrix
// (rows = heads, columns = dependents, index 0 = the root). Exactly one token
// is attached to the root and no cycles occur; projectivity is not
// guaranteed. The input matrix is never mutated.
//
// Decodeは、密スコア行列の最大全域有向木を求めます。ルートへ接続される
// トークンは必ず1つで、閉路もありませんが、射影性は保証されません。
func Decode(scores blas32.General) (dtree.Heads, error) {
	if scores.Rows != scores.Cols {
		return nil, fmt.Errorf("%w: rows=%d cols=%d", adjacency.ErrNotSquare, scores.Rows, scores.Cols)
	}
	n := scores.Rows - 1
	if n < 1 {
		return nil, fmt.Errorf("%w: rows=%d", adjacency.ErrNonPositiveTokens, scores.Rows)
	}

	// 内部では係り先を行とする転置行列をfloat64で扱う。
	tr := adjacency.Transpose(scores)
	sc := make([][]float64, tr.Rows)
	for i := range sc {
		sc[i] = make([]float64, tr.Cols)
		for j := range sc[i] {
			sc[i][j] = float64(tr.Data[adjacency.At(tr, i, j)])
		}
	}

	tree, err := oneRoot(sc)
	if err != nil {
		return nil, err
	}

	out := make(dtree.Heads, n)
	copy(out, tree[1:])
	return out, nil
}
