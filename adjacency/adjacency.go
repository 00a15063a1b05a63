// Package adjacency builds and reshapes the dense score matrices the tree
// decoders consume. Matrices are blas32.General of size (N+1)x(N+1): row =
// head index, column = dependent index, index 0 is the synthetic root, and
// cells without a candidate arc hold the negative-infinity sentinel.
//
// Package adjacency は、木デコーダが消費する密スコア行列を構築・変形します。
// 行列は (N+1)x(N+1) の blas32.General で、行がヘッド・列が係り先・0番が
// 仮想ルートを表し、候補アークの無いセルには負の無限大の番兵値が入ります。
package adjacency

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chewxy/math32"
	"github.com/sw965/lark/dtree"
	"gonum.org/v1/gonum/blas/blas32"
)

var (
	ErrNonPositiveTokens = errors.New("トークン数エラー: 1以上である必要があります")
	ErrNotSquare         = errors.New("形状エラー: 正方行列である必要があります")
	ErrLengthMismatch    = errors.New("長さ不一致エラー: 要素数が一致しません")
	ErrArcOutOfRange     = errors.New("アークエラー: 範囲外のインデックスです")
	ErrBadScore          = errors.New("スコアエラー: NaN・Infは入力出来ません")
	ErrUnattachable      = errors.New("接続不能エラー: 接続候補が存在しないトークンがあります")
)

// Unreachable is the sentinel score for cells with no candidate arc.
var Unreachable = math32.Inf(-1)

func NewZeros(rows, cols int) blas32.General {
	return blas32.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   make([]float32, rows*cols),
	}
}

// At returns the flat Data index of (row, col).
func At(gen blas32.General, row, col int) int {
	return row*gen.Stride + col
}

func Clone(gen blas32.General) blas32.General {
	return blas32.General{
		Rows:   gen.Rows,
		Cols:   gen.Cols,
		Stride: gen.Stride,
		Data:   slices.Clone(gen.Data),
	}
}

func ToVector(gen blas32.General) blas32.Vector {
	return blas32.Vector{
		N:    gen.Rows * gen.Cols,
		Inc:  1,
		Data: gen.Data,
	}
}

func Transpose(gen blas32.General) blas32.General {
	t := NewZeros(gen.Cols, gen.Rows)
	for i := range t.Rows {
		for j := range t.Cols {
			t.Data[At(t, i, j)] = gen.Data[At(gen, j, i)]
		}
	}
	return t
}

// FromArcs scatters candidate arc scores into a dense (n+1)x(n+1) matrix.
// Dependents name real tokens (1..n); duplicate arcs accumulate additively.
// Afterwards every cell whose accumulated value is exactly 0 becomes
// Unreachable: under the accumulation rule a zero is indistinguishable from
// "no candidate", so a legitimately zero-valued score is treated as absent.
//
// FromArcsは、候補アークのスコアを (n+1)x(n+1) の密行列へ書き込みます。
// 加算規則の下では丁度0の値は「候補無し」と区別出来ない為、書き込み後に
// 丁度0のセルは番兵値に置き換わります。
func FromArcs(arcs dtree.Arcs, logits []float32, n int) (blas32.General, error) {
	if n <= 0 {
		return blas32.General{}, fmt.Errorf("%w: n=%d", ErrNonPositiveTokens, n)
	}
	if len(arcs) != len(logits) {
		return blas32.General{}, fmt.Errorf("%w: arcs=%d logits=%d", ErrLengthMismatch, len(arcs), len(logits))
	}

	gen := NewZeros(n+1, n+1)
	for i, a := range arcs {
		if a.Head < 0 || a.Head > n || a.Dependent < 1 || a.Dependent > n {
			return blas32.General{}, fmt.Errorf("%w: arc=%v n=%d", ErrArcOutOfRange, a, n)
		}
		v := logits[i]
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return blas32.General{}, fmt.Errorf("%w: arc=%v score=%v", ErrBadScore, a, v)
		}
		gen.Data[At(gen, a.Head, a.Dependent)] += v
	}

	for i, v := range gen.Data {
		if v == 0 {
			gen.Data[i] = Unreachable
		}
	}
	return gen, nil
}

// FromTree builds the 0/1 adjacency matrix of a tree's edge list.
func FromTree(arcs dtree.Arcs, n int) (blas32.General, error) {
	if n <= 0 {
		return blas32.General{}, fmt.Errorf("%w: n=%d", ErrNonPositiveTokens, n)
	}

	gen := NewZeros(n+1, n+1)
	for _, a := range arcs {
		if a.Head < 0 || a.Head > n || a.Dependent < 1 || a.Dependent > n {
			return blas32.General{}, fmt.Errorf("%w: arc=%v n=%d", ErrArcOutOfRange, a, n)
		}
		gen.Data[At(gen, a.Head, a.Dependent)] = 1
	}
	return gen, nil
}

// SliceOut removes the rows and columns of rest tokens, keeping the root
// row/column. The result is the compact matrix the decoders operate on.
func SliceOut(gen blas32.General, rests dtree.RestMask) (blas32.General, error) {
	if gen.Rows != gen.Cols {
		return blas32.General{}, fmt.Errorf("%w: rows=%d cols=%d", ErrNotSquare, gen.Rows, gen.Cols)
	}
	if len(rests) != gen.Rows-1 {
		return blas32.General{}, fmt.Errorf("%w: mask=%d rows=%d", ErrLengthMismatch, len(rests), gen.Rows)
	}

	keep := make([]int, 0, gen.Rows)
	keep = append(keep, 0)
	for i, rest := range rests {
		if !rest {
			keep = append(keep, i+1)
		}
	}

	out := NewZeros(len(keep), len(keep))
	for i, r := range keep {
		for j, c := range keep {
			out.Data[At(out, i, j)] = gen.Data[At(gen, r, c)]
		}
	}
	return out, nil
}

// CheckDecodable reports whether a score matrix can be decoded at all:
// square, at least one token, and every dependent column holding at least
// one non-sentinel candidate head.
func CheckDecodable(gen blas32.General) error {
	if gen.Rows != gen.Cols {
		return fmt.Errorf("%w: rows=%d cols=%d", ErrNotSquare, gen.Rows, gen.Cols)
	}
	if gen.Rows < 2 {
		return fmt.Errorf("%w: rows=%d", ErrNonPositiveTokens, gen.Rows)
	}

	for d := 1; d < gen.Cols; d++ {
		ok := false
		for h := range gen.Rows {
			if h == d {
				continue
			}
			if !math32.IsInf(gen.Data[At(gen, h, d)], -1) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: token=%d", ErrUnattachable, d)
		}
	}
	return nil
}
