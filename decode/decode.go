// Package decode is the entry point for dependency decoding: algorithm
// selection, decodability checks, and the repair pass for degenerate
// multi-root results.
//
// Package decode は係り受けデコードの入口です。アルゴリズムの選択、
// デコード可能性の検査、複数ルートに陥った結果の修復パスをまとめます。
package decode

import (
	"errors"
	"fmt"

	"github.com/sw965/omw/parallel"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/sw965/lark/adjacency"
	"github.com/sw965/lark/decode/edmonds"
	"github.com/sw965/lark/decode/eisner"
	"github.com/sw965/lark/dtree"
)

var ErrUnknownAlgorithm = errors.New("アルゴリズムエラー: 未定義のアルゴリズムです")

// Algorithm selects the decoder. The zero value is Projective.
type Algorithm int

const (
	// Projective is the Eisner dynamic program. Output trees never contain
	// crossing arcs.
	Projective Algorithm = iota

	// NonProjective is the Chu-Liu-Edmonds maximum spanning arborescence.
	// Crossing arcs are allowed.
	NonProjective
)

func (a Algorithm) Validate() error {
	switch a {
	case Projective, NonProjective:
		return nil
	}
	return fmt.Errorf("%w: algorithm=%d", ErrUnknownAlgorithm, int(a))
}

func (a Algorithm) String() string {
	switch a {
	case Projective:
		return "projective"
	case NonProjective:
		return "non_projective"
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// Result carries the decoded tree and what happened on the way to it.
type Result struct {
	Heads dtree.Heads

	// MultiRoot reports whether the raw decode attached several tokens to
	// the root.
	MultiRoot bool

	// Repaired reports whether the root row was clamped and the matrix
	// decoded a second time.
	Repaired bool
}

// clampRoot blocks every root arc except the first and the last column, so
// that a second decode cannot spread root attachments again.
func clampRoot(gen blas32.General) blas32.General {
	out := adjacency.Clone(gen)
	for j := range out.Cols {
		out.Data[adjacency.At(out, 0, j)] = adjacency.Unreachable
	}
	out.Data[adjacency.At(out, 0, 0)] = 0
	out.Data[adjacency.At(out, 0, out.Cols-1)] = 0
	return out
}

// Run checks that the matrix is decodable and runs the selected decoder.
// When the projective decoder returns a degenerate multi-root forest, the
// root row is clamped and the matrix is decoded once more; the non-projective
// decoder resolves multiple roots internally.
//
// Runは行列の検査後に指定のデコーダを実行します。射影デコーダが複数ルート
// の森に倒れた場合は、ルート行を封じてもう一度だけデコードし直します。
// 非射影デコーダは内部で単一ルートを解決します。
func Run(scores blas32.General, algo Algorithm) (Result, error) {
	if err := algo.Validate(); err != nil {
		return Result{}, err
	}
	if err := adjacency.CheckDecodable(scores); err != nil {
		return Result{}, err
	}

	switch algo {
	case NonProjective:
		heads, err := edmonds.Decode(scores)
		if err != nil {
			return Result{}, err
		}
		return Result{Heads: heads}, nil
	case Projective:
		heads, err := eisner.Decode(scores)
		if err != nil {
			return Result{}, err
		}
		if len(heads.Roots()) <= 1 {
			return Result{Heads: heads}, nil
		}
		repaired, err := eisner.Decode(clampRoot(scores))
		if err != nil {
			return Result{}, err
		}
		return Result{Heads: repaired, MultiRoot: true, Repaired: true}, nil
	}
	panic("BUG: Validateを通過した未定義のアルゴリズム")
}

// RunBatch decodes each matrix with p workers. Order is preserved.
func RunBatch(scoresList []blas32.General, algo Algorithm, p int) ([]Result, error) {
	results := make([]Result, len(scoresList))
	err := parallel.For(len(scoresList), p, func(workerId, idx int) error {
		result, err := Run(scoresList[idx], algo)
		if err != nil {
			return fmt.Errorf("idx=%d: %w", idx, err)
		}
		results[idx] = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
