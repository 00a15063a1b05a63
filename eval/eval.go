// Package eval runs the whole pipeline for one musical excerpt: score matrix
// assembly, rest exclusion, decoding, rest reinsertion, constituency
// conversion, and metric computation against a reference tree.
//
// Package eval は1つの楽曲断片に対する処理全体を実行します。スコア行列の
// 組み立て、休符の除外、デコード、休符の再挿入、句構造木への変換、参照木
// に対する評価指標の計算をまとめます。
package eval

import (
	"errors"
	"fmt"

	"github.com/sw965/omw/parallel"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/sw965/lark/adjacency"
	"github.com/sw965/lark/ctree"
	"github.com/sw965/lark/decode"
	"github.com/sw965/lark/dtree"
	"github.com/sw965/lark/metrics"
)

var ErrRestMismatch = errors.New("休符エラー: 休符マスクと参照ヘッドの休符位置が一致しません")

// Input is everything needed to decode and evaluate one excerpt.
// Rests may be nil when every token participates. Reference may be nil,
// in which case only decoding is performed and the report stays zero.
// When both are given, the reference must hold dtree.NoHead exactly at the
// masked positions.
type Input struct {
	// TokenCount is the number of tokens in the original sequence,
	// rests included.
	TokenCount int

	// Arcs and Logits are the scored candidate arcs, indexed over the
	// original sequence.
	Arcs   dtree.Arcs
	Logits []float32

	Rests     dtree.RestMask
	Algorithm decode.Algorithm

	// Reference is the gold head array over the original sequence, with
	// dtree.NoHead at rest positions.
	Reference dtree.Heads
}

func (in *Input) Validate() error {
	if in.TokenCount <= 0 {
		return fmt.Errorf("%w: tokenCount=%d", adjacency.ErrNonPositiveTokens, in.TokenCount)
	}
	if len(in.Arcs) != len(in.Logits) {
		return fmt.Errorf("%w: arcs=%d logits=%d", dtree.ErrLengthMismatch, len(in.Arcs), len(in.Logits))
	}
	if in.Rests != nil && len(in.Rests) != in.TokenCount {
		return fmt.Errorf("%w: rests=%d tokenCount=%d", dtree.ErrLengthMismatch, len(in.Rests), in.TokenCount)
	}
	if in.Reference != nil && len(in.Reference) != in.TokenCount {
		return fmt.Errorf("%w: reference=%d tokenCount=%d", dtree.ErrLengthMismatch, len(in.Reference), in.TokenCount)
	}
	if in.Rests != nil && in.Reference != nil {
		for i, rest := range in.Rests {
			if rest != (in.Reference[i] == dtree.NoHead) {
				return fmt.Errorf("%w: token=%d", ErrRestMismatch, i+1)
			}
		}
	}
	return in.Algorithm.Validate()
}

// Report carries the scalar metrics against the reference tree, each in [0,1].
type Report struct {
	HeadAccuracy   float64
	ArcAccuracy    float64
	ArcF1          float64
	SpanSimilarity float64
	NodeSimilarity float64
}

// Output is the decoded structure for one excerpt. Scores is the dense
// matrix over the original sequence, before rest exclusion.
type Output struct {
	Scores blas32.General
	Heads  dtree.Heads
	Arcs   dtree.Arcs
	Tree   *ctree.Node

	MultiRoot bool
	Repaired  bool

	Report Report
}

// Run decodes one excerpt and, when a reference is given, fills the report.
//
// Runは1つの断片をデコードし、参照木があれば評価指標も計算します。
func Run(in *Input) (*Output, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	scores, err := adjacency.FromArcs(in.Arcs, in.Logits, in.TokenCount)
	if err != nil {
		return nil, err
	}

	decodeIn := scores
	if in.Rests != nil {
		decodeIn, err = adjacency.SliceOut(scores, in.Rests)
		if err != nil {
			return nil, err
		}
	}

	result, err := decode.Run(decodeIn, in.Algorithm)
	if err != nil {
		return nil, err
	}

	heads := result.Heads
	if in.Rests != nil {
		heads, err = dtree.Reinsert(heads, in.Rests)
		if err != nil {
			return nil, err
		}
	}

	arcs := heads.Arcs()
	tree, err := ctree.FromArcs(arcs)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Scores:    scores,
		Heads:     heads,
		Arcs:      arcs,
		Tree:      tree,
		MultiRoot: result.MultiRoot,
		Repaired:  result.Repaired,
	}
	if in.Reference == nil {
		return out, nil
	}

	headAcc, err := metrics.HeadAccuracy(heads, in.Reference, dtree.NoHead)
	if err != nil {
		return nil, err
	}
	refArcs := in.Reference.Arcs()
	refTree, err := ctree.FromArcs(refArcs)
	if err != nil {
		return nil, err
	}

	out.Report = Report{
		HeadAccuracy:   headAcc,
		ArcAccuracy:    metrics.CompareArcs(arcs.Rootless(), refArcs.Rootless()).Accuracy(),
		ArcF1:          metrics.CompareArcs(arcs, refArcs).F1(),
		SpanSimilarity: metrics.SpanSimilarity(tree, refTree),
		NodeSimilarity: metrics.NodeSimilarity(tree, refTree),
	}
	return out, nil
}

// RunMany evaluates each input with p workers. Order is preserved.
func RunMany(inputs []*Input, p int) ([]*Output, error) {
	outputs := make([]*Output, len(inputs))
	err := parallel.For(len(inputs), p, func(workerId, idx int) error {
		out, err := Run(inputs[idx])
		if err != nil {
			return fmt.Errorf("idx=%d: %w", idx, err)
		}
		outputs[idx] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outputs, nil
}
