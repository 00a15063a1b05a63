// Package dtree provides the dependency-tree values the decoding pipeline
// passes between stages: head arrays, arc lists and rest masks.
//
// Package dtree は、デコードパイプラインの各段階がやり取りする係り受け木の値
// （ヘッド配列・アークリスト・休符マスク）を提供します。
package dtree

import (
	"errors"
	"fmt"
)

// NoHead は、ヘッドを持たない（休符である）事を表す番兵値。
const NoHead = -1

var (
	ErrLengthMismatch = errors.New("長さ不一致エラー: 要素数が一致しません")

	ErrHeadOutOfRange = errors.New("ヘッドエラー: 範囲外のインデックスです")
	ErrSelfLoop       = errors.New("自己ループエラー: ヘッドと係り先が同じトークンです")
	ErrDuplicateHead  = errors.New("ヘッド重複エラー: 係り先に複数のヘッドが割り当てられています")

	ErrRootCount = errors.New("ルートエラー: ルートに接続するトークンが1つである必要があります")
	ErrCycle     = errors.New("循環エラー: 係り受け木に閉路があります")
	ErrRestHead  = errors.New("休符エラー: 休符位置を指すヘッドがあります")
)

// Heads maps each token to its head. Index i holds the head of token i+1
// (tokens are 1-based, 0 is the synthetic root), so a slice of length N
// covers an N-token sequence. NoHead marks detached rest positions.
//
// Headsは、各トークンのヘッドを保持します。インデックスiはトークンi+1のヘッドを表し、
// ヘッド値0は仮想ルートへの接続を意味します。休符位置にはNoHeadが入ります。
type Heads []int

func (hs Heads) TokenCount() int {
	return len(hs)
}

// Roots returns the 1-based tokens attached to the root.
func (hs Heads) Roots() []int {
	roots := []int{}
	for i, h := range hs {
		if h == 0 {
			roots = append(roots, i+1)
		}
	}
	return roots
}

// Validate checks the single-root dependency-tree invariants: every head in
// range, no self loops, no heads pointing at rests, exactly one root, no
// cycles. Rest positions themselves are exempt.
//
// Validateは、単一ルートの係り受け木の不変条件（範囲内のヘッド・自己ループ無し・
// 休符参照無し・ルート接続が1つ・閉路無し）を検査します。
func (hs Heads) Validate() error {
	n := len(hs)
	for i, h := range hs {
		if h == NoHead {
			continue
		}
		if h < 0 || h > n {
			return fmt.Errorf("%w: token=%d head=%d n=%d", ErrHeadOutOfRange, i+1, h, n)
		}
		if h == i+1 {
			return fmt.Errorf("%w: token=%d", ErrSelfLoop, i+1)
		}
		if h != 0 && hs[h-1] == NoHead {
			return fmt.Errorf("%w: token=%d head=%d", ErrRestHead, i+1, h)
		}
	}

	roots := hs.Roots()
	if len(roots) != 1 {
		return fmt.Errorf("%w: roots=%v", ErrRootCount, roots)
	}

	// 各トークンからヘッドを辿ってルートへ到達出来れば、閉路は無い。
	const (
		unknown = iota
		visiting
		done
	)
	states := make([]int, n+1)
	states[0] = done
	for i, h := range hs {
		if h == NoHead {
			states[i+1] = done
		}
	}

	for i := range hs {
		tok := i + 1
		if states[tok] != unknown {
			continue
		}
		path := []int{}
		cur := tok
		for states[cur] == unknown {
			states[cur] = visiting
			path = append(path, cur)
			cur = hs[cur-1]
		}
		if states[cur] == visiting {
			return fmt.Errorf("%w: token=%d", ErrCycle, cur)
		}
		for _, t := range path {
			states[t] = done
		}
	}
	return nil
}

// Arc is a directed dependency edge. Head and Dependent are 1-based token
// positions; Head==0 is an attachment to the synthetic root.
type Arc struct {
	Head      int
	Dependent int
}

type Arcs []Arc

// Arcs lists the tree's edges in token order. Rest positions contribute
// nothing and the root self-loop is never included; root attachments appear
// with Head==0.
func (hs Heads) Arcs() Arcs {
	arcs := make(Arcs, 0, len(hs))
	for i, h := range hs {
		if h == NoHead {
			continue
		}
		arcs = append(arcs, Arc{Head: h, Dependent: i + 1})
	}
	return arcs
}

// Rootless drops the arcs attached to the root.
func (as Arcs) Rootless() Arcs {
	kept := make(Arcs, 0, len(as))
	for _, a := range as {
		if a.Head == 0 {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// HeadsFromArcs rebuilds a head array over n tokens from an edge list.
// Positions no arc points at stay NoHead; a dependent named by two arcs is an
// error.
func HeadsFromArcs(arcs Arcs, n int) (Heads, error) {
	hs := make(Heads, n)
	for i := range hs {
		hs[i] = NoHead
	}

	for _, a := range arcs {
		if a.Dependent < 1 || a.Dependent > n || a.Head < 0 || a.Head > n {
			return nil, fmt.Errorf("%w: arc=%v n=%d", ErrHeadOutOfRange, a, n)
		}
		if a.Head == a.Dependent {
			return nil, fmt.Errorf("%w: arc=%v", ErrSelfLoop, a)
		}
		if hs[a.Dependent-1] != NoHead {
			return nil, fmt.Errorf("%w: dependent=%d", ErrDuplicateHead, a.Dependent)
		}
		hs[a.Dependent-1] = a.Head
	}
	return hs, nil
}
