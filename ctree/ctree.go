// Package ctree converts a dependency tree into an unlabeled constituency
// tree: each head governs one contiguous span made of its own position and
// the spans of all its dependents. Contiguity holds only for projective
// trees; a non-contiguous span is a hard error, never a silent approximation.
//
// Package ctree は係り受け木をラベル無しの句構造木へ変換します。各ヘッドは
// 自身の位置と全ての係り先のスパンを合わせた1つの連続スパンを支配します。
// 連続性は射影的な木でのみ成り立ち、破れた場合は必ずエラーになります。
package ctree

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sw965/omw/slicesx"

	"github.com/sw965/lark/dtree"
)

var (
	ErrNoArcs             = errors.New("アークエラー: 空のアークリストから木は作れません")
	ErrDuplicateDependent = errors.New("アークエラー: 同じ係り先が複数のアークに現れています")
	ErrNonProjective      = errors.New("射影性エラー: 部分木のスパンが連続していません")
)

// Span is a closed interval of original token positions.
type Span struct {
	Start int
	End   int
}

// Node is one constituent. A leaf has no children and Start == End.
type Node struct {
	Start    int
	End      int
	Children []*Node
}

func (n *Node) Leaf() bool {
	return len(n.Children) == 0
}

func (n *Node) Span() Span {
	return Span{Start: n.Start, End: n.End}
}

// Nodes lists the subtree's nodes in preorder, the node itself first.
func (n *Node) Nodes() []*Node {
	nodes := []*Node{n}
	for _, c := range n.Children {
		nodes = append(nodes, c.Nodes()...)
	}
	return nodes
}

// Spans lists the spans of all nodes in preorder.
func (n *Node) Spans() []Span {
	nodes := n.Nodes()
	spans := make([]Span, len(nodes))
	for i, node := range nodes {
		spans[i] = node.Span()
	}
	return spans
}

// Leaves lists the leaf positions from left to right.
func (n *Node) Leaves() []int {
	if n.Leaf() {
		return []int{n.Start}
	}
	leaves := []int{}
	for _, c := range n.Children {
		leaves = append(leaves, c.Leaves()...)
	}
	return leaves
}

// String renders the tree as nested brackets over token positions,
// for example "(1 (2 3))".
//
// Stringは木を入れ子の括弧表記で描画します。例: "(1 (2 3))"
func (n *Node) String() string {
	if n.Leaf() {
		return strconv.Itoa(n.Start)
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

type builder struct {
	positions []int // 参加トークンの昇順リスト
	ranks     map[int]int
	children  map[int][]int
}

// build returns the constituent governed by pos along with the rank range
// and leaf count of its yield. Contiguity is checked in rank space so that
// gaps left by reinserted rests do not break projective trees.
func (b *builder) build(pos int) (*Node, int, int, int, error) {
	deps := b.children[pos]
	if len(deps) == 0 {
		r := b.ranks[pos]
		return &Node{Start: pos, End: pos}, r, r, 1, nil
	}

	r := b.ranks[pos]
	minRank, maxRank, leafCount := r, r, 1
	nodes := []*Node{{Start: pos, End: pos}}
	for _, d := range deps {
		child, lo, hi, count, err := b.build(d)
		if err != nil {
			return nil, 0, 0, 0, err
		}
		nodes = append(nodes, child)
		minRank = min(minRank, lo)
		maxRank = max(maxRank, hi)
		leafCount += count
	}

	if maxRank-minRank+1 != leafCount {
		return nil, 0, 0, 0, fmt.Errorf(
			"%w: token=%d span=[%d,%d]",
			ErrNonProjective, pos, b.positions[minRank], b.positions[maxRank],
		)
	}

	slices.SortFunc(nodes, func(a, b *Node) int { return cmp.Compare(a.Start, b.Start) })
	node := &Node{
		Start:    b.positions[minRank],
		End:      b.positions[maxRank],
		Children: nodes,
	}
	return node, minRank, maxRank, leafCount, nil
}

// FromArcs builds the constituency tree of a dependency arc list. The arcs
// must form a valid single-root tree; positions missing from the list (rests)
// are simply absent from the result. A dependent whose yield is not
// contiguous makes the tree non-projective and conversion fails.
//
// FromArcsは係り受けアークのリストから句構造木を組み立てます。アークは
// 単一ルートの正しい木である必要があり、リストに現れない位置（休符）は
// 結果にも現れません。支配域が連続しない木は射影的でないため失敗します。
func FromArcs(arcs dtree.Arcs) (*Node, error) {
	if len(arcs) == 0 {
		return nil, ErrNoArcs
	}

	deps := make([]int, len(arcs))
	for i, a := range arcs {
		deps[i] = a.Dependent
	}
	if !slicesx.IsUnique(deps) {
		return nil, fmt.Errorf("%w: dependents=%v", ErrDuplicateDependent, deps)
	}

	n := 0
	for _, a := range arcs {
		n = max(n, a.Head, a.Dependent)
	}

	heads, err := dtree.HeadsFromArcs(arcs, n)
	if err != nil {
		return nil, err
	}
	if err := heads.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		positions: []int{},
		ranks:     map[int]int{},
		children:  map[int][]int{},
	}
	root := 0
	for i, h := range heads {
		if h == dtree.NoHead {
			continue
		}
		pos := i + 1
		b.ranks[pos] = len(b.positions)
		b.positions = append(b.positions, pos)
		if h == 0 {
			root = pos
		} else {
			b.children[h] = append(b.children[h], pos)
		}
	}

	node, _, _, _, err := b.build(root)
	if err != nil {
		return nil, err
	}
	return node, nil
}
