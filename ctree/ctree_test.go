package ctree_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/sw965/lark/ctree"
	"github.com/sw965/lark/dtree"
)

func TestFromArcsChain(t *testing.T) {
	arcs := dtree.Arcs{
		{Head: 0, Dependent: 1},
		{Head: 1, Dependent: 2},
		{Head: 2, Dependent: 3},
	}
	root, err := ctree.FromArcs(arcs)
	if err != nil {
		t.Fatal(err)
	}

	if got := root.String(); got != "(1 (2 3))" {
		t.Errorf("want: (1 (2 3)), got: %s", got)
	}

	wantSpans := []ctree.Span{
		{Start: 1, End: 3},
		{Start: 1, End: 1},
		{Start: 2, End: 3},
		{Start: 2, End: 2},
		{Start: 3, End: 3},
	}
	if got := root.Spans(); !slices.Equal(got, wantSpans) {
		t.Errorf("want: %v, got: %v", wantSpans, got)
	}

	if got := root.Leaves(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("want: [1 2 3], got: %v", got)
	}
}

func TestFromArcsFlat(t *testing.T) {
	arcs := dtree.Arcs{
		{Head: 0, Dependent: 1},
		{Head: 1, Dependent: 2},
		{Head: 1, Dependent: 3},
	}
	root, err := ctree.FromArcs(arcs)
	if err != nil {
		t.Fatal(err)
	}

	if got := root.String(); got != "(1 2 3)" {
		t.Errorf("want: (1 2 3), got: %s", got)
	}
}

func TestFromArcsSingleToken(t *testing.T) {
	root, err := ctree.FromArcs(dtree.Arcs{{Head: 0, Dependent: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !root.Leaf() {
		t.Errorf("want: leaf, got: %v", root)
	}
	if got := root.String(); got != "1" {
		t.Errorf("want: 1, got: %s", got)
	}
}

// 休符の再挿入で生じた位置の飛びは、圧縮した順位空間で連続とみなす。
// スパンの境界は元の位置で報告される。
func TestFromArcsRestGap(t *testing.T) {
	heads := dtree.Heads{0, dtree.NoHead, 1, 3, dtree.NoHead}
	root, err := ctree.FromArcs(heads.Arcs())
	if err != nil {
		t.Fatal(err)
	}

	if got := root.String(); got != "(1 (3 4))" {
		t.Errorf("want: (1 (3 4)), got: %s", got)
	}

	wantSpans := []ctree.Span{
		{Start: 1, End: 4},
		{Start: 1, End: 1},
		{Start: 3, End: 4},
		{Start: 3, End: 3},
		{Start: 4, End: 4},
	}
	if got := root.Spans(); !slices.Equal(got, wantSpans) {
		t.Errorf("want: %v, got: %v", wantSpans, got)
	}
}

func TestFromArcsNonProjective(t *testing.T) {
	// トークン2の支配域が{2,4}となり連続しない。
	arcs := dtree.Arcs{
		{Head: 0, Dependent: 1},
		{Head: 3, Dependent: 2},
		{Head: 1, Dependent: 3},
		{Head: 2, Dependent: 4},
	}
	if _, err := ctree.FromArcs(arcs); !errors.Is(err, ctree.ErrNonProjective) {
		t.Errorf("want: %v, got: %v", ctree.ErrNonProjective, err)
	}
}

func TestFromArcsDeterministic(t *testing.T) {
	arcs := dtree.Arcs{
		{Head: 0, Dependent: 2},
		{Head: 2, Dependent: 1},
		{Head: 2, Dependent: 3},
		{Head: 3, Dependent: 4},
	}

	a, err := ctree.FromArcs(arcs)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ctree.FromArcs(arcs)
	if err != nil {
		t.Fatal(err)
	}

	if a.String() != b.String() {
		t.Errorf("want: %s, got: %s", a.String(), b.String())
	}
	if !slices.Equal(a.Spans(), b.Spans()) {
		t.Errorf("want: %v, got: %v", a.Spans(), b.Spans())
	}
}

func TestFromArcsError(t *testing.T) {
	tests := []struct {
		name    string
		arcs    dtree.Arcs
		wantErr error
	}{
		{name: "異常_空アーク", arcs: dtree.Arcs{}, wantErr: ctree.ErrNoArcs},
		{
			name:    "異常_係り先重複",
			arcs:    dtree.Arcs{{Head: 0, Dependent: 1}, {Head: 2, Dependent: 1}},
			wantErr: ctree.ErrDuplicateDependent,
		},
		{
			name:    "異常_複数ルート",
			arcs:    dtree.Arcs{{Head: 0, Dependent: 1}, {Head: 0, Dependent: 2}},
			wantErr: dtree.ErrRootCount,
		},
		{
			name:    "異常_閉路",
			arcs:    dtree.Arcs{{Head: 0, Dependent: 1}, {Head: 3, Dependent: 2}, {Head: 2, Dependent: 3}},
			wantErr: dtree.ErrCycle,
		},
		{
			name:    "異常_休符参照",
			arcs:    dtree.Arcs{{Head: 0, Dependent: 1}, {Head: 3, Dependent: 2}},
			wantErr: dtree.ErrRestHead,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ctree.FromArcs(tc.arcs); !errors.Is(err, tc.wantErr) {
				t.Errorf("want: %v, got: %v", tc.wantErr, err)
			}
		})
	}
}
