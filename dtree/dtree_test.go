package dtree_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/sw965/lark/dtree"
)

func TestHeadsValidate(t *testing.T) {
	tests := []struct {
		name    string
		heads   dtree.Heads
		wantErr error
	}{
		{
			name:  "正常_鎖",
			heads: dtree.Heads{0, 1, 2},
		},
		{
			name:  "正常_休符含み",
			heads: dtree.Heads{0, dtree.NoHead, 1},
		},
		{
			name:    "異常_複数ルート",
			heads:   dtree.Heads{0, 0, 2},
			wantErr: dtree.ErrRootCount,
		},
		{
			name:    "異常_全休符でルート無し",
			heads:   dtree.Heads{dtree.NoHead, dtree.NoHead, dtree.NoHead},
			wantErr: dtree.ErrRootCount,
		},
		{
			name:    "異常_範囲外",
			heads:   dtree.Heads{0, 4, 1},
			wantErr: dtree.ErrHeadOutOfRange,
		},
		{
			name:    "異常_自己ループ",
			heads:   dtree.Heads{0, 2, 1},
			wantErr: dtree.ErrSelfLoop,
		},
		{
			name:    "異常_閉路",
			heads:   dtree.Heads{0, 3, 2},
			wantErr: dtree.ErrCycle,
		},
		{
			name:    "異常_休符参照",
			heads:   dtree.Heads{0, dtree.NoHead, 2},
			wantErr: dtree.ErrRestHead,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Helper()
			err := tc.heads.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("want: %v, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestHeadsRoots(t *testing.T) {
	tests := []struct {
		name  string
		heads dtree.Heads
		want  []int
	}{
		{
			name:  "正常_単一ルート",
			heads: dtree.Heads{2, 0, 2},
			want:  []int{2},
		},
		{
			name:  "準正常_複数ルート",
			heads: dtree.Heads{0, 0, 2},
			want:  []int{1, 2},
		},
		{
			name:  "準正常_ルート無し",
			heads: dtree.Heads{dtree.NoHead, 3, 2},
			want:  []int{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Helper()
			got := tc.heads.Roots()
			if !slices.Equal(got, tc.want) {
				t.Errorf("want: %v, got: %v", tc.want, got)
			}
		})
	}
}

func TestHeadsArcs(t *testing.T) {
	heads := dtree.Heads{0, dtree.NoHead, 1, 3}
	want := dtree.Arcs{
		{Head: 0, Dependent: 1},
		{Head: 1, Dependent: 3},
		{Head: 3, Dependent: 4},
	}

	got := heads.Arcs()
	if !slices.Equal(got, want) {
		t.Errorf("want: %v, got: %v", want, got)
	}

	wantRootless := dtree.Arcs{
		{Head: 1, Dependent: 3},
		{Head: 3, Dependent: 4},
	}
	gotRootless := got.Rootless()
	if !slices.Equal(gotRootless, wantRootless) {
		t.Errorf("want: %v, got: %v", wantRootless, gotRootless)
	}
}

func TestHeadsFromArcs(t *testing.T) {
	tests := []struct {
		name    string
		arcs    dtree.Arcs
		n       int
		want    dtree.Heads
		wantErr error
	}{
		{
			name: "正常_逆順アーク",
			arcs: dtree.Arcs{
				{Head: 2, Dependent: 3},
				{Head: 0, Dependent: 2},
				{Head: 2, Dependent: 1},
			},
			n:    3,
			want: dtree.Heads{2, 0, 2},
		},
		{
			name: "正常_休符相当の欠け",
			arcs: dtree.Arcs{
				{Head: 0, Dependent: 1},
				{Head: 1, Dependent: 3},
			},
			n:    3,
			want: dtree.Heads{0, dtree.NoHead, 1},
		},
		{
			name: "異常_ヘッド重複",
			arcs: dtree.Arcs{
				{Head: 0, Dependent: 1},
				{Head: 2, Dependent: 1},
			},
			n:       2,
			wantErr: dtree.ErrDuplicateHead,
		},
		{
			name: "異常_範囲外",
			arcs: dtree.Arcs{
				{Head: 0, Dependent: 5},
			},
			n:       3,
			wantErr: dtree.ErrHeadOutOfRange,
		},
		{
			name: "異常_自己ループ",
			arcs: dtree.Arcs{
				{Head: 1, Dependent: 1},
			},
			n:       2,
			wantErr: dtree.ErrSelfLoop,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Helper()
			got, err := dtree.HeadsFromArcs(tc.arcs, tc.n)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want: %v, got: %v", tc.wantErr, err)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("want: %v, got: %v", tc.want, got)
			}
		})
	}
}

func TestHeadsArcsRoundTrip(t *testing.T) {
	heads := dtree.Heads{3, 3, 0, dtree.NoHead, 3}
	got, err := dtree.HeadsFromArcs(heads.Arcs(), heads.TokenCount())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, heads) {
		t.Errorf("want: %v, got: %v", heads, got)
	}
}
