package dtree

import (
	"fmt"
)

// RestMask marks the tokens excluded from scoring and decoding. Index i
// refers to token i+1, mirroring Heads.
type RestMask []bool

func (m RestMask) Count() int {
	n := 0
	for _, rest := range m {
		if rest {
			n++
		}
	}
	return n
}

// RestsFromHeads derives the mask from a reference head array: rests are
// exactly the NoHead positions.
func RestsFromHeads(ref Heads) RestMask {
	m := make(RestMask, len(ref))
	for i, h := range ref {
		m[i] = h == NoHead
	}
	return m
}

// Reinsert maps a head array decoded over the rest-free subsequence back into
// the full index space. The compact heads are copied into the non-rest slots
// in order and every rest slot becomes NoHead; then, for each rest position r
// (1-based, ascending), every head value >= r is shifted up by one so that
// surviving heads reference full-sequence positions again.
//
// Reinsertは、休符を除いた部分列上でデコードされたヘッド配列を、元のインデックス
// 空間へ戻します。休符でない位置へ順にヘッドを写した後、休符位置r（昇順）毎に
// r以上のヘッド値を1ずつ繰り上げます。
func Reinsert(compact Heads, rests RestMask) (Heads, error) {
	n := len(rests)
	if len(compact) != n-rests.Count() {
		return nil, fmt.Errorf("%w: compact=%d rests=%d n=%d", ErrLengthMismatch, len(compact), rests.Count(), n)
	}

	full := make(Heads, n)
	k := 0
	for i, rest := range rests {
		if rest {
			full[i] = NoHead
			continue
		}
		full[i] = compact[k]
		k++
	}

	for i, rest := range rests {
		if !rest {
			continue
		}
		r := i + 1
		for j, h := range full {
			if h >= r {
				full[j] = h + 1
			}
		}
	}
	return full, nil
}
