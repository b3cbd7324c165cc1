// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package partition

import (
	"math/rand"
	"testing"

	"github.com/relctl/groupjoin"
	"github.com/relctl/groupjoin/agg"
	"github.com/relctl/groupjoin/workerpool"
)

func multiset(rel []groupjoin.Row[int, int]) map[[2]int]int {
	m := make(map[[2]int]int, len(rel))
	for _, r := range rel {
		m[[2]int{r.Key, r.Payload}]++
	}
	return m
}

func TestPlainCoverageAndPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	rel := make([]groupjoin.Row[int, int], 500)
	for i := range rel {
		rel[i] = groupjoin.Row[int, int]{Key: rng.Intn(50), Payload: i}
	}
	before := multiset(rel)

	pool := workerpool.New(4)
	defer pool.Close()

	const P = 7
	pf := Mod[int](P)
	pos := Plain(pool, rel, P, pf)

	if len(pos) != P+1 {
		t.Fatalf("len(pos) = %d, want %d", len(pos), P+1)
	}
	if pos[0] != 0 || pos[P] != len(rel) {
		t.Fatalf("pos bounds wrong: %v", pos)
	}
	for p := 0; p < P; p++ {
		for _, row := range rel[pos[p]:pos[p+1]] {
			if pf(row.Key) != p {
				t.Fatalf("row with key %d in partition %d, pf says %d", row.Key, p, pf(row.Key))
			}
		}
	}
	after := multiset(rel)
	if len(after) != len(before) {
		t.Fatalf("partitioning is not a permutation: distinct counts differ")
	}
	for k, v := range before {
		if after[k] != v {
			t.Fatalf("partitioning is not a permutation: %v count %d -> %d", k, v, after[k])
		}
	}
}

func TestUneqGlobalTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	rel := make([]groupjoin.Row[int, int], 300)
	want := 0
	for i := range rel {
		rel[i] = groupjoin.Row[int, int]{Key: rng.Intn(20), Payload: rng.Intn(10)}
		want += rel[i].Payload
	}

	pool := workerpool.New(4)
	defer pool.Close()

	sumN := agg.SumN[int, int]()
	_, total := Uneq(pool, rel, 5, Mod[int](5), sumN)
	if total != want {
		t.Fatalf("Uneq total = %d, want %d", total, want)
	}
}

func TestLessSuffixTotals(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	rel := make([]groupjoin.Row[int, int], 400)
	for i := range rel {
		rel[i] = groupjoin.Row[int, int]{Key: rng.Intn(1000), Payload: rng.Intn(10)}
	}
	const P = 6
	pf := StridedDividers(rel, P)

	pool := workerpool.New(4)
	defer pool.Close()

	sumN := agg.SumN[int, int]()
	pos, totals := Less(pool, rel, P, pf, sumN)

	if len(totals) != P+1 {
		t.Fatalf("len(totals) = %d, want %d", len(totals), P+1)
	}
	if totals[P] != 0 {
		t.Fatalf("totals[P] = %d, want 0 (Init)", totals[P])
	}
	for p := 0; p < P; p++ {
		want := 0
		for q := p + 1; q < P; q++ {
			for _, row := range rel[pos[q]:pos[q+1]] {
				want += row.Payload
			}
		}
		if totals[p] != want {
			t.Fatalf("totals[%d] = %d, want %d (suffix sum over partitions > %d)", p, totals[p], want, p)
		}
	}
}
