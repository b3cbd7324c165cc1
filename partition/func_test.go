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
)

func TestModWrapsNonNegative(t *testing.T) {
	pf := Mod[int](4)
	for _, k := range []int{0, 1, 3, 4, 7, -1, -4, -5} {
		p := pf(k)
		if p < 0 || p >= 4 {
			t.Fatalf("Mod(%d) = %d, want in [0,4)", k, p)
		}
	}
	if pf(5) != pf(1) {
		t.Fatalf("Mod should be periodic: Mod(5)=%d, Mod(1)=%d", pf(5), pf(1))
	}
}

func TestDividersUpperBound(t *testing.T) {
	pf := Dividers([]int{10, 20, 30})
	cases := map[int]int{
		0: 0, 9: 0, 10: 1, 15: 1, 20: 2, 25: 2, 30: 3, 100: 3,
	}
	for key, want := range cases {
		if got := pf(key); got != want {
			t.Fatalf("Dividers(%d) = %d, want %d", key, got, want)
		}
	}
}

func TestStridedDividersProduceKeyOrderedBuckets(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rel := make([]groupjoin.Row[int, struct{}], 100)
	for i := range rel {
		rel[i] = groupjoin.Row[int, struct{}]{Key: rng.Intn(1000)}
	}
	pf := StridedDividers(rel, 5)
	// A higher key never lands in a strictly lower bucket than a lower key.
	for _, a := range rel {
		for _, b := range rel {
			if a.Key < b.Key && pf(a.Key) > pf(b.Key) {
				t.Fatalf("key order violated: %d -> %d, %d -> %d", a.Key, pf(a.Key), b.Key, pf(b.Key))
			}
		}
	}
}

func TestRandomDividersCoversAllBuckets(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	rel := make([]groupjoin.Row[int, struct{}], 1000)
	for i := range rel {
		rel[i] = groupjoin.Row[int, struct{}]{Key: i}
	}
	pf := RandomDividers(rng, rel, 4)
	seen := make(map[int]bool)
	for _, r := range rel {
		seen[pf(r.Key)] = true
	}
	if len(seen) != 4 {
		t.Fatalf("RandomDividers covered %d of 4 buckets", len(seen))
	}
}

func TestSipHashDeterministicAndInRange(t *testing.T) {
	h := SipHash[string]()
	a := h("hello", 8)
	b := h("hello", 8)
	if a != b {
		t.Fatalf("SipHash not deterministic: %d != %d", a, b)
	}
	if a < 0 || a >= 8 {
		t.Fatalf("SipHash out of range: %d", a)
	}
	// Different keys should not all collide to the same bucket.
	buckets := make(map[int]bool)
	for i := 0; i < 50; i++ {
		buckets[h(string(rune('a'+i%26))+string(rune(i)), 8)] = true
	}
	if len(buckets) < 2 {
		t.Fatalf("SipHash collapsed %d distinct keys into one bucket", 50)
	}
}
