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

package join

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/relctl/groupjoin"
	"github.com/relctl/groupjoin/agg"
)

type pay = struct{ V int }

func mkL(keys ...int) []groupjoin.Row[int, string] {
	out := make([]groupjoin.Row[int, string], len(keys))
	for i, k := range keys {
		out[i] = groupjoin.Row[int, string]{Key: k, Payload: string(rune('a' + i))}
	}
	return out
}

func mkR(pairs ...[2]int) []groupjoin.Row[int, int] {
	out := make([]groupjoin.Row[int, int], len(pairs))
	for i, p := range pairs {
		out[i] = groupjoin.Row[int, int]{Key: p[0], Payload: p[1]}
	}
	return out
}

func intLess(a, b int) bool { return a < b }

// resultSums extracts just the aggregate values in result order, for
// comparing against worked-example expectations without caring about the
// left rows' keys or payloads.
func resultSums(t *testing.T, rs []groupjoin.Result[int, string, int]) []int {
	t.Helper()
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.Agg
	}
	return out
}

func eqInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEqWorkedExample(t *testing.T) {
	L := mkL(1, 2, 1)
	R := mkR([2]int{1, 10}, [2]int{1, 5}, [2]int{3, 7})
	sumN := agg.SumN[int, int]()

	got := resultSums(t, Nested(L, R, sumN))
	want := []int{15, 0, 15}
	if !eqInts(got, want) {
		t.Fatalf("Nested = = %v, want %v", got, want)
	}

	got = resultSums(t, HashBuildL(L, R, sumN))
	if !eqInts(got, want) {
		t.Fatalf("HashBuildL = %v, want %v", got, want)
	}

	got = resultSums(t, HashBuildR(L, R, sumN))
	if !eqInts(got, want) {
		t.Fatalf("HashBuildR = %v, want %v", got, want)
	}
}

func TestUneqWorkedExample(t *testing.T) {
	L := mkL(1, 2, 1)
	R := mkR([2]int{1, 10}, [2]int{1, 5}, [2]int{3, 7})
	sumN := agg.SumN[int, int]()

	got := resultSums(t, NestedUneq(L, R, sumN))
	want := []int{7, 22, 7}
	if !eqInts(got, want) {
		t.Fatalf("NestedUneq = %v, want %v", got, want)
	}

	got = resultSums(t, HashUneq(append([]groupjoin.Row[int, string]{}, L...), R, sumN))
	if !eqInts(got, want) {
		t.Fatalf("HashUneq = %v, want %v", got, want)
	}
}

func TestLessWorkedExample(t *testing.T) {
	L := mkL(1, 2, 1)
	R := mkR([2]int{1, 10}, [2]int{1, 5}, [2]int{3, 7})
	sumN := agg.SumN[int, int]()

	got := resultSums(t, NestedLess(L, R, sumN, WithKeyLess[int](intLess)))
	want := []int{7, 7, 7}
	if !eqInts(got, want) {
		t.Fatalf("NestedLess = %v, want %v", got, want)
	}
}

func TestAvgWorkedExample(t *testing.T) {
	L := mkL(1, 1, 2)
	R := mkR([2]int{1, 3}, [2]int{2, 4}, [2]int{2, 5})
	avg := agg.Avg[int, int]()

	got := HashBuildL(L, R, avg)
	want := []float64{3.0, 3.0, 4.5}
	for i, r := range got {
		v, ok := r.Agg.Value()
		if !ok || v != want[i] {
			t.Fatalf("Avg[%d] = (%v,%v), want (%v,true)", i, v, ok, want[i])
		}
	}
}

func TestMinEmptyRIsInvalid(t *testing.T) {
	L := mkL(1)
	R := mkR()
	mn := agg.Min[int, int]()
	got := HashBuildL(L, R, mn)
	if _, ok := got[0].Agg.Value(); ok {
		t.Fatalf("Min over empty R should be invalid")
	}
}

func TestSumNEmptyRIsZeroForEveryL(t *testing.T) {
	L := mkL(1, 2, 3)
	R := mkR()
	sumN := agg.SumN[int, int]()
	got := resultSums(t, Nested(L, R, sumN))
	want := []int{0, 0, 0}
	if !eqInts(got, want) {
		t.Fatalf("SumN over empty R = %v, want %v", got, want)
	}
}

func TestEmptyLYieldsEmptyResult(t *testing.T) {
	L := mkL()
	R := mkR([2]int{1, 10})
	sumN := agg.SumN[int, int]()
	got := Nested(L, R, sumN)
	if len(got) != 0 {
		t.Fatalf("empty L should yield empty result, got %d rows", len(got))
	}
}

// --- equivalence property tests ---

func randomRelationL(rng *rand.Rand, n, keyPool int) []groupjoin.Row[int, string] {
	out := make([]groupjoin.Row[int, string], n)
	for i := range out {
		out[i] = groupjoin.Row[int, string]{Key: rng.Intn(keyPool), Payload: "x"}
	}
	return out
}

func randomRelationR(rng *rand.Rand, n, keyPool int) []groupjoin.Row[int, int] {
	out := make([]groupjoin.Row[int, int], n)
	for i := range out {
		out[i] = groupjoin.Row[int, int]{Key: rng.Intn(keyPool), Payload: rng.Intn(100)}
	}
	return out
}

// multisetEqual compares results ignoring order, keyed by (Key, Payload,
// Agg) — fine here since all our test aggregates produce comparable Agg
// types (int or agg.Opt[int], both comparable).
func multisetEqual[S comparable](t *testing.T, a, b []groupjoin.Result[int, string, S]) bool {
	t.Helper()
	if len(a) != len(b) {
		return false
	}
	type triple struct {
		key int
		pay string
		agg S
	}
	count := make(map[triple]int, len(a))
	for _, r := range a {
		count[triple{r.Left.Key, r.Left.Payload, r.Agg}]++
	}
	for _, r := range b {
		k := triple{r.Left.Key, r.Left.Payload, r.Agg}
		if count[k] == 0 {
			return false
		}
		count[k]--
	}
	return true
}

func cloneL(L []groupjoin.Row[int, string]) []groupjoin.Row[int, string] {
	return append([]groupjoin.Row[int, string]{}, L...)
}

func cloneR(R []groupjoin.Row[int, int]) []groupjoin.Row[int, int] {
	return append([]groupjoin.Row[int, int]{}, R...)
}

func TestEqStrategiesAgreeWithNested(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sumN := agg.SumN[int, int]()
	for trial := 0; trial < 20; trial++ {
		L := randomRelationL(rng, 1+rng.Intn(30), 5)
		R := randomRelationR(rng, 1+rng.Intn(30), 5)
		ref := Nested(cloneL(L), cloneR(R), sumN)

		if got := HashBuildL(cloneL(L), cloneR(R), sumN); !multisetEqual(t, got, ref) {
			t.Fatalf("trial %d: HashBuildL disagrees with Nested", trial)
		}
		if got := HashBuildR(cloneL(L), cloneR(R), sumN); !multisetEqual(t, got, ref) {
			t.Fatalf("trial %d: HashBuildR disagrees with Nested", trial)
		}
		if got := Adaptive(cloneL(L), cloneR(R), sumN); !multisetEqual(t, got, ref) {
			t.Fatalf("trial %d: Adaptive disagrees with Nested", trial)
		}
		if got := SortThenMerge(cloneL(L), cloneR(R), sumN, WithKeyLess[int](intLess)); !multisetEqual(t, got, ref) {
			t.Fatalf("trial %d: SortThenMerge disagrees with Nested", trial)
		}
		if got := HashEq(cloneL(L), cloneR(R), sumN); !multisetEqual(t, got, ref) {
			t.Fatalf("trial %d: HashEq disagrees with Nested", trial)
		}
	}
}

func TestUniqueLFastPathEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	sumN := agg.SumN[int, int]()
	for trial := 0; trial < 20; trial++ {
		// Build L with unique keys by construction.
		n := 1 + rng.Intn(15)
		L := make([]groupjoin.Row[int, string], n)
		for i := range L {
			L[i] = groupjoin.Row[int, string]{Key: i, Payload: "x"}
		}
		R := randomRelationR(rng, 1+rng.Intn(30), n+5)

		if !IsLeftKeyUnique(L) {
			t.Fatalf("trial %d: constructed L is not unique", trial)
		}
		ref := Nested(cloneL(L), cloneR(R), sumN)
		eq := HashEq(cloneL(L), cloneR(R), sumN)
		uniq := HashUniqueEq(cloneL(L), cloneR(R), sumN)
		if !multisetEqual(t, eq, ref) {
			t.Fatalf("trial %d: HashEq disagrees with Nested on unique L", trial)
		}
		if !multisetEqual(t, uniq, ref) {
			t.Fatalf("trial %d: HashUniqueEq disagrees with Nested on unique L", trial)
		}
	}
}

func TestUneqStrategiesAgreeWithNested(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	sumN := agg.SumN[int, int]()
	for trial := 0; trial < 20; trial++ {
		L := randomRelationL(rng, 1+rng.Intn(30), 5)
		R := randomRelationR(rng, 1+rng.Intn(30), 5)
		ref := NestedUneq(cloneL(L), cloneR(R), sumN)

		if got := HashUneq(cloneL(L), cloneR(R), sumN); !multisetEqual(t, got, ref) {
			t.Fatalf("trial %d: HashUneq disagrees with NestedUneq", trial)
		}
		if got := SortMergeUneq(cloneL(L), cloneR(R), sumN, WithKeyLess[int](intLess)); !multisetEqual(t, got, ref) {
			t.Fatalf("trial %d: SortMergeUneq disagrees with NestedUneq", trial)
		}
	}
}

func TestLessStrategiesAgreeWithNested(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	sumN := agg.SumN[int, int]()
	for trial := 0; trial < 20; trial++ {
		L := randomRelationL(rng, 1+rng.Intn(30), 5)
		R := randomRelationR(rng, 1+rng.Intn(30), 5)
		ref := NestedLess(cloneL(L), cloneR(R), sumN, WithKeyLess[int](intLess))

		if got := SortMergeLess(cloneL(L), cloneR(R), sumN, WithKeyLess[int](intLess)); !multisetEqual(t, got, ref) {
			t.Fatalf("trial %d: SortMergeLess disagrees with NestedLess", trial)
		}
		if got := HashPrefixCombineLess(cloneL(L), cloneR(R), sumN, WithKeyLess[int](intLess)); !multisetEqual(t, got, ref) {
			t.Fatalf("trial %d: HashPrefixCombineLess disagrees with NestedLess", trial)
		}
	}
}

// TestSubtractLawPerRow checks result_!=(l) + result_=(l) == total(R) for
// every l, exactly (not just in expectation).
func TestSubtractLawPerRow(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	sumN := agg.SumN[int, int]()
	for trial := 0; trial < 20; trial++ {
		L := randomRelationL(rng, 1+rng.Intn(30), 5)
		R := randomRelationR(rng, 1+rng.Intn(30), 5)

		total := 0
		for _, r := range R {
			total += r.Payload
		}

		eqRes := Nested(cloneL(L), cloneR(R), sumN)
		uneqRes := NestedUneq(cloneL(L), cloneR(R), sumN)
		for i := range L {
			if eqRes[i].Agg+uneqRes[i].Agg != total {
				t.Fatalf("trial %d row %d: %d + %d != %d", trial, i, eqRes[i].Agg, uneqRes[i].Agg, total)
			}
		}
	}
}

func TestMergeOnSortedRequiresPreSorted(t *testing.T) {
	L := mkL(1, 1, 2)
	R := mkR([2]int{1, 3}, [2]int{2, 4})
	sort.Slice(L, func(i, j int) bool { return L[i].Key < L[j].Key })
	sort.Slice(R, func(i, j int) bool { return R[i].Key < R[j].Key })

	sumN := agg.SumN[int, int]()
	got := resultSums(t, MergeOnSorted(L, R, sumN, WithKeyLess[int](intLess)))
	want := []int{3, 3, 4}
	if !eqInts(got, want) {
		t.Fatalf("MergeOnSorted = %v, want %v", got, want)
	}
}

func TestMustLessPanicsWithoutOption(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when WithKeyLess is missing")
		}
	}()
	L := mkL(1)
	R := mkR([2]int{2, 3})
	sumN := agg.SumN[int, int]()
	NestedLess(L, R, sumN)
}

func TestMinHasNoSubtractPanicsOnUneq(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic: Min has no Subtract, required by HashUneq")
		}
	}()
	L := mkL(1)
	R := mkR([2]int{1, 3})
	mn := agg.Min[int, int]()
	HashUneq(L, R, mn)
}
