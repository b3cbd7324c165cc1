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
	"golang.org/x/exp/slices"

	"github.com/relctl/groupjoin"
	"github.com/relctl/groupjoin/agg"
)

// HashBuildLRange builds a map[K]T seeded with Init for every L key, scans
// R once accumulating into the matching slot, then emits L in its
// original order. Duplicate L keys share a slot. Read-only on L and R.
func HashBuildLRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	ht := make(map[K]T, len(L))
	for _, l := range L {
		if _, ok := ht[l.Key]; !ok {
			ht[l.Key] = a.Init()
		}
	}
	for _, r := range R {
		if t, ok := ht[r.Key]; ok {
			ht[r.Key] = a.Accumulate(t, r)
		}
	}
	for i, l := range L {
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(ht[l.Key])}
	}
}

// HashBuildL is HashBuildLRange returning a freshly allocated result.
func HashBuildL[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	HashBuildLRange(L, R, dst, a, opts...)
	return dst
}

// PerKeyTotals accumulates every row of rel under its key. It is
// HashBuildR's core building block, exported because the parallel !=
// operator needs the per-key map itself (to subtract from a
// precomputed global total) rather than HashBuildR's finalized,
// L-shaped result.
func PerKeyTotals[K comparable, PR, T, S any](
	rel []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
) map[K]T {
	ht := make(map[K]T, len(rel))
	for _, r := range rel {
		t, ok := ht[r.Key]
		if !ok {
			t = a.Init()
		}
		ht[r.Key] = a.Accumulate(t, r)
	}
	return ht
}

// HashBuildRRange builds map[K]T by accumulating every R row under its
// key, then looks up each L key, using Init for a miss. Preserves L order.
func HashBuildRRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	ht := PerKeyTotals(R, a)
	for i, l := range L {
		t, ok := ht[l.Key]
		if !ok {
			t = a.Init()
		}
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(t)}
	}
}

// HashBuildR is HashBuildRRange returning a freshly allocated result.
func HashBuildR[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	HashBuildRRange(L, R, dst, a, opts...)
	return dst
}

// AdaptiveHashRatio is the policy knob Adaptive compares |R| against:
// hash-build-L is chosen when len(L)*AdaptiveHashRatio < len(R), i.e.
// when L is the much smaller side and therefore the cheaper side to seed
// a hash map from; otherwise hash-build-R. A documented, changeable var
// rather than a baked-in constant, so callers can tune it for their own
// relative table sizes.
var AdaptiveHashRatio = 10

// AdaptiveRange picks HashBuildLRange or HashBuildRRange by relative
// input size.
func AdaptiveRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	if len(L)*AdaptiveHashRatio < len(R) {
		HashBuildLRange(L, R, dst, a, opts...)
	} else {
		HashBuildRRange(L, R, dst, a, opts...)
	}
}

// Adaptive is AdaptiveRange returning a freshly allocated result.
func Adaptive[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	AdaptiveRange(L, R, dst, a, opts...)
	return dst
}

// MergeOnSortedRange requires both L and R already sorted ascending by
// key (WithKeyLess supplies the order). It walks R with an advancing
// cursor, computing one T per distinct L key and reusing it across
// duplicate L keys, so the cursor never revisits a row.
func MergeOnSortedRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	o := resolve(opts)
	less := o.mustLess()
	j := 0
	var havePrev bool
	var prevKey K
	var prevT T
	for i, l := range L {
		if havePrev && o.keyEqual(l.Key, prevKey) {
			dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(prevT)}
			continue
		}
		for j < len(R) && less(R[j].Key, l.Key) {
			j++
		}
		t := a.Init()
		for j < len(R) && o.keyEqual(R[j].Key, l.Key) {
			t = a.Accumulate(t, R[j])
			j++
		}
		prevKey, prevT, havePrev = l.Key, t, true
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(t)}
	}
}

// MergeOnSorted is MergeOnSortedRange returning a freshly allocated
// result. L and R must already be sorted ascending by key.
func MergeOnSorted[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	MergeOnSortedRange(L, R, dst, a, opts...)
	return dst
}

// SortThenMerge sorts L and R ascending by key in place (WithKeyLess) and
// calls MergeOnSorted. L and R are mutated: callers must not share them
// with concurrent readers during the call.
func SortThenMerge[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	o := resolve(opts)
	less := o.mustLess()
	slices.SortFunc(L, func(x, y groupjoin.Row[K, PL]) bool { return less(x.Key, y.Key) })
	slices.SortFunc(R, func(x, y groupjoin.Row[K, PR]) bool { return less(x.Key, y.Key) })
	return MergeOnSorted(L, R, a, opts...)
}

// IsLeftKeyUnique reports whether L's keys are pairwise distinct, the
// case HashUniqueEq is written for.
func IsLeftKeyUnique[K comparable, PL any](L []groupjoin.Row[K, PL]) bool {
	seen := make(map[K]struct{}, len(L))
	for _, l := range L {
		if _, ok := seen[l.Key]; ok {
			return false
		}
		seen[l.Key] = struct{}{}
	}
	return true
}

// HashEqRange groups R by L's distinct keys and emits one result per L
// row, sharing the group total across duplicate L keys. It is
// implemented identically to HashBuildLRange; the separate name exists
// so callers can pick between the general HashEq and its unique-L fast
// path, HashUniqueEq, by name.
func HashEqRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	HashBuildLRange(L, R, dst, a, opts...)
}

// HashEq is HashEqRange returning a freshly allocated result.
func HashEq[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	HashEqRange(L, R, dst, a, opts...)
	return dst
}

// HashUniqueEqRange is HashEqRange's fast path for an L relation with
// unique keys: it seeds the slot of every L row's key with Init without
// first checking whether that key already has a slot. A duplicate L key
// only re-seeds its slot before R is scanned, so on such input the
// results still equal HashEq's.
func HashUniqueEqRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	ht := make(map[K]T, len(L))
	for _, l := range L {
		ht[l.Key] = a.Init()
	}
	for _, r := range R {
		if t, ok := ht[r.Key]; ok {
			ht[r.Key] = a.Accumulate(t, r)
		}
	}
	for i, l := range L {
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(ht[l.Key])}
	}
}

// HashUniqueEq is HashUniqueEqRange returning a freshly allocated result.
func HashUniqueEq[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	HashUniqueEqRange(L, R, dst, a, opts...)
	return dst
}
