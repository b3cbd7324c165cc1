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

// HashUneqRange implements != via the identity
// agg({r : r.key != l.key}) = subtract(agg(R), agg({r : r.key = l.key})).
// total is accumulated directly during the single scan of R; per-key
// group totals are built in the same pass. Requires Combine and
// Subtract. Combine is
// required by the != contract even though this engine never calls it —
// capability is checked up front so a caller that wires in a
// Subtract-only aggregate fails the same way every != engine does.
func HashUneqRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	a.MustCombine()
	subtract := a.MustSubtract()

	total := a.Init()
	ht := make(map[K]T, len(R))
	for _, r := range R {
		total = a.Accumulate(total, r)
		t, ok := ht[r.Key]
		if !ok {
			t = a.Init()
		}
		ht[r.Key] = a.Accumulate(t, r)
	}
	for i, l := range L {
		perKey, ok := ht[l.Key]
		if !ok {
			perKey = a.Init()
		}
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(subtract(total, perKey))}
	}
}

// HashUneq is HashUneqRange returning a freshly allocated result.
func HashUneq[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	HashUneqRange(L, R, dst, a, opts...)
	return dst
}

// uneqGroup is one distinct-key run built while merging sorted R.
type uneqGroup[K comparable, T any] struct {
	key K
	t   T
}

// SortMergeUneqRange is HashUneqRange's sort-merge sibling: sorts L and R
// ascending by key (WithKeyLess; mutates both), merges R into per-key
// group totals combined into a global total, then probes each L key via
// binary search over the sorted groups. Requires Combine and Subtract.
func SortMergeUneqRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	o := resolve(opts)
	less := o.mustLess()
	combine := a.MustCombine()
	subtract := a.MustSubtract()

	slices.SortFunc(L, func(x, y groupjoin.Row[K, PL]) bool { return less(x.Key, y.Key) })
	slices.SortFunc(R, func(x, y groupjoin.Row[K, PR]) bool { return less(x.Key, y.Key) })

	var groups []uneqGroup[K, T]
	total := a.Init()
	k := 0
	for k < len(R) {
		key := R[k].Key
		t := a.Init()
		for k < len(R) && o.keyEqual(R[k].Key, key) {
			t = a.Accumulate(t, R[k])
			k++
		}
		groups = append(groups, uneqGroup[K, T]{key: key, t: t})
		total = combine(total, t)
	}

	find := func(key K) (T, bool) {
		lo, hi := 0, len(groups)
		for lo < hi {
			mid := (lo + hi) / 2
			if less(groups[mid].key, key) {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo < len(groups) && o.keyEqual(groups[lo].key, key) {
			return groups[lo].t, true
		}
		var zero T
		return zero, false
	}

	for i, l := range L {
		perKey, ok := find(l.Key)
		if !ok {
			perKey = a.Init()
		}
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(subtract(total, perKey))}
	}
}

// SortMergeUneq is SortMergeUneqRange returning a freshly allocated
// result. L and R are mutated (sorted in place).
func SortMergeUneq[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	SortMergeUneqRange(L, R, dst, a, opts...)
	return dst
}
