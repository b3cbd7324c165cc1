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

// SortMergeLessRange sorts L and R descending by key (WithKeyLess;
// mutates both), then walks L from the largest key down, accumulating
// every R row with a larger key into one running T before emitting it.
// T only ever grows as the walk proceeds to smaller L keys, so every R
// row is visited exactly once.
func SortMergeLessRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	sortedL, totals := SortMergeLessTotals(L, R, a, opts...)
	for i, l := range sortedL {
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(totals[i])}
	}
}

// SortMergeLessTotals is SortMergeLessRange's un-finalized core: it
// returns L in its post-sort (descending) order alongside the running T
// for each row, without calling Finalize. The parallel `<` operator
// needs exactly this: Combine each row's local running total with its
// partition's suffix total before finalizing, which isn't expressible
// once T has already been finalized to S.
func SortMergeLessTotals[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) ([]groupjoin.Row[K, PL], []T) {
	o := resolve(opts)
	less := o.mustLess()

	desc := func(x, y K) bool { return less(y, x) }
	slices.SortFunc(L, func(x, y groupjoin.Row[K, PL]) bool { return desc(x.Key, y.Key) })
	slices.SortFunc(R, func(x, y groupjoin.Row[K, PR]) bool { return desc(x.Key, y.Key) })

	out := make([]T, len(L))
	t := a.Init()
	j := 0
	for i, l := range L {
		for j < len(R) && less(l.Key, R[j].Key) {
			t = a.Accumulate(t, R[j])
			j++
		}
		out[i] = t
	}
	return L, out
}

// SortMergeLess is SortMergeLessRange returning a freshly allocated
// result, in L's post-sort (descending) order. L and R are mutated.
func SortMergeLess[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	SortMergeLessRange(L, R, dst, a, opts...)
	return dst
}

// HashPrefixCombineLessRange sorts L ascending by key (mutates L), builds
// one Init() slot per distinct L key, then for every R row locates
// (binary search) the largest L key strictly smaller than the row's key
// and accumulates the row there — the row contributes only to its
// nearest smaller L key. A descending walk over the distinct keys then
// combines each slot into a running total and records it per key, so
// that total propagates to every smaller key in one combine per key
// rather than one accumulate per row. Requires Combine.
func HashPrefixCombineLessRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	o := resolve(opts)
	less := o.mustLess()
	combine := a.MustCombine()

	slices.SortFunc(L, func(x, y groupjoin.Row[K, PL]) bool { return less(x.Key, y.Key) })

	keys := make([]K, 0, len(L))
	for i, l := range L {
		if i == 0 || !o.keyEqual(l.Key, keys[len(keys)-1]) {
			keys = append(keys, l.Key)
		}
	}

	ht := make(map[K]T, len(keys))
	for _, k := range keys {
		ht[k] = a.Init()
	}

	if len(keys) > 0 {
		smallest := keys[0]
		for _, r := range R {
			if !less(smallest, r.Key) {
				continue
			}
			lo, hi := 0, len(keys)
			for lo < hi {
				mid := (lo + hi) / 2
				if less(keys[mid], r.Key) {
					lo = mid + 1
				} else {
					hi = mid
				}
			}
			if lo == 0 {
				continue
			}
			target := keys[lo-1]
			ht[target] = a.Accumulate(ht[target], r)
		}
	}

	combined := make(map[K]T, len(keys))
	running := a.Init()
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		running = combine(running, ht[k])
		combined[k] = running
	}

	for i, l := range L {
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(combined[l.Key])}
	}
}

// HashPrefixCombineLess is HashPrefixCombineLessRange returning a freshly
// allocated result, in L's post-sort (ascending) order. L is mutated.
func HashPrefixCombineLess[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	HashPrefixCombineLessRange(L, R, dst, a, opts...)
	return dst
}
