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
	"github.com/relctl/groupjoin"
	"github.com/relctl/groupjoin/agg"
)

// NestedRange is the |L|*|R| reference implementation for equality
// GroupJoin: every other = strategy is checked against it. dst must be
// pre-sized to len(L); L and R are read-only.
func NestedRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	o := resolve(opts)
	for i, l := range L {
		t := a.Init()
		for _, r := range R {
			if o.keyEqual(l.Key, r.Key) {
				t = a.Accumulate(t, r)
			}
		}
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(t)}
	}
}

// Nested runs the = reference join and returns a freshly allocated result.
func Nested[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	NestedRange(L, R, dst, a, opts...)
	return dst
}

// NestedUneqRange is the nested-loop reference for inequality GroupJoin.
func NestedUneqRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	o := resolve(opts)
	for i, l := range L {
		t := a.Init()
		for _, r := range R {
			if !o.keyEqual(l.Key, r.Key) {
				t = a.Accumulate(t, r)
			}
		}
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(t)}
	}
}

// NestedUneq runs the != reference join.
func NestedUneq[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	NestedUneqRange(L, R, dst, a, opts...)
	return dst
}

// NestedLessRange is the nested-loop reference for `<` GroupJoin: for
// every l, aggregates every r with r.Key strictly greater than l.Key.
// Requires WithKeyLess.
func NestedLessRange[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	dst []groupjoin.Result[K, PL, S],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) {
	o := resolve(opts)
	less := o.mustLess()
	for i, l := range L {
		t := a.Init()
		for _, r := range R {
			if less(l.Key, r.Key) {
				t = a.Accumulate(t, r)
			}
		}
		dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(t)}
	}
}

// NestedLess runs the `<` reference join.
func NestedLess[K comparable, PL, PR, T, S any](
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) []groupjoin.Result[K, PL, S] {
	dst := make([]groupjoin.Result[K, PL, S], len(L))
	NestedLessRange(L, R, dst, a, opts...)
	return dst
}
