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

package agg

import (
	"golang.org/x/exp/constraints"

	"github.com/relctl/groupjoin"
)

// Number is the numeric domain the concrete aggregate library operates
// over.
type Number interface {
	constraints.Integer | constraints.Float
}

// SumN sums R's payload. An empty input sums to the zero value, with no
// validity flag — "N" for "no optional".
func SumN[K comparable, N Number]() Aggregate[N, N, groupjoin.Row[K, N]] {
	return Aggregate[N, N, groupjoin.Row[K, N]]{
		Init:       func() N { return 0 },
		Accumulate: func(total N, r groupjoin.Row[K, N]) N { return total + r.Payload },
		Finalize:   func(total N) N { return total },
		Combine:    func(a, b N) N { return a + b },
		Subtract:   func(a, b N) N { return a - b },
	}
}

// Sum sums R's payload, like SumN, but reports invalid on empty input
// instead of zero.
func Sum[K comparable, N Number]() Aggregate[Opt[N], Opt[N], groupjoin.Row[K, N]] {
	return Aggregate[Opt[N], Opt[N], groupjoin.Row[K, N]]{
		Init: func() Opt[N] { return Opt[N]{} },
		Accumulate: func(total Opt[N], r groupjoin.Row[K, N]) Opt[N] {
			v, _ := total.Value()
			return NewOpt(v + r.Payload)
		},
		Finalize: func(total Opt[N]) Opt[N] { return total },
		Combine: func(a, b Opt[N]) Opt[N] {
			bv, bok := b.Value()
			if !bok {
				return a
			}
			av, _ := a.Value()
			return NewOpt(av + bv)
		},
		Subtract: func(a, b Opt[N]) Opt[N] {
			av, aok := a.Value()
			bv, bok := b.Value()
			return Opt[N]{valid: aok || bok, value: av - bv}
		},
	}
}

// Min tracks the minimum payload seen. Min has no Subtract: "undoing" a
// minimum once other values have combined into it is not well defined in
// general.
func Min[K comparable, N Number]() Aggregate[Opt[N], Opt[N], groupjoin.Row[K, N]] {
	return Aggregate[Opt[N], Opt[N], groupjoin.Row[K, N]]{
		Init: func() Opt[N] { return NewOptMin[N]() },
		Accumulate: func(total Opt[N], r groupjoin.Row[K, N]) Opt[N] {
			v, ok := total.Value()
			if !ok || r.Payload < v {
				return NewOpt(r.Payload)
			}
			return total
		},
		Finalize: func(total Opt[N]) Opt[N] { return total },
		Combine: func(a, b Opt[N]) Opt[N] {
			av, aok := a.Value()
			bv, bok := b.Value()
			if bok && (!aok || bv < av) {
				return b
			}
			return a
		},
	}
}

// Max tracks the maximum payload seen. Like Min, it has no Subtract.
func Max[K comparable, N Number]() Aggregate[Opt[N], Opt[N], groupjoin.Row[K, N]] {
	return Aggregate[Opt[N], Opt[N], groupjoin.Row[K, N]]{
		Init: func() Opt[N] { return NewOptMax[N]() },
		Accumulate: func(total Opt[N], r groupjoin.Row[K, N]) Opt[N] {
			v, ok := total.Value()
			if !ok || r.Payload > v {
				return NewOpt(r.Payload)
			}
			return total
		},
		Finalize: func(total Opt[N]) Opt[N] { return total },
		Combine: func(a, b Opt[N]) Opt[N] {
			av, aok := a.Value()
			bv, bok := b.Value()
			if bok && (!aok || bv > av) {
				return b
			}
			return a
		},
	}
}

// Count counts matching rows regardless of payload type. Subtract takes
// both arguments by value, the same signature as every other aggregate's
// Subtract.
func Count[K comparable, R any]() Aggregate[int, int, R] {
	return Aggregate[int, int, R]{
		Init:       func() int { return 0 },
		Accumulate: func(total int, _ R) int { return total + 1 },
		Finalize:   func(total int) int { return total },
		Combine:    func(a, b int) int { return a + b },
		Subtract:   func(a, b int) int { return a - b },
	}
}

// sumCount is Avg's intermediate state.
type sumCount[N Number] struct {
	sum   N
	count int64
}

// Avg averages R's payload: the intermediate state is (sum, count), and
// it finalizes to an invalid optional when count is zero instead of
// dividing by zero.
func Avg[K comparable, N Number]() Aggregate[sumCount[N], Opt[float64], groupjoin.Row[K, N]] {
	return Aggregate[sumCount[N], Opt[float64], groupjoin.Row[K, N]]{
		Init: func() sumCount[N] { return sumCount[N]{} },
		Accumulate: func(total sumCount[N], r groupjoin.Row[K, N]) sumCount[N] {
			total.sum += r.Payload
			total.count++
			return total
		},
		Finalize: func(total sumCount[N]) Opt[float64] {
			if total.count == 0 {
				return Opt[float64]{}
			}
			return NewOpt(float64(total.sum) / float64(total.count))
		},
		Combine: func(a, b sumCount[N]) sumCount[N] {
			return sumCount[N]{sum: a.sum + b.sum, count: a.count + b.count}
		},
		Subtract: func(a, b sumCount[N]) sumCount[N] {
			return sumCount[N]{sum: a.sum - b.sum, count: a.count - b.count}
		},
	}
}
