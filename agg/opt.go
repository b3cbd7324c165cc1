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

import "golang.org/x/exp/constraints"

// Opt is the empty-aware optional finalized by Sum, Min, Max and Avg: it
// carries a value only when the underlying aggregation actually saw at
// least one row.
//
// value is unexported on purpose: Min/Max seed it with a sentinel (the
// domain's max/min) so the first Accumulate unconditionally wins, and two
// invalid totals combined together still carry that sentinel internally
// even though valid stays false. Since value is never reachable except
// through Value(), an invalid Opt can never leak its sentinel to a
// caller, regardless of how it was produced or combined.
type Opt[V any] struct {
	valid bool
	value V
}

// Value returns the wrapped value and whether it is present. The zero
// value of Opt[V] is the invalid optional, matching Go's usual
// zero-value-means-absent convention.
func (o Opt[V]) Value() (V, bool) {
	return o.value, o.valid
}

// NewOpt wraps v as a valid optional.
func NewOpt[V any](v V) Opt[V] {
	return Opt[V]{valid: true, value: v}
}

// NewOptMin returns the invalid optional seeded with N's maximum value, for
// use as Min's Init: the first Accumulate unconditionally wins against it.
func NewOptMin[N constraints.Integer | constraints.Float]() Opt[N] {
	return Opt[N]{value: maxOf[N]()}
}

// NewOptMax returns the invalid optional seeded with N's minimum value, for
// use as Max's Init.
func NewOptMax[N constraints.Integer | constraints.Float]() Opt[N] {
	return Opt[N]{value: minOf[N]()}
}
