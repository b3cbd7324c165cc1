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

// Package join implements the serial GroupJoin engines: one family per
// predicate (=, !=, <), each with several physical strategies, plus the
// nested-loop reference every other strategy is checked against.
//
// K is comparable everywhere, which is all Go's own map type needs to
// hash and probe by key; the hash-based engines here therefore never
// take a caller-supplied hash function (unlike partition.Func, which
// does need one to assign arbitrary K to one of P integer buckets).
// What every sort- or merge-based strategy does need is a total order,
// supplied via WithKeyLess since Go has no Ordered-if-possible
// constraint relaxation.
package join

// KeyEqual overrides key equality for a strategy; the default is K's
// built-in ==.
type KeyEqual[K comparable] func(a, b K) bool

// KeyLess is the total order required by every sort- and merge-based
// strategy (MergeOnSorted, SortThenMerge, SortMergeUneq, SortMergeLess,
// HashPrefixCombineLess). There is no default: Go generics cannot express
// "K's own < operator, if K happens to support one," so callers whose K
// is constraints.Ordered pass e.g. `func(a, b int) bool { return a < b }`
// explicitly via WithKeyLess.
type KeyLess[K any] func(a, b K) bool

// Option configures a join entry point.
type Option[K comparable] func(*options[K])

type options[K comparable] struct {
	keyEqual KeyEqual[K]
	keyLess  KeyLess[K]
}

// WithKeyEqual overrides key equality.
func WithKeyEqual[K comparable](eq KeyEqual[K]) Option[K] {
	return func(o *options[K]) { o.keyEqual = eq }
}

// WithKeyLess supplies the total order required by sort/merge strategies.
func WithKeyLess[K comparable](less KeyLess[K]) Option[K] {
	return func(o *options[K]) { o.keyLess = less }
}

func defaultOptions[K comparable]() options[K] {
	return options[K]{
		keyEqual: func(a, b K) bool { return a == b },
	}
}

func resolve[K comparable](opts []Option[K]) options[K] {
	o := defaultOptions[K]()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// mustLess panics with a clear message if no KeyLess was supplied; every
// sort/merge strategy calls this once up front rather than faulting
// confusingly deep inside a sort comparator.
func (o options[K]) mustLess() KeyLess[K] {
	if o.keyLess == nil {
		panic("join: this strategy requires join.WithKeyLess")
	}
	return o.keyLess
}
