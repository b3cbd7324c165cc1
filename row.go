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

// Package groupjoin implements theta-GroupJoin: for every row of a left
// relation L, aggregate the payloads of the rows of a right relation R
// whose keys stand in a relation (=, !=, <) to the L row's key. See the
// subpackages for the actual algorithms:
//
//   - agg: the aggregate-function abstraction (init/accumulate/finalize,
//     optional combine/subtract) plus the concrete aggregate library.
//   - join: the serial engines, one family per predicate.
//   - partition: the parallel partitioning engine.
//   - parallel: the parallel operators that drive partition+join.
//   - workerpool: the bounded work-stealing pool backing both of the above.
//   - config: explicit, non-global tunables (prt_size, num_threads).
package groupjoin

// Row is one tuple of a relation: a key and an opaque payload. K must be
// comparable so it can be hashed and compared for equality by every
// engine; algorithms that additionally require a total order accept a
// caller-supplied less function rather than constraining K further here.
type Row[K comparable, V any] struct {
	Key     K
	Payload V
}

// Relation is an ordered sequence of rows. Some algorithms permute a
// Relation in place (sort-based and partitioning engines); this is
// documented per entry point rather than encoded in the type, since Go has
// no way to express "sorted" or "owned-for-mutation" in a slice type.
type Relation[K comparable, V any] []Row[K, V]

// Result is one row of GroupJoin output: the left row paired with its
// finalized aggregate.
type Result[K comparable, PL, S any] struct {
	Left Row[K, PL]
	Agg  S
}
