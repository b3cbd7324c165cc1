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

// Package parallel drives partition.Plain/Uneq/Less plus a per-partition
// join.* call across a workerpool.Pool to implement the full parallel
// GroupJoin operators (Eq, Uneq, Less) and their "simple partitioning"
// siblings (EqSimple, UneqSimple, LessSimple), which materialize
// per-partition vectors sequentially instead of partitioning in place.
package parallel

import (
	"github.com/relctl/groupjoin/join"
	"github.com/relctl/groupjoin/partition"
)

// Option configures a parallel operator call.
type Option[K comparable] func(*options[K])

type options[K comparable] struct {
	joinOpts      []join.Option[K]
	partitionFunc func(count int) partition.Func[K]
}

// WithJoinOptions forwards options (WithKeyEqual, WithKeyLess) to the
// per-partition serial join.
func WithJoinOptions[K comparable](opts ...join.Option[K]) Option[K] {
	return func(o *options[K]) { o.joinOpts = append(o.joinOpts, opts...) }
}

// WithPartitionFunc overrides the default partition function. Left nil,
// Eq and Uneq fall back to partition.SipHash (see defaultPartitionFunc);
// Less and LessSimple fall back to a key-ordered partition.StridedDividers
// function derived from L instead, since the suffix-total invariant they
// rely on requires partition indices to be key-ascending — an explicit
// WithPartitionFunc override applies to all operators alike, so callers
// supplying one for Less must preserve that ordering property themselves.
func WithPartitionFunc[K comparable](pf func(count int) partition.Func[K]) Option[K] {
	return func(o *options[K]) { o.partitionFunc = pf }
}

// defaultPartitionFunc is Eq's and Uneq's partition function when the
// caller supplies no WithPartitionFunc override.
func defaultPartitionFunc[K comparable](count int) partition.Func[K] {
	return partition.FromHash(partition.SipHash[K](), count)
}

func resolve[K comparable](opts []Option[K]) options[K] {
	var o options[K]
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
