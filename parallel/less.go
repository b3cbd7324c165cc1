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

package parallel

import (
	"fmt"
	"sync"

	"golang.org/x/exp/constraints"

	"github.com/relctl/groupjoin"
	"github.com/relctl/groupjoin/agg"
	"github.com/relctl/groupjoin/config"
	"github.com/relctl/groupjoin/join"
	"github.com/relctl/groupjoin/partition"
	"github.com/relctl/groupjoin/workerpool"
)

// Less is the full two-pass parallel `<` GroupJoin. The partition
// function is always key-ascending (partition.StridedDividers sampled
// from L, or a caller override via WithPartitionFunc that must preserve
// that property): partition p+1 holds only keys strictly greater than
// partition p's, so partition.Less's suffix-combined totals[p+1] is
// exactly the aggregate contributed by every row outside partition p
// that the sort-merge-less invariant requires. Each partition then only
// needs a local sort-merge-less pass (join.SortMergeLessTotals) combined
// with that suffix total before finalizing. Requires Combine.
func Less[K constraints.Ordered, PL, PR, T, S any](
	cfg config.Config, pool *workerpool.Pool,
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) ([]groupjoin.Result[K, PL, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	combine := a.MustCombine()
	o := resolve(opts)
	P, err := cfg.Partitions(len(L))
	if err != nil {
		return nil, err
	}
	id := newCallID()
	trace("groupjoin[%s]: < join, |L|=%d |R|=%d, %d partitions", id, len(L), len(R), P)

	pf := partition.StridedDividers(L, P)
	if o.partitionFunc != nil {
		pf = o.partitionFunc(P)
	}

	var dst []groupjoin.Result[K, PL, S]
	var allocWG sync.WaitGroup
	allocWG.Add(1)
	go func() {
		defer allocWG.Done()
		dst = make([]groupjoin.Result[K, PL, S], len(L))
	}()

	posL := partition.Plain(pool, L, P, pf)
	posR, totals := partition.Less(pool, R, P, pf, a)
	allocWG.Wait()

	less := func(x, y K) bool { return x < y }
	joinOpts := append(append([]join.Option[K]{}, o.joinOpts...), join.WithKeyLess[K](less))

	trace("groupjoin[%s]: partitioned (suffix totals collected), launching %d per-partition joins", id, P)
	tasks := make([]func(), P)
	for p := 0; p < P; p++ {
		p := p
		tasks[p] = func() {
			loL, hiL := posL[p], posL[p+1]
			loR, hiR := posR[p], posR[p+1]
			sortedL, perRowT := join.SortMergeLessTotals(L[loL:hiL], R[loR:hiR], a, joinOpts...)
			suffix := totals[p+1]
			for i, l := range sortedL {
				dst[loL+i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(combine(perRowT[i], suffix))}
			}
		}
	}
	if err := pool.RunAll(tasks); err != nil {
		return nil, fmt.Errorf("parallel: < join: %w", err)
	}
	return dst, nil
}
