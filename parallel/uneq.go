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

	"github.com/relctl/groupjoin"
	"github.com/relctl/groupjoin/agg"
	"github.com/relctl/groupjoin/config"
	"github.com/relctl/groupjoin/join"
	"github.com/relctl/groupjoin/partition"
	"github.com/relctl/groupjoin/workerpool"
)

// Uneq is the full two-pass parallel inequality GroupJoin. It partitions
// L with partition.Plain and R with partition.Uneq (which additionally
// returns the global total over all of R while partitioning), then per
// partition computes per-key totals scoped to that partition's R rows
// (partition.Plain/partition.Uneq guarantee equal keys land in the same
// partition) and applies the subtract(total, perKey) identity directly
// — this is join.HashUneqRange's identity, inlined here because the
// total it needs is the global one collected across every partition,
// not the partition-local one join.HashUneqRange would otherwise
// recompute. Requires Combine and Subtract.
func Uneq[K comparable, PL, PR, T, S any](
	cfg config.Config, pool *workerpool.Pool,
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) ([]groupjoin.Result[K, PL, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.MustCombine()
	subtract := a.MustSubtract()
	o := resolve(opts)
	P, err := cfg.Partitions(len(L))
	if err != nil {
		return nil, err
	}
	id := newCallID()
	trace("groupjoin[%s]: != join, |L|=%d |R|=%d, %d partitions", id, len(L), len(R), P)

	pfFactory := o.partitionFunc
	if pfFactory == nil {
		pfFactory = defaultPartitionFunc[K]
	}
	pf := pfFactory(P)

	var dst []groupjoin.Result[K, PL, S]
	var allocWG sync.WaitGroup
	allocWG.Add(1)
	go func() {
		defer allocWG.Done()
		dst = make([]groupjoin.Result[K, PL, S], len(L))
	}()

	posL := partition.Plain(pool, L, P, pf)
	posR, total := partition.Uneq(pool, R, P, pf, a)
	allocWG.Wait()

	trace("groupjoin[%s]: partitioned (global total collected), launching %d per-partition joins", id, P)
	tasks := make([]func(), P)
	for p := 0; p < P; p++ {
		p := p
		tasks[p] = func() {
			loL, hiL := posL[p], posL[p+1]
			loR, hiR := posR[p], posR[p+1]
			perKey := join.PerKeyTotals(R[loR:hiR], a)
			for i := loL; i < hiL; i++ {
				l := L[i]
				pk, ok := perKey[l.Key]
				if !ok {
					pk = a.Init()
				}
				dst[i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(subtract(total, pk))}
			}
		}
	}
	if err := pool.RunAll(tasks); err != nil {
		return nil, fmt.Errorf("parallel: != join: %w", err)
	}
	return dst, nil
}
