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

// bucketize sequentially materializes one slice per partition instead of
// permuting rel in place, the "simple partitioning" family's trade: a
// single allocation pass rather than partition.Plain's two-pass in-place
// scheme, at the cost of per-partition copies.
func bucketize[K comparable, V any](rel []groupjoin.Row[K, V], count int, pf partition.Func[K]) [][]groupjoin.Row[K, V] {
	buckets := make([][]groupjoin.Row[K, V], count)
	for _, r := range rel {
		p := pf(r.Key)
		buckets[p] = append(buckets[p], r)
	}
	return buckets
}

func bucketOffsets[K comparable, V any](buckets [][]groupjoin.Row[K, V]) []int {
	offsets := make([]int, len(buckets)+1)
	for p, b := range buckets {
		offsets[p+1] = offsets[p] + len(b)
	}
	return offsets
}

// EqSimple is Eq's simple-partitioning sibling: one goroutine bucketizes
// L while the caller's goroutine bucketizes R (kept for small P, or when
// in-place permutation of L/R is undesirable), then runs
// join.HashBuildLRange per partition across pool.
func EqSimple[K comparable, PL, PR, T, S any](
	cfg config.Config, pool *workerpool.Pool,
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) ([]groupjoin.Result[K, PL, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := resolve(opts)
	P, err := cfg.Partitions(len(L))
	if err != nil {
		return nil, err
	}
	pfFactory := o.partitionFunc
	if pfFactory == nil {
		pfFactory = defaultPartitionFunc[K]
	}
	pf := pfFactory(P)

	var bucketsL [][]groupjoin.Row[K, PL]
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bucketsL = bucketize(L, P, pf)
	}()
	bucketsR := bucketize(R, P, pf)
	wg.Wait()

	offsets := bucketOffsets(bucketsL)
	dst := make([]groupjoin.Result[K, PL, S], offsets[P])

	tasks := make([]func(), P)
	for p := 0; p < P; p++ {
		p := p
		tasks[p] = func() {
			join.HashBuildLRange(bucketsL[p], bucketsR[p], dst[offsets[p]:offsets[p+1]], a, o.joinOpts...)
		}
	}
	if err := pool.RunAll(tasks); err != nil {
		return nil, fmt.Errorf("parallel: simple = join: %w", err)
	}
	return dst, nil
}

// UneqSimple is Uneq's simple-partitioning sibling.
func UneqSimple[K comparable, PL, PR, T, S any](
	cfg config.Config, pool *workerpool.Pool,
	L []groupjoin.Row[K, PL], R []groupjoin.Row[K, PR],
	a agg.Aggregate[T, S, groupjoin.Row[K, PR]],
	opts ...Option[K],
) ([]groupjoin.Result[K, PL, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	subtract := a.MustSubtract()
	o := resolve(opts)
	P, err := cfg.Partitions(len(L))
	if err != nil {
		return nil, err
	}
	pfFactory := o.partitionFunc
	if pfFactory == nil {
		pfFactory = defaultPartitionFunc[K]
	}
	pf := pfFactory(P)

	var bucketsL [][]groupjoin.Row[K, PL]
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bucketsL = bucketize(L, P, pf)
	}()
	bucketsR := bucketize(R, P, pf)
	wg.Wait()

	total := a.Init()
	for _, bucket := range bucketsR {
		for _, r := range bucket {
			total = a.Accumulate(total, r)
		}
	}

	offsets := bucketOffsets(bucketsL)
	dst := make([]groupjoin.Result[K, PL, S], offsets[P])

	tasks := make([]func(), P)
	for p := 0; p < P; p++ {
		p := p
		tasks[p] = func() {
			perKey := join.PerKeyTotals(bucketsR[p], a)
			for i, l := range bucketsL[p] {
				pk, ok := perKey[l.Key]
				if !ok {
					pk = a.Init()
				}
				dst[offsets[p]+i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(subtract(total, pk))}
			}
		}
	}
	if err := pool.RunAll(tasks); err != nil {
		return nil, fmt.Errorf("parallel: simple != join: %w", err)
	}
	return dst, nil
}

// LessSimple is Less's simple-partitioning sibling.
func LessSimple[K constraints.Ordered, PL, PR, T, S any](
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
	pf := partition.StridedDividers(L, P)
	if o.partitionFunc != nil {
		pf = o.partitionFunc(P)
	}

	var bucketsL [][]groupjoin.Row[K, PL]
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bucketsL = bucketize(L, P, pf)
	}()
	bucketsR := bucketize(R, P, pf)
	wg.Wait()

	perPartition := make([]T, P)
	for p, bucket := range bucketsR {
		acc := a.Init()
		for _, r := range bucket {
			acc = a.Accumulate(acc, r)
		}
		perPartition[p] = acc
	}
	totals := make([]T, P+1)
	totals[P] = a.Init()
	for p := P - 1; p >= 0; p-- {
		totals[p] = combine(perPartition[p], totals[p+1])
	}

	offsets := bucketOffsets(bucketsL)
	dst := make([]groupjoin.Result[K, PL, S], offsets[P])

	less := func(x, y K) bool { return x < y }
	joinOpts := append(append([]join.Option[K]{}, o.joinOpts...), join.WithKeyLess[K](less))

	tasks := make([]func(), P)
	for p := 0; p < P; p++ {
		p := p
		tasks[p] = func() {
			sortedL, perRowT := join.SortMergeLessTotals(bucketsL[p], bucketsR[p], a, joinOpts...)
			suffix := totals[p+1]
			for i, l := range sortedL {
				dst[offsets[p]+i] = groupjoin.Result[K, PL, S]{Left: l, Agg: a.Finalize(combine(perRowT[i], suffix))}
			}
		}
	}
	if err := pool.RunAll(tasks); err != nil {
		return nil, fmt.Errorf("parallel: simple < join: %w", err)
	}
	return dst, nil
}
