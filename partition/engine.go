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

package partition

import (
	"github.com/relctl/groupjoin"
	"github.com/relctl/groupjoin/agg"
	"github.com/relctl/groupjoin/workerpool"
)

// bounds splits [0, n) into threads roughly-equal contiguous chunks,
// returning threads+1 boundary offsets.
func bounds(n, threads int) []int {
	if threads < 1 {
		threads = 1
	}
	b := make([]int, threads+1)
	for i := 0; i <= threads; i++ {
		b[i] = i * n / threads
	}
	return b
}

// buildPos runs the engine's Prefix phase: a strict barrier between
// Count and Scatter. pos[p] is the first destination index of partition
// p (pos[count] == len(rel)); offsets[t][p] is the write cursor thread t
// starts Scatter at for partition p, advanced in place during Scatter.
func buildPos(threads, count int, counts [][]int) (pos []int, offsets [][]int) {
	pos = make([]int, count+1)
	offsets = make([][]int, threads)
	for t := range offsets {
		offsets[t] = make([]int, count)
	}
	for p := 0; p < count; p++ {
		pos[p+1] = pos[p]
		for t := 0; t < threads; t++ {
			offsets[t][p] = pos[p+1]
			pos[p+1] += counts[t][p]
		}
	}
	return pos, offsets
}

func threadCountOf(pool *workerpool.Pool) int {
	n := pool.N()
	if n < 1 {
		return 1
	}
	return n
}

// Plain partitions rel in place into count buckets assigned by pf,
// running Count and Scatter across pool. Returns pos, sized count+1,
// such that rel[pos[p]:pos[p+1]] is exactly the rows with pf(Key) == p;
// rel is a permutation of its input (property 5).
func Plain[K comparable, V any](pool *workerpool.Pool, rel []groupjoin.Row[K, V], count int, pf Func[K]) []int {
	threads := threadCountOf(pool)
	b := bounds(len(rel), threads)

	counts := make([][]int, threads)
	bufs := make([][]groupjoin.Row[K, V], threads)

	countTasks := make([]func(), threads)
	for t := 0; t < threads; t++ {
		t := t
		countTasks[t] = func() {
			lo, hi := b[t], b[t+1]
			buf := append([]groupjoin.Row[K, V]{}, rel[lo:hi]...)
			bufs[t] = buf
			c := make([]int, count)
			for _, row := range buf {
				c[pf(row.Key)]++
			}
			counts[t] = c
		}
	}
	if err := pool.RunAll(countTasks); err != nil {
		panic(err)
	}

	pos, offsets := buildPos(threads, count, counts)

	scatterTasks := make([]func(), threads)
	for t := 0; t < threads; t++ {
		t := t
		scatterTasks[t] = func() {
			off := offsets[t]
			for _, row := range bufs[t] {
				p := pf(row.Key)
				rel[off[p]] = row
				off[p]++
			}
		}
	}
	if err := pool.RunAll(scatterTasks); err != nil {
		panic(err)
	}
	return pos
}

// Uneq is Plain plus the global aggregate total computed over every row
// while partitioning, supporting the parallel != operator's total. The
// aggregate must supply Combine.
func Uneq[K comparable, V, T, S any](
	pool *workerpool.Pool, rel []groupjoin.Row[K, V], count int, pf Func[K],
	a agg.Aggregate[T, S, groupjoin.Row[K, V]],
) ([]int, T) {
	combine := a.MustCombine()
	threads := threadCountOf(pool)
	b := bounds(len(rel), threads)

	counts := make([][]int, threads)
	subtotals := make([]T, threads)
	bufs := make([][]groupjoin.Row[K, V], threads)

	countTasks := make([]func(), threads)
	for t := 0; t < threads; t++ {
		t := t
		countTasks[t] = func() {
			lo, hi := b[t], b[t+1]
			buf := append([]groupjoin.Row[K, V]{}, rel[lo:hi]...)
			bufs[t] = buf
			c := make([]int, count)
			sub := a.Init()
			for _, row := range buf {
				c[pf(row.Key)]++
				sub = a.Accumulate(sub, row)
			}
			counts[t] = c
			subtotals[t] = sub
		}
	}
	if err := pool.RunAll(countTasks); err != nil {
		panic(err)
	}

	pos, offsets := buildPos(threads, count, counts)
	total := a.Init()
	for t := 0; t < threads; t++ {
		total = combine(total, subtotals[t])
	}

	scatterTasks := make([]func(), threads)
	for t := 0; t < threads; t++ {
		t := t
		scatterTasks[t] = func() {
			off := offsets[t]
			for _, row := range bufs[t] {
				p := pf(row.Key)
				rel[off[p]] = row
				off[p]++
			}
		}
	}
	if err := pool.RunAll(scatterTasks); err != nil {
		panic(err)
	}
	return pos, total
}

// Less is Plain plus a per-partition suffix-combined totals array
// supporting the parallel `<` operator: totals[p] is the Combine
// reduction of Accumulate over every row whose partition index is
// strictly greater than p (property 6), and totals[count] is Init().
// Requires a partition function under which partition indices are
// key-ascending (partition.Dividers), since the suffix-total invariant
// is meaningful only then. The aggregate must supply Combine.
func Less[K comparable, V, T, S any](
	pool *workerpool.Pool, rel []groupjoin.Row[K, V], count int, pf Func[K],
	a agg.Aggregate[T, S, groupjoin.Row[K, V]],
) ([]int, []T) {
	combine := a.MustCombine()
	threads := threadCountOf(pool)
	b := bounds(len(rel), threads)

	counts := make([][]int, threads)
	perThreadPartition := make([][]T, threads)
	bufs := make([][]groupjoin.Row[K, V], threads)

	countTasks := make([]func(), threads)
	for t := 0; t < threads; t++ {
		t := t
		countTasks[t] = func() {
			lo, hi := b[t], b[t+1]
			buf := append([]groupjoin.Row[K, V]{}, rel[lo:hi]...)
			bufs[t] = buf
			c := make([]int, count)
			sub := make([]T, count)
			for p := range sub {
				sub[p] = a.Init()
			}
			for _, row := range buf {
				p := pf(row.Key)
				c[p]++
				sub[p] = a.Accumulate(sub[p], row)
			}
			counts[t] = c
			perThreadPartition[t] = sub
		}
	}
	if err := pool.RunAll(countTasks); err != nil {
		panic(err)
	}

	pos, offsets := buildPos(threads, count, counts)

	perPartition := make([]T, count)
	for p := 0; p < count; p++ {
		acc := a.Init()
		for t := 0; t < threads; t++ {
			acc = combine(acc, perThreadPartition[t][p])
		}
		perPartition[p] = acc
	}
	totals := make([]T, count+1)
	totals[count] = a.Init()
	for p := count - 1; p >= 0; p-- {
		totals[p] = combine(perPartition[p], totals[p+1])
	}

	scatterTasks := make([]func(), threads)
	for t := 0; t < threads; t++ {
		t := t
		scatterTasks[t] = func() {
			off := offsets[t]
			for _, row := range bufs[t] {
				p := pf(row.Key)
				rel[off[p]] = row
				off[p]++
			}
		}
	}
	if err := pool.RunAll(scatterTasks); err != nil {
		panic(err)
	}
	return pos, totals
}
