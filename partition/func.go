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

// Package partition implements the parallel two-pass partition engine:
// sharding a relation into P key-aligned, contiguous buckets, in place,
// across a workerpool.Pool, optionally folding in an aggregate's
// per-partition subtotals as it goes.
package partition

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"

	"github.com/dchest/siphash"
	"golang.org/x/exp/constraints"

	"github.com/relctl/groupjoin"
)

// Func assigns every key to a partition index in [0, P).
type Func[K comparable] func(key K) int

// Mod returns a Func for dense integer keys: key mod count, folded into
// [0, count) via Go's truncating % plus a correction for negative keys
// (Go's % can return a negative result, but nothing stops a caller from
// handing us a signed K).
func Mod[K constraints.Integer](count int) Func[K] {
	if count <= 0 {
		panic("partition: Mod requires count > 0")
	}
	c := K(count)
	return func(key K) int {
		m := key % c
		if m < 0 {
			m += c
		}
		return int(m)
	}
}

// Dividers returns a Func[K] for P = len(divs)+1 range partitions, used
// by the `<` parallel driver so partition p+1's keys are all strictly
// greater than partition p's: divs must be sorted ascending.
// partition(key) = upper_bound(divs, key), i.e. the count of divs
// entries <= key, so keys equal to a divider land in the bucket above it.
func Dividers[K constraints.Ordered](divs []K) Func[K] {
	return func(key K) int {
		return sort.Search(len(divs), func(i int) bool { return divs[i] > key })
	}
}

// sampleDividers picks count-1 sorted sample keys from rel, evenly
// strided through it, as candidate range-partition dividers.
func sampleDividers[K constraints.Ordered, V any](rel []groupjoin.Row[K, V], count int) []K {
	if count <= 1 || len(rel) == 0 {
		return nil
	}
	divs := make([]K, count-1)
	for i := range divs {
		idx := i * len(rel) / (count - 1)
		if idx >= len(rel) {
			idx = len(rel) - 1
		}
		divs[i] = rel[idx].Key
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i] < divs[j] })
	return divs
}

// StridedDividers builds a Dividers Func by evenly striding through rel
// for its P-1 sample keys. If rel is adversarially ordered (e.g. already
// partitioned into runs that don't reflect the true key distribution) the
// resulting partitions can come out badly skewed; see RandomDividers for
// a fallback that doesn't share this failure mode.
func StridedDividers[K constraints.Ordered, V any](rel []groupjoin.Row[K, V], count int) Func[K] {
	return Dividers(sampleDividers(rel, count))
}

// RandomDividers builds a Dividers Func from count-1 *uniformly random*
// sample indices of rel rather than evenly strided ones. Use this over
// StridedDividers when rel's order is not known to reflect its own key
// distribution.
func RandomDividers[K constraints.Ordered, V any](rng *rand.Rand, rel []groupjoin.Row[K, V], count int) Func[K] {
	if count <= 1 || len(rel) == 0 {
		return Dividers[K](nil)
	}
	divs := make([]K, count-1)
	for i := range divs {
		divs[i] = rel[rng.Intn(len(rel))].Key
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i] < divs[j] })
	return Dividers(divs)
}

// Hash maps an arbitrary comparable key into a bucket in [0, P).
type Hash[K comparable] func(key K, buckets int) int

// siphashKey0/siphashKey1 are fixed keys for the default bucket hash:
// fixed rather than random so repeated calls with the same key set are
// reproducible.
const (
	siphashKey0 = uint64(0x5d1ec810)
	siphashKey1 = uint64(0xfebed702)
)

// SipHash returns the default bucket Hash for arbitrary comparable K:
// serialize the key to bytes, siphash it, then reduce via
// hash / (maxUint64 / buckets) rather than a modulus, so the top bits
// dominate bucket selection.
func SipHash[K comparable]() Hash[K] {
	return func(key K, buckets int) int {
		if buckets <= 0 {
			panic("partition: SipHash requires buckets > 0")
		}
		b := keyBytes(key)
		h := siphash.Hash(siphashKey0, siphashKey1, b)
		maxUint64 := ^uint64(0)
		idx := h / (maxUint64 / uint64(buckets))
		if idx >= uint64(buckets) {
			idx = uint64(buckets) - 1
		}
		return int(idx)
	}
}

// keyBytes serializes key for hashing: fixed-width binary encoding for
// the kinds encoding/binary.Write supports directly, %v text otherwise.
func keyBytes(key any) []byte {
	buf := make([]byte, 0, 8)
	switch v := key.(type) {
	case int8, int16, int32, int64, int, uint8, uint16, uint32, uint64, uint, float32, float64, bool:
		w := sliceWriter{buf: &buf}
		if err := binary.Write(&w, binary.LittleEndian, v); err == nil {
			return buf
		}
	case string:
		return []byte(v)
	}
	return []byte(fmt.Sprintf("%v", key))
}

// sliceWriter adapts a *[]byte to io.Writer for binary.Write.
type sliceWriter struct{ buf *[]byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

// FromHash adapts a Hash[K] plus a fixed bucket count into a Func[K].
func FromHash[K comparable](h Hash[K], buckets int) Func[K] {
	return func(key K) int { return h(key, buckets) }
}
