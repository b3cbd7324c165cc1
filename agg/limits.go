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
	"math"

	"golang.org/x/exp/constraints"
)

// maxOf and minOf report the extremal value of a concrete numeric type
// bound to the Number type parameter. Go generics give no constant
// expression for "the maximum value of N", so this switches on N's
// concrete type at the one place that needs it (Min/Max's Init seed)
// rather than threading a sentinel through every call site.
func maxOf[N constraints.Integer | constraints.Float]() N {
	var zero N
	switch any(zero).(type) {
	case int:
		return N(math.MaxInt)
	case int8:
		return N(math.MaxInt8)
	case int16:
		return N(math.MaxInt16)
	case int32:
		return N(math.MaxInt32)
	case int64:
		return N(math.MaxInt64)
	case uint:
		return N(math.MaxUint)
	case uint8:
		return N(math.MaxUint8)
	case uint16:
		return N(math.MaxUint16)
	case uint32:
		return N(math.MaxUint32)
	case uint64:
		return N(math.MaxUint64)
	case float32:
		return N(math.MaxFloat32)
	case float64:
		return N(math.MaxFloat64)
	default:
		panic("agg: unsupported numeric type")
	}
}

func minOf[N constraints.Integer | constraints.Float]() N {
	var zero N
	switch any(zero).(type) {
	case int:
		return N(math.MinInt)
	case int8:
		return N(math.MinInt8)
	case int16:
		return N(math.MinInt16)
	case int32:
		return N(math.MinInt32)
	case int64:
		return N(math.MinInt64)
	case uint, uint8, uint16, uint32, uint64:
		return N(0)
	case float32:
		return N(-math.MaxFloat32)
	case float64:
		return N(-math.MaxFloat64)
	default:
		panic("agg: unsupported numeric type")
	}
}
