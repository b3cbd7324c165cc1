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

// Package agg defines the aggregate-function abstraction GroupJoin engines
// are parameterized over, plus a small library of concrete aggregates.
//
// An Aggregate is a plain record of function values rather than an
// interface: a monomorphic call site (agg.Accumulate(t, r)) is exactly as
// cheap as an inlined direct call, and capability is expressed by which
// fields are nil rather than by which interface a type implements.
package agg

import "fmt"

// Aggregate is the capability record every GroupJoin engine is
// parameterized over. T is the intermediate (running) state, S is the
// finalized result, R is the right-relation row type the aggregate
// consumes.
//
// Init, Accumulate and Finalize are required by every engine. Combine is
// required by the != and < engines and every parallel operator. Subtract
// is required by the != engines (hash and sort-merge) and the parallel !=
// operator. An engine that needs a capability the Aggregate doesn't
// supply should call MustCombine/MustSubtract, which panics with a named
// error: picking an aggregate without the capability an engine requires is
// a programmer error, not a data error, so it is not reported through a
// returned error value.
type Aggregate[T, S, R any] struct {
	Init       func() T
	Accumulate func(T, R) T
	Finalize   func(T) S

	// Combine merges two partial states. It must be associative, with
	// Init() as its identity: Combine(Init(), x) == x.
	Combine func(T, T) T

	// Subtract undoes a Combine: Combine(Subtract(a, b), b) == a.
	Subtract func(T, T) T
}

// ErrNoCombine and ErrNoSubtract are the named errors behind the panics
// MustCombine/MustSubtract raise.
var (
	ErrNoCombine  = fmt.Errorf("agg: aggregate does not supply Combine")
	ErrNoSubtract = fmt.Errorf("agg: aggregate does not supply Subtract")
)

// HasCombine reports whether a is eligible for the != and < engines and
// every parallel operator.
func (a Aggregate[T, S, R]) HasCombine() bool { return a.Combine != nil }

// HasSubtract reports whether a is eligible for the != hash/sort-merge
// engines and the parallel != operator.
func (a Aggregate[T, S, R]) HasSubtract() bool { return a.Subtract != nil }

// MustCombine panics with ErrNoCombine if a has no Combine, otherwise
// returns a.Combine. Engines call this once up front rather than letting
// a nil function value panic deep inside a hot loop.
func (a Aggregate[T, S, R]) MustCombine() func(T, T) T {
	if a.Combine == nil {
		panic(ErrNoCombine)
	}
	return a.Combine
}

// MustSubtract panics with ErrNoSubtract if a has no Subtract.
func (a Aggregate[T, S, R]) MustSubtract() func(T, T) T {
	if a.Subtract == nil {
		panic(ErrNoSubtract)
	}
	return a.Subtract
}
