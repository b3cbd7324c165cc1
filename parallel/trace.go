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

import "github.com/google/uuid"

// Trace, when non-nil, is called to report partitioning progress for
// every call to Eq, Uneq and Less; the Simple variants do not trace. Off
// by default: this is diagnostics only and never affects a call's result.
var Trace func(format string, args ...any)

func trace(format string, args ...any) {
	if Trace != nil {
		Trace(format, args...)
	}
}

// newCallID tags one top-level parallel call so a caller who wires up
// Trace can correlate its two log lines: the one at the start of the call
// and the one after partitioning, before the per-partition joins launch.
func newCallID() string {
	return uuid.New().String()
}
