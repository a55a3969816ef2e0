/*
Copyright © 2026 M. Benavides

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package model

import "time"

// FetchMode selects how a symbol's fetch window was derived.
type FetchMode int

const (
	// FullHistorical fetches everything from the fixed epoch with no end bound.
	FullHistorical FetchMode = iota
	// Incremental fetches from the day after the latest stored date through today.
	Incremental
	// CustomRange fetches an explicitly requested backfill window.
	CustomRange
	// LatestSnapshot carries no range; the source only offers "now".
	LatestSnapshot
)

func (m FetchMode) String() string {
	switch m {
	case FullHistorical:
		return "full-historical"
	case Incremental:
		return "incremental"
	case CustomRange:
		return "custom-range"
	case LatestSnapshot:
		return "latest-snapshot"
	default:
		return "unknown"
	}
}

// FetchWindow is the per-symbol, per-run fetch request window. A zero Start or
// End means unbounded on that side.
type FetchWindow struct {
	Mode  FetchMode
	Start time.Time
	End   time.Time
}
