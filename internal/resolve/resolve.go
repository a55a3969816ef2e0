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

// Package resolve decides which date window to request for a symbol.
package resolve

import (
	"time"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
)

// Epoch is the start of every full-historical load.
var Epoch = time.Date(2005, time.January, 1, 0, 0, 0, 0, time.UTC)

// Window computes the fetch window for one symbol. latest is the most recent
// stored date for the symbol, nil when nothing is stored yet.
//
// Precedence: an explicit customStart always wins (end defaults to today);
// then forceHistorical or a missing latest date yields a full-historical
// window from the epoch with no end bound; otherwise the window is
// incremental from latest+1 day through today. An incremental start past
// today is returned as-is: the fetch is attempted and expected to come back
// empty, which is not an error.
func Window(latest *time.Time, forceHistorical bool, customStart, customEnd *time.Time, today time.Time) model.FetchWindow {
	today = model.Day(today)

	if customStart != nil {
		end := today
		if customEnd != nil {
			end = model.Day(*customEnd)
		}
		return model.FetchWindow{
			Mode:  model.CustomRange,
			Start: model.Day(*customStart),
			End:   end,
		}
	}

	if forceHistorical || latest == nil {
		return model.FetchWindow{Mode: model.FullHistorical, Start: Epoch}
	}

	return model.FetchWindow{
		Mode:  model.Incremental,
		Start: model.Day(*latest).AddDate(0, 0, 1),
		End:   today,
	}
}
