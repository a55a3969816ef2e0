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

// Package fetch retrieves daily price bars from third-party market data APIs.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/migbenav/Financial-Data-Pipeline-and-Analytics/internal/model"
)

// Capability tags what kind of request a source can honor. The loader
// dispatches on this tag instead of on concrete client types, so adding a
// source means adding a Source implementation, not another type switch.
type Capability int

const (
	// CapabilityRange sources accept explicit start/end dates and return bars
	// strictly within that window.
	CapabilityRange Capability = iota
	// CapabilitySnapshot sources only offer whole-history or a recent slice;
	// the caller must trim already-stored rows locally.
	CapabilitySnapshot
	// CapabilityLatest sources only offer a real-time quote; they return a
	// single synthetic bar stamped at call time.
	CapabilityLatest
)

func (c Capability) String() string {
	switch c {
	case CapabilityRange:
		return "range"
	case CapabilitySnapshot:
		return "snapshot"
	case CapabilityLatest:
		return "latest"
	default:
		return "unknown"
	}
}

// Request asks a source for one symbol's bars. Sources interpret Window
// according to their capability; a latest-only source ignores it entirely.
type Request struct {
	Symbol string
	Window model.FetchWindow
}

// Source is one market data provider.
type Source interface {
	Name() string
	Capability() Capability
	Fetch(ctx context.Context, req Request) ([]model.Bar, error)
}

// ErrNoData reports that the source answered but had nothing for the symbol
// or window: an unknown ticker, an empty range, or a request past the last
// trading day. Callers treat it as "skip this symbol", not as a failure.
var ErrNoData = errors.New("no data for symbol")

const defaultTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// readBody drains a response body for inclusion in error messages.
func readBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return fmt.Sprintf("<unreadable body: %v>", err)
	}
	return string(b)
}
