// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hand

import (
	"sync"
	"time"
)

// latest keeps the most recent snapshot of each hand for sources fed by
// asynchronous transports (MQTT callbacks, serial reader goroutine).
// A hand is reported inactive until it has been seen, and again once its
// snapshot is older than maxAge.
type latest struct {
	mu     sync.RWMutex
	maxAge time.Duration
	now    func() time.Time

	snap [2]Snapshot
	seen [2]time.Time
}

func newLatest(maxAge time.Duration, now func() time.Time) *latest {
	if now == nil {
		now = time.Now
	}
	return &latest{maxAge: maxAge, now: now}
}

func (l *latest) store(side Side, s Snapshot) {
	l.mu.Lock()
	l.snap[side] = s
	l.seen[side] = l.now()
	l.mu.Unlock()
}

// frame returns a copy of both hands as one consistent frame.
func (l *latest) frame() Frame {
	now := l.now()

	l.mu.RLock()
	defer l.mu.RUnlock()

	f := Frame{Time: now, Left: l.snap[Left], Right: l.snap[Right]}
	for _, side := range []Side{Left, Right} {
		h := f.Hand(side)
		if l.seen[side].IsZero() || (l.maxAge > 0 && now.Sub(l.seen[side]) > l.maxAge) {
			h.Active = false
		}
	}
	return f
}
