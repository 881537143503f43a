/*
 * MailBridge - Copyright (C) 2026 The MailBridge authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 2, and only
 * version 2 as published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 59 Temple Place, Suite 330, Boston, MA  02111-1307  USA
 */

package checkpoint

import (
	"time"
)

// Checkpoint marks the position of the last successfully delivered
// message. The (Timestamp, UID) pair is a total order over messages,
// UID breaking timestamp ties.
type Checkpoint struct {
	Timestamp time.Time `json:"timestamp"`
	UID       uint32    `json:"uid"`
}

// After reports whether a message at (ts, uid) is strictly after the
// checkpoint.
func (c Checkpoint) After(ts time.Time, uid uint32) bool {
	if ts.After(c.Timestamp) {
		return true
	}

	if ts.Equal(c.Timestamp) {
		return uid > c.UID
	}

	return false
}

// Store persists a single checkpoint value. Save must be atomic with
// respect to a crash: a reader must observe either the previous or the
// new value, never a torn write.
type Store interface {
	// Load returns the persisted checkpoint, or nil if none has ever
	// been saved.
	Load() (*Checkpoint, error)

	Save(cp Checkpoint) error
}
