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

package bridge

import (
	"sync"
	"time"

	"github.com/hijiri/mailbridge/checkpoint"
	"github.com/hijiri/mailbridge/mailbox"
	"github.com/hijiri/mailbridge/notify"
)

type Config struct {
	Store   checkpoint.Store
	Reader  mailbox.Reader
	Gateway notify.Gateway

	// CheckInterval is the sleep between cycles in continuous mode.
	CheckInterval time.Duration

	// PreviewLength caps the notification body preview, in characters.
	PreviewLength int

	// DeliveryPause is an optional pause between consecutive
	// deliveries within a cycle, to avoid hammering the gateway.
	DeliveryPause time.Duration

	// StartFromNow changes first-run behaviour: instead of forwarding
	// the entire mailbox history, seed the checkpoint at the current
	// time and forward only what arrives afterwards.
	StartFromNow bool
}

// CycleResult summarizes one fetch-and-deliver pass.
type CycleResult struct {
	Fetched   int
	Delivered int
}

// Bridge drives the fetch-and-deliver engine. Exactly one cycle runs
// at a time; the mutex rejects accidental re-entry from a second
// driver.
type Bridge struct {
	cfg Config
	mu  sync.Mutex
}
