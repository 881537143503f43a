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

package notify

import (
	"context"
	"errors"
)

var (
	// ErrUnreachable means the gateway could not be contacted at all.
	// Transient.
	ErrUnreachable = errors.New("gateway unreachable")

	// ErrRejected means the gateway answered with a non-success
	// status. Also treated as transient; the gateway does not validate
	// content, so a rejection is assumed to be its problem, not ours.
	ErrRejected = errors.New("gateway rejected payload")

	// ErrMalformed means we failed to serialize the payload. This
	// cannot happen for payloads produced by Format and indicates a
	// programming defect.
	ErrMalformed = errors.New("payload serialization failed")
)

// Payload is a single bounded-size notification derived from exactly
// one mailbox message.
type Payload struct {
	From    string
	Subject string
	Date    string
	Preview string
}

// Gateway delivers payloads to the notification endpoint. Delivery is
// at-least-once: a timeout after the gateway accepted the payload is
// indistinguishable from a failure, so retries may duplicate.
type Gateway interface {
	Deliver(ctx context.Context, p Payload) error
}
