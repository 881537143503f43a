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

package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	imap2 "github.com/hijiri/mailbridge/imap"
	"github.com/hijiri/mailbridge/checkpoint"
)

var (
	// ErrAuth means the server rejected our credentials. Fatal, the
	// process should not keep retrying with the same ones.
	ErrAuth = imap2.ErrAuth

	// ErrConnection is any transport-level failure. Transient,
	// recovered by the next cycle.
	ErrConnection = imap2.ErrConnection

	// ErrProtocol means the server returned data we could not make
	// sense of. Treated as transient.
	ErrProtocol = errors.New("malformed server response")
)

// Message is a mailbox message as seen by the bridge. UID is stable
// and unique within the mailbox; Date is the server's arrival time.
type Message struct {
	UID     uint32
	Date    time.Time
	From    string
	Subject string
	Body    string
}

// Reader returns the messages strictly after the given checkpoint, in
// ascending (Date, UID) order. A nil checkpoint means the whole
// mailbox. Readers do not retry; retry policy belongs to the caller.
type Reader interface {
	FetchSince(ctx context.Context, cp *checkpoint.Checkpoint) ([]Message, error)

	Close()
}

type Config struct {
	HostPort  string
	Auth      imap2.Authenticator
	Mailbox   string
	TLS       bool
	TLSConfig *tls.Config
	Debug     bool
}
