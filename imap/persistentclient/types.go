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

package persistentclient

import (
	"crypto/tls"
	"time"

	"github.com/emersion/go-imap"
	imap2 "github.com/hijiri/mailbridge/imap"
)

type Config struct {
	HostPort  string
	Auth      imap2.Authenticator
	Mailbox   string
	TLS       bool
	TLSConfig *tls.Config
	Debug     bool
	MaxDelay  time.Duration
}

type selectResponse struct {
	status *imap.MailboxStatus
	err    error
}

type selectRequest struct {
	r chan selectResponse

	name     string
	readOnly bool
}

type uidSearchResponse struct {
	uids []uint32
	err  error
}

type uidSearchRequest struct {
	r chan uidSearchResponse

	criteria *imap.SearchCriteria
}

type uidFetchRequest struct {
	r chan error

	seqset *imap.SeqSet
	items  []imap.FetchItem
	ch     chan *imap.Message
}

type logoutRequest struct {
	r chan error
}

// PersistentClient wraps a standard client, lazily (re)connecting with
// jittered exponential backoff. Requests are serviced by a single
// goroutine, one at a time.
type PersistentClient struct {
	c   imap2.Client
	cfg Config

	ch            chan interface{}
	logoutChannel chan logoutRequest
	shutdown      int32
	loggedOut     chan struct{}
	logURL        string

	nextDelay   time.Duration
	nextAttempt time.Time
}

type Factory struct {
	MaxDelay time.Duration
}
