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

package imap

import (
	"crypto/tls"
	"errors"

	"github.com/emersion/go-imap"
)

var (
	// ErrAuth is wrapped into errors returned when the server rejects
	// our credentials. Not recoverable by retrying.
	ErrAuth = errors.New("authentication failed")

	// ErrConnection is wrapped into transport-level failures, i.e.
	// anything worth retrying on the next cycle.
	ErrConnection = errors.New("connection failed")
)

// Client is the read-only surface MailBridge needs from an IMAP
// connection. Clients returned by a factory have already selected
// their configured mailbox.
type Client interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)

	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)

	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error

	Logout() error

	LoggedOut() <-chan struct{}
}

type ClientConfig struct {
	HostPort  string
	Auth      Authenticator
	Mailbox   string
	TLS       bool
	TLSConfig *tls.Config
	Debug     bool
}

type ClientFactory interface {
	NewClient(cfg *ClientConfig) (Client, error)
}

type Message = imap.Message
type SeqSet = imap.SeqSet
type SearchCriteria = imap.SearchCriteria
type MailboxStatus = imap.MailboxStatus
type FetchItem = imap.FetchItem
type BodySectionName = imap.BodySectionName
