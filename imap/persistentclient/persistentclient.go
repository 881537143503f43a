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
	"errors"
	"math/rand"
	"net/url"
	"sync/atomic"
	"time"

	goImap "github.com/emersion/go-imap"
	log "github.com/sirupsen/logrus"
	imap2 "github.com/hijiri/mailbridge/imap"
	"github.com/hijiri/mailbridge/imap/client"
)

var errConnectionClosed = errors.New("connection closed")

func (c *PersistentClient) isShutdown() bool {
	return atomic.LoadInt32(&c.shutdown) != 0
}

func (c *PersistentClient) Select(name string, readOnly bool) (*goImap.MailboxStatus, error) {
	shutdown := c.isShutdown()
	c.log().WithField("shutdown", shutdown).Trace("pimap_select_invoked")
	if shutdown {
		return nil, errConnectionClosed
	}

	r := make(chan selectResponse)
	select {
	case c.ch <- selectRequest{r: r, name: name, readOnly: readOnly}:
	case <-c.loggedOut:
		return nil, errConnectionClosed
	}
	sr := <-r
	return sr.status, sr.err
}

func (c *PersistentClient) UidSearch(criteria *goImap.SearchCriteria) ([]uint32, error) {
	shutdown := c.isShutdown()
	c.log().WithField("shutdown", shutdown).Trace("pimap_uidsearch_invoked")
	if shutdown {
		return nil, errConnectionClosed
	}

	r := make(chan uidSearchResponse)
	select {
	case c.ch <- uidSearchRequest{r: r, criteria: criteria}:
	case <-c.loggedOut:
		return nil, errConnectionClosed
	}
	sr := <-r
	return sr.uids, sr.err
}

func (c *PersistentClient) UidFetch(seqset *goImap.SeqSet, items []goImap.FetchItem, ch chan *goImap.Message) error {
	shutdown := c.isShutdown()
	c.log().WithField("shutdown", shutdown).Trace("pimap_uidfetch_invoked")
	if shutdown {
		close(ch)
		return errConnectionClosed
	}

	r := make(chan error)
	select {
	case c.ch <- uidFetchRequest{r: r, seqset: seqset, items: items, ch: ch}:
	case <-c.loggedOut:
		close(ch)
		return errConnectionClosed
	}
	return <-r
}

func (c *PersistentClient) Logout() error {
	shutdown := c.isShutdown()
	c.log().WithField("shutdown", shutdown).Trace("pimap_logout_invoked")
	if shutdown {
		return nil
	}

	r := make(chan error)
	select {
	case c.logoutChannel <- logoutRequest{r: r}:
	case <-c.loggedOut:
		return nil
	}
	return <-r
}

func (c *PersistentClient) LoggedOut() <-chan struct{} {
	return c.loggedOut
}

func (c *PersistentClient) log() *log.Entry {
	return log.WithField("url", c.logURL)
}

// connect makes a single connection attempt, honouring the backoff
// window left over from the previous failure. Auth errors are returned
// as-is so the caller can treat them as fatal.
func (c *PersistentClient) connect() error {
	if !c.nextAttempt.IsZero() {
		if wait := time.Until(c.nextAttempt); wait > 0 {
			c.log().WithField("wait", wait).Trace("pimap_connect_backoff")
			time.Sleep(wait)
		}
	}

	f := &client.Factory{}
	cli, err := f.NewClient(&imap2.ClientConfig{
		HostPort:  c.cfg.HostPort,
		Auth:      c.cfg.Auth,
		Mailbox:   c.cfg.Mailbox,
		TLS:       c.cfg.TLS,
		TLSConfig: c.cfg.TLSConfig,
		Debug:     c.cfg.Debug,
	})

	if err != nil {
		if c.nextDelay == 0 {
			c.nextDelay = time.Second
		} else {
			c.nextDelay = 2 * (c.nextDelay - (c.nextDelay % time.Second))
		}

		c.nextDelay += time.Duration(rand.Intn(1000)) * time.Millisecond
		if c.nextDelay > c.cfg.MaxDelay {
			c.nextDelay = c.cfg.MaxDelay
		}

		c.nextAttempt = time.Now().Add(c.nextDelay)
		c.log().WithError(err).WithField("new_delay", c.nextDelay).Error("pimap_connection_failed")
		return err
	}

	c.c = cli
	c.nextDelay = 0
	c.nextAttempt = time.Time{}
	c.log().Trace("pimap_connected")
	return nil
}

func (c *PersistentClient) dispatch(_req interface{}) {
	switch req := _req.(type) {
	case selectRequest:
		c.log().Trace("pimap_select_request")
		s, err := c.c.Select(req.name, req.readOnly)
		req.r <- selectResponse{status: s, err: err}
	case uidSearchRequest:
		c.log().Trace("pimap_uidsearch_request")
		uids, err := c.c.UidSearch(req.criteria)
		req.r <- uidSearchResponse{uids: uids, err: err}
	case uidFetchRequest:
		c.log().Trace("pimap_uidfetch_request")
		req.r <- c.c.UidFetch(req.seqset, req.items, req.ch)
	}
}

func respondError(_req interface{}, err error) {
	switch req := _req.(type) {
	case selectRequest:
		req.r <- selectResponse{err: err}
	case uidSearchRequest:
		req.r <- uidSearchResponse{err: err}
	case uidFetchRequest:
		close(req.ch)
		req.r <- err
	}
}

func (c *PersistentClient) run() {
	for {
		c.log().WithField("connected", c.c != nil).Trace("pimap_loop_enter")

		if c.c == nil {
			select {
			case req := <-c.logoutChannel:
				c.log().Trace("pimap_logout_request")
				req.r <- nil
				goto done
			case _req := <-c.ch:
				if err := c.connect(); err != nil {
					respondError(_req, err)
					continue
				}
				c.dispatch(_req)
			}
		} else {
			select {
			case <-c.c.LoggedOut():
				c.log().Trace("pimap_disconnected")
				c.c = nil
			case req := <-c.logoutChannel:
				c.log().Trace("pimap_logout_request")
				req.r <- c.c.Logout()
				goto done
			case _req := <-c.ch:
				c.dispatch(_req)
			}
		}
	}
done:
	c.c = nil
	atomic.StoreInt32(&c.shutdown, 1)
	drainRequests(c.ch)
	close(c.loggedOut)
	c.log().Trace("pimap_proc_exit")
}

// drainRequests answers anything already queued with a closed error.
// The channel is deliberately left open: a caller racing past its
// shutdown check may still attempt a send, and that send must fall
// through to the loggedOut case rather than panic on a closed channel.
func drainRequests(ch chan interface{}) {
	for {
		select {
		case _req := <-ch:
			respondError(_req, errConnectionClosed)
		default:
			return
		}
	}
}

func NewClient(cfg *Config) (*PersistentClient, error) {
	ourCfg := *cfg
	if ourCfg.MaxDelay == 0 {
		ourCfg.MaxDelay = 64 * time.Second
	} else if ourCfg.MaxDelay < time.Second {
		ourCfg.MaxDelay = time.Second
	}

	u := url.URL{
		Host: ourCfg.HostPort,
		Path: ourCfg.Mailbox,
	}

	if ourCfg.TLS {
		u.Scheme = "imaps"
	} else {
		u.Scheme = "imap"
	}

	c := &PersistentClient{
		cfg:           ourCfg,
		ch:            make(chan interface{}),
		logoutChannel: make(chan logoutRequest),
		shutdown:      0,
		loggedOut:     make(chan struct{}),
		logURL:        u.String(),
	}
	go c.run()
	return c, nil
}
