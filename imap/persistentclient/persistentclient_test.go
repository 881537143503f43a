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
	"sync"
	"testing"
	"time"

	goImap "github.com/emersion/go-imap"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/hijiri/mailbridge/imap"
	"github.com/hijiri/mailbridge/internal"
)

func TestSearchAndFetch(t *testing.T) {
	log.SetLevel(log.TraceLevel)

	_, addr, mbox := internal.BuildTestIMAPServer(t)
	internal.AppendTestMessage(t, mbox, 6, time.Now(), "sender@example.com", "hello", "body text")

	f := Factory{}
	c, err := f.NewClient(&imap.ClientConfig{
		HostPort: addr,
		Auth:     imap.NewNormalAuthenticator("username", "password"),
		Mailbox:  "INBOX",
		TLS:      false,
	})
	assert.NoError(t, err)

	// No connection exists until the first request needs one.
	status, err := c.Select("INBOX", true)
	assert.NoError(t, err)
	assert.Equal(t, "INBOX", status.Name)

	uids, err := c.UidSearch(goImap.NewSearchCriteria())
	assert.NoError(t, err)
	assert.Equal(t, []uint32{6}, uids)

	seqset := new(goImap.SeqSet)
	seqset.AddNum(6)
	ch := make(chan *goImap.Message, 1)
	err = c.UidFetch(seqset, []goImap.FetchItem{goImap.FetchUid, goImap.FetchEnvelope}, ch)
	assert.NoError(t, err)

	msg := <-ch
	assert.NotNil(t, msg)
	assert.Equal(t, uint32(6), msg.Uid)
	assert.Equal(t, "hello", msg.Envelope.Subject)

	err = c.Logout()
	assert.NoError(t, err)
}

func TestLogoutWithoutConnection(t *testing.T) {
	log.SetLevel(log.TraceLevel)
	f := Factory{}

	c, err := f.NewClient(&imap.ClientConfig{
		HostPort: "0.0.0.0:993",
		Auth:     imap.NewNormalAuthenticator("username", "password"),
		Mailbox:  "INBOX",
		TLS:      false,
	})
	assert.NoError(t, err)

	// Never connected; logout must still shut the proc down cleanly.
	err = c.Logout()
	assert.NoError(t, err)

	select {
	case <-c.LoggedOut():
	case <-time.After(5 * time.Second):
		assert.Fail(t, "LoggedOut channel not closed after logout")
	}

	_, err = c.UidSearch(goImap.NewSearchCriteria())
	assert.Error(t, err)
}

func TestLogoutDuringRequests(t *testing.T) {
	log.SetLevel(log.TraceLevel)

	_, addr, mbox := internal.BuildTestIMAPServer(t)
	internal.AppendTestMessage(t, mbox, 1, time.Now(), "sender@example.com", "hello", "body text")

	f := Factory{}
	c, err := f.NewClient(&imap.ClientConfig{
		HostPort: addr,
		Auth:     imap.NewNormalAuthenticator("username", "password"),
		Mailbox:  "INBOX",
		TLS:      false,
	})
	assert.NoError(t, err)

	_, err = c.Select("INBOX", true)
	assert.NoError(t, err)

	// Requests racing a logout must either complete or fail with a
	// closed-connection error; none may panic or hang.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.UidSearch(goImap.NewSearchCriteria())
		}()
	}

	err = c.Logout()
	assert.NoError(t, err)
	wg.Wait()

	_, err = c.UidSearch(goImap.NewSearchCriteria())
	assert.Error(t, err)
}

func TestAuthErrorSurfaces(t *testing.T) {
	log.SetLevel(log.TraceLevel)

	_, addr, _ := internal.BuildTestIMAPServer(t)

	f := Factory{MaxDelay: time.Second}
	c, err := f.NewClient(&imap.ClientConfig{
		HostPort: addr,
		Auth:     imap.NewNormalAuthenticator("username", "wrong"),
		Mailbox:  "INBOX",
		TLS:      false,
	})
	assert.NoError(t, err)

	_, err = c.UidSearch(goImap.NewSearchCriteria())
	assert.ErrorIs(t, err, imap.ErrAuth)

	err = c.Logout()
	assert.NoError(t, err)
}
