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
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	log "github.com/sirupsen/logrus"
	"github.com/hijiri/mailbridge/checkpoint"
	imap2 "github.com/hijiri/mailbridge/imap"
)

// IMAPReader reads a single mailbox through an imap.Client. The
// connection is made lazily and kept across calls; a dead connection
// is detected and replaced on the next call.
type IMAPReader struct {
	cfg     Config
	factory imap2.ClientFactory
	client  imap2.Client
}

func NewIMAPReader(cfg *Config, factory imap2.ClientFactory) *IMAPReader {
	return &IMAPReader{
		cfg:     *cfg,
		factory: factory,
	}
}

func (r *IMAPReader) ensureClient() (imap2.Client, error) {
	if r.client != nil {
		// The server may have hung up since the last cycle.
		select {
		case <-r.client.LoggedOut():
			log.WithField("host", r.cfg.HostPort).Trace("reader_connection_dead")
			r.client = nil
		default:
			return r.client, nil
		}
	}

	c, err := r.factory.NewClient(&imap2.ClientConfig{
		HostPort:  r.cfg.HostPort,
		Auth:      r.cfg.Auth,
		Mailbox:   r.cfg.Mailbox,
		TLS:       r.cfg.TLS,
		TLSConfig: r.cfg.TLSConfig,
		Debug:     r.cfg.Debug,
	})
	if err != nil {
		return nil, err
	}

	r.client = c
	return c, nil
}

// connError tags err as a connection failure. Errors the transport has
// already classified pass through untouched; with the persistent
// transport an authentication rejection surfaces here, not at dial
// time, and it has to stay fatal.
func connError(op string, err error) error {
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrConnection) {
		return err
	}

	return fmt.Errorf("%w: %s: %v", ErrConnection, op, err)
}

func (r *IMAPReader) FetchSince(ctx context.Context, cp *checkpoint.Checkpoint) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := r.ensureClient()
	if err != nil {
		return nil, err
	}

	// Re-select to refresh the mailbox view. Some servers only expose
	// newly arrived messages after a fresh SELECT.
	if _, err := c.Select(r.cfg.Mailbox, true); err != nil {
		return nil, connError("select", err)
	}

	criteria := imap.NewSearchCriteria()
	if cp != nil {
		// SINCE has day granularity and some servers treat the day
		// itself as excluded. Ask from the previous day; the strict
		// (Date, UID) filter below does the precise cut.
		y, m, d := cp.Timestamp.UTC().Date()
		criteria.Since = time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, connError("search", err)
	}

	log.WithFields(log.Fields{
		"mailbox": r.cfg.Mailbox,
		"uids":    uids,
	}).Trace("reader_search_result")

	if len(uids) == 0 {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, ch)
	}()

	var messages []Message
	for im := range ch {
		m, err := r.parseMessage(im, section)
		if err != nil {
			return nil, err
		}

		if cp != nil && !cp.After(m.Date, m.UID) {
			log.WithFields(log.Fields{
				"uid":  m.UID,
				"date": m.Date,
			}).Trace("reader_skip_before_marker")
			continue
		}

		messages = append(messages, m)
	}

	if err := <-done; err != nil {
		return nil, connError("fetch", err)
	}

	// Deterministic total order: arrival time, then UID.
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Date.Equal(messages[j].Date) {
			return messages[i].UID < messages[j].UID
		}
		return messages[i].Date.Before(messages[j].Date)
	})

	return messages, nil
}

func (r *IMAPReader) parseMessage(im *imap.Message, section *imap.BodySectionName) (Message, error) {
	if im.Uid == 0 || im.Envelope == nil {
		return Message{}, fmt.Errorf("%w: fetch result missing uid or envelope", ErrProtocol)
	}

	m := Message{
		UID:     im.Uid,
		Date:    im.InternalDate,
		From:    formatSender(im.Envelope.From),
		Subject: im.Envelope.Subject,
	}

	body := im.GetBody(section)
	if body == nil {
		return Message{}, fmt.Errorf("%w: fetch result missing body section", ErrProtocol)
	}

	text, err := extractText(body)
	if err != nil {
		// A message we cannot parse still gets forwarded, just with
		// an empty preview. Failing the cycle would wedge the bridge
		// on it forever.
		log.WithError(err).WithField("uid", im.Uid).Warn("reader_body_unparsable")
		text = ""
	}

	m.Body = text
	return m, nil
}

func formatSender(from []*imap.Address) string {
	if len(from) == 0 {
		return ""
	}

	addr := from[0]
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s>", addr.PersonalName, addr.Address())
	}

	return addr.Address()
}

// extractText pulls the first text/plain part out of a message,
// descending into multipart containers.
func extractText(r io.Reader) (string, error) {
	ent, err := message.Read(r)
	if err != nil {
		return "", err
	}

	return textFromEntity(ent)
}

func textFromEntity(ent *message.Entity) (string, error) {
	if mr := ent.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}

			if err != nil {
				return "", err
			}

			text, err := textFromEntity(part)
			if err != nil {
				return "", err
			}

			if text != "" {
				return text, nil
			}
		}

		return "", nil
	}

	t, _, err := ent.Header.ContentType()
	if err != nil {
		// No or malformed Content-Type; RFC 2045 says assume text/plain.
		t = "text/plain"
	}

	if t != "" && !strings.EqualFold(t, "text/plain") {
		return "", nil
	}

	data, err := io.ReadAll(ent.Body)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (r *IMAPReader) Close() {
	if r.client == nil {
		return
	}

	if err := r.client.Logout(); err != nil {
		log.WithError(err).Warn("reader_logout_failed")
	}

	r.client = nil
}
