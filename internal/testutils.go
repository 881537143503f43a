package internal

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/emersion/go-message"
	"github.com/stretchr/testify/assert"
)

func BuildTestIMAPServer(t *testing.T) (*server.Server, string, *memory.Mailbox) {
	be := memory.New()
	user, err := be.Login(nil, "username", "password")
	assert.NoError(t, err)
	if err != nil {
		t.FailNow()
	}

	mb, err := user.GetMailbox("INBOX")
	assert.NoError(t, err)
	if err != nil {
		t.FailNow()
	}

	mailbox := mb.(*memory.Mailbox)
	mailbox.Messages = nil

	s := server.New(be)
	t.Cleanup(func() { _ = s.Close() })

	s.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "localhost:0")
	assert.NoError(t, err)
	if err != nil {
		t.FailNow()
	}

	go func() { err = s.Serve(l) }()

	return s, l.Addr().String(), mailbox
}

func MakeTestMessage(t *testing.T, from string, subject string, body string) []byte {
	hdr := message.Header{}
	hdr.Add("From", from)
	hdr.Add("To", "bridge@example.com")
	hdr.Add("Subject", subject)
	hdr.Add("Date", "Wed, 11 May 2016 14:31:59 +0000")
	hdr.Add("Content-Type", "text/plain; charset=utf-8")

	msg, err := message.New(hdr, strings.NewReader(body))
	assert.NoError(t, err)
	if err != nil {
		t.FailNow()
	}

	bb := new(bytes.Buffer)
	err = msg.WriteTo(bb)
	assert.NoError(t, err)
	if err != nil {
		t.FailNow()
	}

	return bb.Bytes()
}

// AppendTestMessage places a message directly into the in-memory
// mailbox with a chosen UID and internal date.
func AppendTestMessage(t *testing.T, mbox *memory.Mailbox, uid uint32, date time.Time, from string, subject string, body string) {
	raw := MakeTestMessage(t, from, subject, body)
	mbox.Messages = append(mbox.Messages, &memory.Message{
		Uid:   uid,
		Date:  date,
		Size:  uint32(len(raw)),
		Flags: []string{},
		Body:  raw,
	})
}
