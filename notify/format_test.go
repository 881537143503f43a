package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/hijiri/mailbridge/mailbox"
)

func TestFormatShortBodyUnchanged(t *testing.T) {
	msg := mailbox.Message{
		UID:     1,
		Date:    time.Date(2016, 5, 11, 14, 31, 59, 0, time.UTC),
		From:    "from@example.com",
		Subject: "Test Email",
		Body:    "hello there",
	}

	p := Format(msg, 500)
	assert.Equal(t, "from@example.com", p.From)
	assert.Equal(t, "Test Email", p.Subject)
	assert.Equal(t, "hello there", p.Preview)
	assert.Equal(t, "Wed, 11 May 2016 14:31:59 +0000", p.Date)
}

func TestFormatTruncatesToExactLength(t *testing.T) {
	msg := mailbox.Message{Body: strings.Repeat("a", 501)}

	p := Format(msg, 500)
	assert.Len(t, []rune(p.Preview), 500)
	assert.False(t, strings.HasSuffix(p.Preview, "..."))
}

func TestFormatBodyAtLimitUnchanged(t *testing.T) {
	body := strings.Repeat("b", 500)
	p := Format(mailbox.Message{Body: body}, 500)
	assert.Equal(t, body, p.Preview)
}

func TestFormatTruncationIsRuneSafe(t *testing.T) {
	// Cyrillic characters are two bytes each; a byte-wise cut at 5
	// would split one in half.
	msg := mailbox.Message{Body: "Привет!"}

	p := Format(msg, 5)
	assert.Equal(t, "Приве", p.Preview)
}

func TestFormatPlaceholders(t *testing.T) {
	p := Format(mailbox.Message{}, 500)
	assert.Equal(t, "(unknown sender)", p.From)
	assert.Equal(t, "(no subject)", p.Subject)
	assert.Equal(t, "", p.Date)
	assert.Equal(t, "", p.Preview)
}

func TestFormatZeroLimitFallsBackToDefault(t *testing.T) {
	body := strings.Repeat("c", DefaultPreviewLength+100)
	p := Format(mailbox.Message{Body: body}, 0)
	assert.Len(t, []rune(p.Preview), DefaultPreviewLength)
}
