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
	"time"

	"github.com/hijiri/mailbridge/mailbox"
)

const DefaultPreviewLength = 500

// Format converts a message into a notification payload. It never
// fails; missing fields get placeholders and the body is cut to at
// most maxPreview characters. The cut is by rune, never through the
// middle of a multi-byte sequence, and no ellipsis is appended.
func Format(msg mailbox.Message, maxPreview int) Payload {
	if maxPreview <= 0 {
		maxPreview = DefaultPreviewLength
	}

	from := msg.From
	if from == "" {
		from = "(unknown sender)"
	}

	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	date := ""
	if !msg.Date.IsZero() {
		date = msg.Date.Format(time.RFC1123Z)
	}

	return Payload{
		From:    from,
		Subject: subject,
		Date:    date,
		Preview: truncate(msg.Body, maxPreview),
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max])
}
