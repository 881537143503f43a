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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

type HTTPConfig struct {
	// URL is the gateway base URL, e.g. http://localhost:18789.
	URL string

	// Channel names the gateway channel the notification is posted to.
	Channel string

	Timeout time.Duration
}

// HTTPGateway posts notifications as JSON to <URL>/api/message.
type HTTPGateway struct {
	endpoint string
	channel  string
	client   *http.Client
}

type gatewayMessage struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

func NewHTTPGateway(cfg *HTTPConfig) (*HTTPGateway, error) {
	if cfg.URL == "" {
		return nil, errors.New("gateway url is empty")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &HTTPGateway{
		endpoint: strings.TrimSuffix(cfg.URL, "/") + "/api/message",
		channel:  cfg.Channel,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (g *HTTPGateway) Deliver(ctx context.Context, p Payload) error {
	body, err := json.Marshal(&gatewayMessage{
		Channel: g.channel,
		Message: render(p),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %v", ErrRejected, resp.Status)
	}

	log.WithFields(log.Fields{
		"subject": p.Subject,
		"status":  resp.StatusCode,
	}).Trace("gateway_delivered")

	return nil
}

// render flattens a payload into the gateway's display text.
func render(p Payload) string {
	var sb strings.Builder
	sb.WriteString("New Email Received\n\n")
	sb.WriteString("From: " + p.From + "\n")
	sb.WriteString("Subject: " + p.Subject + "\n")
	sb.WriteString("Date: " + p.Date + "\n\n")
	sb.WriteString("Preview:\n")
	sb.WriteString(p.Preview)
	return sb.String()
}
