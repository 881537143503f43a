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

package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/hijiri/mailbridge/checkpoint"
	"github.com/hijiri/mailbridge/mailbox"
	"github.com/hijiri/mailbridge/notify"
)

func New(cfg *Config) (*Bridge, error) {
	if cfg.Store == nil || cfg.Reader == nil || cfg.Gateway == nil {
		return nil, errors.New("store, reader and gateway are required")
	}

	ourCfg := *cfg
	if ourCfg.CheckInterval <= 0 {
		ourCfg.CheckInterval = 5 * time.Minute
	}

	if ourCfg.PreviewLength <= 0 {
		ourCfg.PreviewLength = notify.DefaultPreviewLength
	}

	return &Bridge{cfg: ourCfg}, nil
}

// RunCycle executes exactly one fetch-and-deliver pass. The checkpoint
// is advanced after each successful delivery, never past a failed one,
// so an interrupted cycle resumes exactly where it stopped. Only one
// cycle runs at a time.
func (b *Bridge) RunCycle(ctx context.Context) (CycleResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res CycleResult

	cp, err := b.cfg.Store.Load()
	if err != nil {
		return res, fmt.Errorf("loading checkpoint: %w", err)
	}

	if cp == nil && b.cfg.StartFromNow {
		// First run: record "now" without delivering anything, so only
		// messages arriving from here on are forwarded.
		seed := checkpoint.Checkpoint{Timestamp: time.Now()}
		if err := b.cfg.Store.Save(seed); err != nil {
			return res, fmt.Errorf("seeding checkpoint: %w", err)
		}

		log.WithField("timestamp", seed.Timestamp).Info("bridge_checkpoint_seeded")
		return res, nil
	}

	messages, err := b.cfg.Reader.FetchSince(ctx, cp)
	if err != nil {
		return res, fmt.Errorf("fetching messages: %w", err)
	}

	res.Fetched = len(messages)
	if len(messages) == 0 {
		log.Debug("bridge_no_new_messages")
		return res, nil
	}

	log.WithField("count", len(messages)).Info("bridge_new_messages")

	for i, msg := range messages {
		payload := notify.Format(msg, b.cfg.PreviewLength)

		if err := b.cfg.Gateway.Deliver(ctx, payload); err != nil {
			// Stop here; the checkpoint still points at the previous
			// message, so the next cycle re-attempts this one first.
			return res, fmt.Errorf("delivering uid %v: %w", msg.UID, err)
		}

		// Delivery is confirmed; persist before anything else can
		// interrupt us. No cancellation check between these two steps.
		if err := b.cfg.Store.Save(checkpoint.Checkpoint{Timestamp: msg.Date, UID: msg.UID}); err != nil {
			return res, fmt.Errorf("advancing checkpoint past uid %v: %w", msg.UID, err)
		}

		res.Delivered++

		log.WithFields(log.Fields{
			"uid":     msg.UID,
			"from":    msg.From,
			"subject": msg.Subject,
		}).Info("bridge_message_forwarded")

		if b.cfg.DeliveryPause > 0 && i < len(messages)-1 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(b.cfg.DeliveryPause):
			}
		}
	}

	return res, nil
}

// Run executes cycles forever, sleeping CheckInterval between them,
// until ctx is cancelled or authentication fails. Transient cycle
// errors are logged and retried on the next cycle; the fixed interval
// is the only backoff.
func (b *Bridge) Run(ctx context.Context) error {
	log.WithField("interval", b.cfg.CheckInterval).Info("bridge_started")

	for {
		res, err := b.RunCycle(ctx)

		switch {
		case err == nil:
			log.WithFields(log.Fields{
				"fetched":   res.Fetched,
				"delivered": res.Delivered,
			}).Info("bridge_cycle_complete")
		case errors.Is(err, mailbox.ErrAuth):
			log.WithError(err).Error("bridge_auth_rejected")
			return err
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			log.Info("bridge_stopped")
			return nil
		default:
			log.WithError(err).WithField("delivered", res.Delivered).Warn("bridge_cycle_failed")
		}

		select {
		case <-ctx.Done():
			log.Info("bridge_stopped")
			return nil
		case <-time.After(b.cfg.CheckInterval):
		}
	}
}
