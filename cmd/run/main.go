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

package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/hijiri/mailbridge/bridge"
	"github.com/hijiri/mailbridge/cmd/config"
	"github.com/hijiri/mailbridge/mailbox"
)

// Exit codes: 2 for configuration problems, 3 for rejected
// credentials, 1 for a failed --once cycle.
const (
	exitFailure = 1
	exitConfig  = 2
	exitAuth    = 3
)

func RegisterCommand(app *cli.App) *cli.App {
	cfg := &config.CliConfig{}
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "run",
		Usage:  "Run the bridge",
		Flags:  cfg.Parameters(),
		Action: func(context *cli.Context) error { return run(context, cfg) },
	})
	return app
}

func setupLogging(cfg *config.CliConfig) error {
	logLevel, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log-level %q: %v", cfg.LogLevel, err)
	}

	log.SetLevel(logLevel)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	return nil
}

func run(_ *cli.Context, cfg *config.CliConfig) error {
	if err := setupLogging(cfg); err != nil {
		return cli.Exit(err, exitConfig)
	}

	log.WithFields(log.Fields{
		"imap_url":             cfg.IMAP.URL,
		"imap_auth_method":     cfg.IMAP.AuthMethod,
		"imap_username":        cfg.IMAP.Username,
		"imap_password_file":   cfg.IMAP.PasswordFile,
		"imap_tls_skip_verify": cfg.IMAP.TLSSkipVerify,
		"imap_transport":       cfg.IMAP.Transport,
		"imap_debug":           cfg.IMAP.Debug,
		"gateway_url":          cfg.Gateway.URL,
		"gateway_channel":      cfg.Gateway.Channel,
		"gateway_timeout":      cfg.Gateway.Timeout,
		"state_file":           cfg.StateFile,
		"check_interval":       cfg.CheckInterval,
		"preview_length":       cfg.PreviewLength,
		"delivery_pause":       cfg.DeliveryPause,
		"start_from_now":       cfg.StartFromNow,
		"once":                 cfg.Once,
		"log_level":            cfg.LogLevel,
		"log_format":           cfg.LogFormat,
	}).Info("starting")

	bridgeConfig := bridge.Config{}
	if err := cfg.BuildBridgeConfig(&bridgeConfig); err != nil {
		return cli.Exit(err, exitConfig)
	}

	defer bridgeConfig.Reader.Close()

	b, err := bridge.New(&bridgeConfig)
	if err != nil {
		return cli.Exit(err, exitConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Once {
		res, err := b.RunCycle(ctx)
		if err != nil {
			if errors.Is(err, mailbox.ErrAuth) {
				return cli.Exit(err, exitAuth)
			}

			return cli.Exit(err, exitFailure)
		}

		log.WithFields(log.Fields{
			"fetched":   res.Fetched,
			"delivered": res.Delivered,
		}).Info("cycle_complete")
		return nil
	}

	doneChan := make(chan error, 1)
	go func() { doneChan <- b.Run(ctx) }()

	sigchan := make(chan os.Signal, 10)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	sigcount := 0
	for {
		select {
		case sig := <-sigchan:
			log.WithFields(log.Fields{"signal": sig, "count": sigcount}).Trace("caught_signal")

			sigcount += 1
			if sigcount > 1 {
				log.WithFields(log.Fields{"signal": sig}).Warn("received_interrupt_force_exit")
				os.Exit(1)
			}
			log.WithFields(log.Fields{"signal": sig}).Info("received_interrupt")

			cancel()
		case err := <-doneChan:
			if err != nil {
				if errors.Is(err, mailbox.ErrAuth) {
					return cli.Exit(err, exitAuth)
				}

				return cli.Exit(err, exitFailure)
			}

			log.Info("bridge_terminated")
			return nil
		}
	}
}
