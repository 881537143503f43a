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

package config

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hijiri/mailbridge/bridge"
	"github.com/hijiri/mailbridge/checkpoint"
	"github.com/hijiri/mailbridge/mailbox"
	"github.com/hijiri/mailbridge/notify"
)

func DefaultConfig() CliConfig {
	return CliConfig{
		IMAP: DefaultIMAPConfig(),
		Gateway: GatewayConfig{
			Channel: "notifications",
			Timeout: 10 * time.Second,
		},
		StateFile:     "",
		CheckInterval: 5 * time.Minute,
		PreviewLength: notify.DefaultPreviewLength,
		DeliveryPause: time.Second,
		StartFromNow:  false,
		Once:          false,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

func (cfg *CliConfig) Parameters() []cli.Flag {
	def := DefaultConfig()

	var flags []cli.Flag
	flags = append(flags, cfg.IMAP.makeIMAPParameters()...)
	flags = append(flags, []cli.Flag{
		&cli.StringFlag{
			Name:        "gateway-url",
			Usage:       "notification gateway base url",
			EnvVars:     []string{"MAILBRIDGE_GATEWAY_URL"},
			Destination: &cfg.Gateway.URL,
			Required:    true,
			Value:       def.Gateway.URL,
		},
		&cli.StringFlag{
			Name:        "gateway-channel",
			Usage:       "gateway channel notifications are posted to",
			EnvVars:     []string{"MAILBRIDGE_GATEWAY_CHANNEL"},
			Destination: &cfg.Gateway.Channel,
			Value:       def.Gateway.Channel,
		},
		&cli.DurationFlag{
			Name:        "gateway-timeout",
			Usage:       "gateway request timeout",
			EnvVars:     []string{"MAILBRIDGE_GATEWAY_TIMEOUT"},
			Destination: &cfg.Gateway.Timeout,
			Value:       def.Gateway.Timeout,
		},
		&cli.StringFlag{
			Name:        "state-file",
			Usage:       "path of the checkpoint state file",
			EnvVars:     []string{"MAILBRIDGE_STATE_FILE"},
			Destination: &cfg.StateFile,
			Required:    true,
			Value:       def.StateFile,
		},
		&cli.DurationFlag{
			Name:        "check-interval",
			Usage:       "interval between mailbox checks",
			EnvVars:     []string{"MAILBRIDGE_CHECK_INTERVAL"},
			Destination: &cfg.CheckInterval,
			Value:       def.CheckInterval,
		},
		&cli.IntFlag{
			Name:        "preview-length",
			Usage:       "maximum body preview length, in characters",
			EnvVars:     []string{"MAILBRIDGE_PREVIEW_LENGTH"},
			Destination: &cfg.PreviewLength,
			Value:       def.PreviewLength,
		},
		&cli.DurationFlag{
			Name:        "delivery-pause",
			Usage:       "pause between consecutive deliveries",
			EnvVars:     []string{"MAILBRIDGE_DELIVERY_PAUSE"},
			Destination: &cfg.DeliveryPause,
			Value:       def.DeliveryPause,
		},
		&cli.BoolFlag{
			Name:        "start-from-now",
			Usage:       "on first run, skip mailbox history and only forward new arrivals",
			EnvVars:     []string{"MAILBRIDGE_START_FROM_NOW"},
			Destination: &cfg.StartFromNow,
			Value:       def.StartFromNow,
		},
		&cli.BoolFlag{
			Name:        "once",
			Usage:       "run a single check cycle and exit",
			EnvVars:     []string{"MAILBRIDGE_ONCE"},
			Destination: &cfg.Once,
			Value:       def.Once,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "logging level",
			EnvVars:     []string{"MAILBRIDGE_LOG_LEVEL"},
			Destination: &cfg.LogLevel,
			Value:       def.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "logging format (text/json)",
			EnvVars:     []string{"MAILBRIDGE_LOG_FORMAT"},
			Destination: &cfg.LogFormat,
			Value:       def.LogFormat,
		},
	}...)

	return flags
}

// BuildBridgeConfig resolves the raw flag values into a fully wired
// bridge configuration with concrete store, reader and gateway.
func (cfg *CliConfig) BuildBridgeConfig(bridgeConfig *bridge.Config) error {
	def := DefaultConfig()

	readerConfig, factory, err := cfg.IMAP.Resolve()
	if err != nil {
		return err
	}

	store, err := checkpoint.NewFileStore(cfg.StateFile)
	if err != nil {
		return err
	}

	gateway, err := notify.NewHTTPGateway(&notify.HTTPConfig{
		URL:     cfg.Gateway.URL,
		Channel: cfg.Gateway.Channel,
		Timeout: cfg.Gateway.Timeout,
	})
	if err != nil {
		return err
	}

	if cfg.CheckInterval <= 0 {
		return fmt.Errorf("check-interval must be positive, got %v", cfg.CheckInterval)
	}

	bridgeConfig.Store = store
	bridgeConfig.Reader = mailbox.NewIMAPReader(&readerConfig, factory)
	bridgeConfig.Gateway = gateway
	bridgeConfig.CheckInterval = cfg.CheckInterval
	bridgeConfig.StartFromNow = cfg.StartFromNow

	bridgeConfig.PreviewLength = cfg.PreviewLength
	if bridgeConfig.PreviewLength <= 0 {
		bridgeConfig.PreviewLength = def.PreviewLength
	}

	bridgeConfig.DeliveryPause = cfg.DeliveryPause

	return nil
}
