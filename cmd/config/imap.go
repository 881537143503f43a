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
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/urfave/cli/v2"

	"github.com/hijiri/mailbridge/imap"
	"github.com/hijiri/mailbridge/imap/client"
	"github.com/hijiri/mailbridge/imap/persistentclient"
	"github.com/hijiri/mailbridge/mailbox"
)

func DefaultIMAPConfig() IMAPConfig {
	return IMAPConfig{
		AuthMethod:    "normal",
		TLSSkipVerify: false,
		Transport:     "persistent",
		Debug:         false,
	}
}

func (cfg *IMAPConfig) makeIMAPParameters() []cli.Flag {
	def := DefaultIMAPConfig()

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "imap-url",
			Usage:       "imap url, e.g. imaps://mail.example.com:993/INBOX",
			EnvVars:     []string{"MAILBRIDGE_IMAP_URL"},
			Destination: &cfg.URL,
			Required:    true,
			Value:       def.URL,
		},
		&cli.StringFlag{
			Name:        "imap-auth-method",
			Usage:       "imap auth method (normal, PLAIN)",
			EnvVars:     []string{"MAILBRIDGE_IMAP_AUTH_METHOD"},
			Destination: &cfg.AuthMethod,
			Required:    false,
			Value:       def.AuthMethod,
		},
		&cli.StringFlag{
			Name:        "imap-username",
			Usage:       "imap username",
			EnvVars:     []string{"MAILBRIDGE_IMAP_USERNAME"},
			Destination: &cfg.Username,
			Required:    true,
			Value:       def.Username,
		},
		&cli.StringFlag{
			Name:        "imap-password",
			Usage:       "imap password",
			EnvVars:     []string{"MAILBRIDGE_IMAP_PASSWORD"},
			Destination: &cfg.Password,
			Required:    false,
			Value:       def.Password,
		},
		&cli.StringFlag{
			Name:        "imap-password-file",
			Usage:       "imap password file",
			EnvVars:     []string{"MAILBRIDGE_IMAP_PASSWORD_FILE"},
			Destination: &cfg.PasswordFile,
			Required:    false,
			Value:       def.PasswordFile,
		},
		&cli.BoolFlag{
			Name:        "imap-tls-skip-verify",
			Usage:       "skip imap tls verification",
			EnvVars:     []string{"MAILBRIDGE_IMAP_TLS_SKIP_VERIFY"},
			Destination: &cfg.TLSSkipVerify,
			Value:       def.TLSSkipVerify,
		},
		&cli.StringFlag{
			Name:        "imap-transport",
			Usage:       "imap transport (persistent, standard)",
			EnvVars:     []string{"MAILBRIDGE_IMAP_TRANSPORT"},
			Destination: &cfg.Transport,
			Value:       def.Transport,
		},
		&cli.BoolFlag{
			Name:        "imap-debug",
			Usage:       "display imap debug info",
			EnvVars:     []string{"MAILBRIDGE_IMAP_DEBUG"},
			Destination: &cfg.Debug,
			Value:       def.Debug,
		},
	}
}

func extractUrl(u *url.URL) (string, string, bool, error) {
	var defaultPort string
	var useTLS bool
	switch strings.ToLower(u.Scheme) {
	case "imap":
		defaultPort = "143"
		useTLS = false
	case "imaps":
		defaultPort = "993"
		useTLS = true
	default:
		return "", "", false, errInvalidScheme
	}

	host := u.Hostname()
	port := u.Port()

	if port == "" {
		port = defaultPort
	}

	return net.JoinHostPort(host, port), strings.TrimPrefix(u.Path, "/"), useTLS, nil
}

func (cfg *IMAPConfig) validateUserPass() (string, string, error) {
	if cfg.Username == "" {
		return "", "", fmt.Errorf("\"imap-username\" is required when using %v auth", cfg.AuthMethod)
	}

	var password string
	username := cfg.Username

	if cfg.Password != "" {
		password = cfg.Password
	} else if cfg.PasswordFile != "" {
		pass, err := os.ReadFile(cfg.PasswordFile)
		if err != nil {
			return "", "", err
		}

		password = strings.TrimSpace(string(pass))
	} else {
		return "", "", fmt.Errorf("at least one of the \"imap-password\" or \"imap-password-file\" flags is required")
	}

	return username, password, nil
}

// Resolve turns the raw flag values into a mailbox reader config and
// the transport factory to build its connections with.
func (cfg *IMAPConfig) Resolve() (mailbox.Config, imap.ClientFactory, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return mailbox.Config{}, nil, err
	}

	hostPort, mbox, wantTLS, err := extractUrl(u)
	if err != nil {
		return mailbox.Config{}, nil, err
	}

	if mbox == "" {
		mbox = "INBOX"
	}

	readerConfig := mailbox.Config{
		HostPort: hostPort,
		Mailbox:  mbox,
		TLS:      wantTLS,
		Debug:    cfg.Debug,
	}

	switch strings.ToUpper(cfg.AuthMethod) {
	case "NORMAL":
		user, pass, err := cfg.validateUserPass()
		if err != nil {
			return mailbox.Config{}, nil, err
		}

		readerConfig.Auth = imap.NewNormalAuthenticator(user, pass)
	case sasl.Plain:
		user, pass, err := cfg.validateUserPass()
		if err != nil {
			return mailbox.Config{}, nil, err
		}

		readerConfig.Auth = imap.NewSASLAuthenticator(sasl.NewPlainClient("", user, pass))
	default:
		return mailbox.Config{}, nil, fmt.Errorf("unsupported auth method: %v", cfg.AuthMethod)
	}

	if cfg.TLSSkipVerify {
		// #nosec G402
		readerConfig.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var factory imap.ClientFactory
	if cfg.Transport == "persistent" {
		factory = &persistentclient.Factory{MaxDelay: 0}
	} else {
		factory = &client.Factory{}
	}

	return readerConfig, factory, nil
}
