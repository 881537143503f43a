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
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/hijiri/mailbridge/cmd/config"
)

func TestSetupLogging(t *testing.T) {
	oldLevel := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(oldLevel) })

	t.Run("ValidLevel", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.LogLevel = "trace"

		err := setupLogging(&cfg)
		assert.NoError(t, err)
		assert.Equal(t, log.TraceLevel, log.GetLevel())
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.LogLevel = "loud"

		err := setupLogging(&cfg)
		assert.Error(t, err)
	})
}
