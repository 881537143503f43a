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

package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FileStore keeps the checkpoint in a single JSON file. Writes go to a
// temporary file in the same directory followed by a rename, so a crash
// mid-save leaves the previous checkpoint intact.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("state file path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "creating state directory")
	}

	return &FileStore{path: path}, nil
}

func (s *FileStore) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "reading state file")
	}

	cp := &Checkpoint{}
	if err := json.Unmarshal(data, cp); err != nil {
		// A corrupt state file is indistinguishable from a first run.
		// Treat it as one rather than wedging the process.
		log.WithError(err).WithField("path", s.path).Warn("checkpoint_corrupt_ignored")
		return nil, nil
	}

	return cp, nil
}

func (s *FileStore) Save(cp Checkpoint) error {
	data, err := json.Marshal(&cp)
	if err != nil {
		return errors.Wrap(err, "encoding checkpoint")
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "creating temporary state file")
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrap(err, "writing temporary state file")
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrap(err, "syncing temporary state file")
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "closing temporary state file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "replacing state file")
	}

	log.WithFields(log.Fields{
		"path":      s.path,
		"uid":       cp.UID,
		"timestamp": cp.Timestamp,
	}).Trace("checkpoint_saved")

	return nil
}
