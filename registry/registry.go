// Package registry persists the guild to channel subscription mapping.
package registry

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Registry stores at most one notification channel per guild in a
// pretty-printed JSON file so the mapping stays editable by hand.
// Single writer is assumed; the file is reloaded on every read so
// manual edits take effect without a restart.
type Registry struct {
	path string
}

func New(path string) *Registry {
	return &Registry{path: path}
}

// Load reads the persisted mapping. A missing or unparsable file yields
// an empty mapping: losing subscriptions is recoverable, refusing to
// start is not.
func (r *Registry) Load() (map[string]int64, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int64{}, nil
		}
		return nil, errors.Wrapf(err, "unable to read channels file %v", r.path)
	}
	channels := make(map[string]int64)
	if err := json.Unmarshal(data, &channels); err != nil {
		logrus.Warnf("channels file %v is corrupt, treating as empty: %v", r.path, err.Error())
		return map[string]int64{}, nil
	}
	return channels, nil
}

// Save overwrites the persisted mapping wholesale. The write goes
// through a temporary file and a rename so a crash cannot leave a
// half-written registry behind.
func (r *Registry) Save(channels map[string]int64) error {
	data, err := json.MarshalIndent(channels, "", "    ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal channels")
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "unable to write channels file %v", tmp)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return errors.Wrapf(err, "unable to replace channels file %v", r.path)
	}
	return nil
}

// Set upserts the channel for a guild and persists immediately.
func (r *Registry) Set(guildID string, channelID int64) error {
	channels, err := r.Load()
	if err != nil {
		return err
	}
	channels[guildID] = channelID
	return r.Save(channels)
}

// Unset removes the guild's channel if present and persists immediately.
// It reports whether an entry existed; when it did not, the file is left
// untouched.
func (r *Registry) Unset(guildID string) (bool, error) {
	channels, err := r.Load()
	if err != nil {
		return false, err
	}
	if _, ok := channels[guildID]; !ok {
		return false, nil
	}
	delete(channels, guildID)
	if err := r.Save(channels); err != nil {
		return false, err
	}
	return true, nil
}
