// Package pebble keeps operator preferences on local disk.
package pebble

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

type Preferences struct {
	db *pebble.DB
}

func Open(dir string) (*Preferences, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Preferences{db: d}, nil
}

func (p *Preferences) Close() error { return p.db.Close() }

func (p *Preferences) GetBool(key string) (bool, bool, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()

	if len(v) != 1 {
		return false, false, fmt.Errorf("pebble get %s: malformed value", key)
	}
	return v[0] == 1, true, nil
}

// SetBool syncs so the flag survives a crash right after the operator toggles it.
func (p *Preferences) SetBool(key string, value bool) error {
	var b byte
	if value {
		b = 1
	}
	if err := p.db.Set([]byte(key), []byte{b}, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}
