// File: internal/state/local.go
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type LocalBackend struct {
	path string
}

func NewLocalBackend(path string) *LocalBackend {
	return &LocalBackend{path: path}
}

func (b *LocalBackend) Describe() string {
	return "local file " + b.path
}

func (b *LocalBackend) Load(ctx context.Context) (*State, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading state file: %w", err)
	}
	return Decode(data)
}

func (b *LocalBackend) Save(ctx context.Context, s *State) error {
	current, err := b.Load(ctx)
	if err != nil {
		return err
	}
	if current.Serial != s.loadedSerial {
		return fmt.Errorf("%w (serial %d on disk, %d loaded)", ErrConflict, current.Serial, s.loadedSerial)
	}

	s.prepareSave(time.Now())
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating state directory: %w", err)
	}

	// Write to a sibling temp file and rename so a crash never leaves a truncated state
	tmp, err := os.CreateTemp(dir, ".lakehouse-state-*")
	if err != nil {
		return fmt.Errorf("error creating temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("error replacing state file: %w", err)
	}

	s.markSaved("")
	return nil
}

func (b *LocalBackend) Close() error {
	return nil
}
