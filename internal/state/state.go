// File: internal/state/state.go

// Package state records which resources lakehouse has applied, so that
// resources dropped from a descriptor can be planned for deletion and
// destroy knows what it owns.
package state

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"lakehouse/pkg/common"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	ObjectName     = "lakehouse.state.yaml"
)

// ErrConflict is returned by Save when the stored state changed after it was loaded
var ErrConflict = errors.New("state was modified by another process since it was loaded")

type Record struct {
	Kind           common.ResourceKind `yaml:"kind"`
	Name           string              `yaml:"name"`
	Project        string              `yaml:"project,omitempty"`
	Location       string              `yaml:"location"`
	ForceDestroy   bool                `yaml:"force_destroy,omitempty"`
	DeleteContents bool                `yaml:"delete_contents,omitempty"`
	AppliedAt      time.Time           `yaml:"applied_at"`
}

func (r Record) Address() string {
	if r.Kind == common.KindDataset {
		return common.DatasetAddress(r.Project, r.Name)
	}
	return common.Address(r.Kind, r.Name)
}

type State struct {
	Version               int       `yaml:"version"`
	Serial                int64     `yaml:"serial"`
	Provider              string    `yaml:"provider,omitempty"`
	ProviderVersion       string    `yaml:"provider_version,omitempty"`
	Project               string    `yaml:"project,omitempty"`
	DescriptorFingerprint string    `yaml:"descriptor_fingerprint,omitempty"`
	UpdatedAt             time.Time `yaml:"updated_at,omitempty"`
	Resources             []Record  `yaml:"resources"`

	// Serial as read from the backend, used for optimistic concurrency
	loadedSerial int64
	// Backend-specific version token (GCS generation, S3 ETag)
	token string
}

func New() *State {
	return &State{Version: CurrentVersion}
}

func (s *State) Get(address string) (Record, bool) {
	for _, r := range s.Resources {
		if r.Address() == address {
			return r, true
		}
	}
	return Record{}, false
}

// Put inserts or replaces a record, keeping records ordered by address
func (s *State) Put(rec Record) {
	for i, r := range s.Resources {
		if r.Address() == rec.Address() {
			s.Resources[i] = rec
			return
		}
	}
	s.Resources = append(s.Resources, rec)
	sort.Slice(s.Resources, func(i, j int) bool {
		return s.Resources[i].Address() < s.Resources[j].Address()
	})
}

func (s *State) Remove(address string) bool {
	for i, r := range s.Resources {
		if r.Address() == address {
			s.Resources = append(s.Resources[:i], s.Resources[i+1:]...)
			return true
		}
	}
	return false
}

func Encode(s *State) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("error encoding state: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (*State, error) {
	s := New()
	if len(data) == 0 {
		return s, nil
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("error parsing state: %w", err)
	}
	if s.Version > CurrentVersion {
		return nil, fmt.Errorf("state version %d is newer than supported version %d", s.Version, CurrentVersion)
	}
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	s.loadedSerial = s.Serial
	return s, nil
}

// prepareSave bumps the serial relative to what was loaded
func (s *State) prepareSave(now time.Time) {
	s.Version = CurrentVersion
	s.Serial = s.loadedSerial + 1
	s.UpdatedAt = now.UTC()
}

func (s *State) markSaved(token string) {
	s.loadedSerial = s.Serial
	s.token = token
}
