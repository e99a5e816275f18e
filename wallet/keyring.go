package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeyringFileName is the label index inside the data directory.
const KeyringFileName = "keys.json"

// Label names a caller identity. Each label owns one caller index.
type Label struct {
	Name    string `json:"name"`
	Index   uint32 `json:"index"`
	Removed bool   `json:"removed"` // soft-deleted; the index is never reused
}

// KeyringState holds persisted label metadata. It contains no key material.
type KeyringState struct {
	Labels    []Label `json:"labels"`
	NextIndex uint32  `json:"next_index"`
}

// NewKeyringState creates an empty KeyringState.
func NewKeyringState() *KeyringState {
	return &KeyringState{Labels: []Label{}}
}

// Validate checks the integrity of a deserialized KeyringState.
func (ks *KeyringState) Validate() error {
	seen := make(map[uint32]string)
	var maxIdx uint32

	for _, l := range ks.Labels {
		if l.Index > MaxIndex {
			return fmt.Errorf("label %q: %w", l.Name, ErrIndexOutOfRange)
		}
		if prev, ok := seen[l.Index]; ok {
			return fmt.Errorf("duplicate caller index %d: labels %q and %q", l.Index, prev, l.Name)
		}
		seen[l.Index] = l.Name
		if l.Index >= maxIdx {
			maxIdx = l.Index + 1
		}
	}

	if len(seen) > 0 && ks.NextIndex < maxIdx {
		return fmt.Errorf("NextIndex (%d) is less than max caller index + 1 (%d)", ks.NextIndex, maxIdx)
	}
	return nil
}

func (ks *KeyringState) find(name string) int {
	for i := range ks.Labels {
		if ks.Labels[i].Name == name && !ks.Labels[i].Removed {
			return i
		}
	}
	return -1
}

// AddLabel allocates the next caller index under name and derives its key.
func (w *Wallet) AddLabel(state *KeyringState, name string) (*Label, *KeyPair, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidLabel, name)
	}
	if state.find(name) >= 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrLabelExists, name)
	}
	if state.NextIndex > MaxIndex {
		return nil, nil, ErrIndexOutOfRange
	}

	kp, err := w.DeriveCaller(state.NextIndex)
	if err != nil {
		return nil, nil, err
	}

	label := Label{Name: name, Index: state.NextIndex}
	state.Labels = append(state.Labels, label)
	state.NextIndex++
	return &label, kp, nil
}

// Caller derives the key for an active label.
func (w *Wallet) Caller(state *KeyringState, name string) (*KeyPair, error) {
	i := state.find(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrLabelNotFound, name)
	}
	return w.DeriveCaller(state.Labels[i].Index)
}

// ListLabels returns all active labels.
func (ks *KeyringState) ListLabels() []Label {
	var active []Label
	for _, l := range ks.Labels {
		if !l.Removed {
			active = append(active, l)
		}
	}
	return active
}

// RemoveLabel soft-deletes a label. Its index is not reused.
func (ks *KeyringState) RemoveLabel(name string) error {
	i := ks.find(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrLabelNotFound, name)
	}
	ks.Labels[i].Removed = true
	return nil
}

// LoadKeyring reads <dataDir>/keys.json. A missing file yields an empty state.
func LoadKeyring(dataDir string) (*KeyringState, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, KeyringFileName))
	if errors.Is(err, os.ErrNotExist) {
		return NewKeyringState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("wallet: read keyring: %w", err)
	}

	state := NewKeyringState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("wallet: parse keyring: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("wallet: keyring: %w", err)
	}
	return state, nil
}

// SaveKeyring writes state to <dataDir>/keys.json.
func SaveKeyring(dataDir string, state *KeyringState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("wallet: encode keyring: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("wallet: create data dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dataDir, KeyringFileName), data, 0600)
}
