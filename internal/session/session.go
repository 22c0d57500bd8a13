// Package session persists the assembly session between CLI invocations.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/provide-io/furnace/go/furnace/pkg/tables"
)

// stateVersion is bumped when the file layout changes; other versions are discarded.
const stateVersion = 1

// State is the JSON document stored in the session file.
type State struct {
	Version   int                `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
	Session   tables.Session     `json:"session"`
	Artifacts []*tables.Artifact `json:"artifacts,omitempty"`
}

// Load reads the session at path. A missing or outdated file starts a new
// session. The load address and motor word always come from the caller so
// configuration changes apply to an existing session.
func Load(path string, loadAddress uint32, motorHex string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(loadAddress, motorHex)
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}
	if st.Version != stateVersion {
		return New(loadAddress, motorHex)
	}

	st.Session, err = st.Session.WithHeaderSettings(loadAddress, motorHex)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// New returns an empty session state.
func New(loadAddress uint32, motorHex string) (*State, error) {
	s, err := tables.NewSession(loadAddress, motorHex)
	if err != nil {
		return nil, err
	}
	return &State{Version: stateVersion, Session: s}, nil
}

// Record appends artifacts written during this step.
func (st *State) Record(artifacts ...*tables.Artifact) {
	for _, a := range artifacts {
		if a != nil {
			st.Artifacts = append(st.Artifacts, a)
		}
	}
}

// Save writes the state to path atomically.
func Save(path string, st *State) error {
	st.Version = stateVersion
	st.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), tables.DirPerms); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	return tables.WriteFileAtomic(path, data, 0o600)
}

// Reset deletes the session file. A missing file is not an error.
func Reset(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
