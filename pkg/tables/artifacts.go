package tables

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
)

// Artifact describes a binary file written by the assembler.
type Artifact struct {
	Label     string    `json:"label"`
	Path      string    `json:"path"`
	Checksum  uint8     `json:"checksum"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtifactName formats "<label>_0x<CS>_<YYYYMMDD_HHMMSS>.bin".
func ArtifactName(label string, checksum uint8, t time.Time) string {
	return fmt.Sprintf("%s_0x%02X_%s%s", label, checksum, t.Format(TimestampLayout), ArtifactExt)
}

// Emitter writes artifacts into one output directory.
type Emitter struct {
	Dir  string
	Perm os.FileMode
	// Now stamps artifact names; defaults to time.Now.
	Now    func() time.Time
	logger hclog.Logger
}

// NewEmitter creates an emitter for dir.
func NewEmitter(dir string, perm os.FileMode, logger hclog.Logger) *Emitter {
	if perm == 0 {
		perm = FilePerms
	}
	return &Emitter{
		Dir:    dir,
		Perm:   perm,
		Now:    time.Now,
		logger: logger.Named("emitter"),
	}
}

// Emit writes hexContent as "<label>_0x<CS>_<timestamp>.bin".
func (e *Emitter) Emit(label, hexContent string) (*Artifact, error) {
	checksum, err := Checksum(hexContent)
	if err != nil {
		return nil, err
	}
	now := e.Now()
	return e.write(label, ArtifactName(label, checksum, now), hexContent, checksum, now)
}

// EmitNamed writes hexContent under a fixed file name.
func (e *Emitter) EmitNamed(label, fileName, hexContent string) (*Artifact, error) {
	checksum, err := Checksum(hexContent)
	if err != nil {
		return nil, err
	}
	return e.write(label, fileName, hexContent, checksum, e.Now())
}

func (e *Emitter) write(label, fileName, hexContent string, checksum uint8, now time.Time) (*Artifact, error) {
	e.logger.Debug("📁 Ensuring output directory exists", "dir", e.Dir)
	if err := os.MkdirAll(e.Dir, os.FileMode(DirPerms)); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", terrors.ErrIO, e.Dir, err)
	}

	path := filepath.Join(e.Dir, fileName)
	if err := HexToFile(hexContent, path, e.Perm); err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Label:     label,
		Path:      path,
		Checksum:  checksum,
		Size:      len(hexContent) / 2,
		CreatedAt: now,
	}
	e.logger.Info("💾 Artifact written",
		"label", label,
		"path", path,
		"size", artifact.Size,
		"checksum", fmt.Sprintf("0x%02X", checksum))
	return artifact, nil
}
