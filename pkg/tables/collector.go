package tables

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
)

// CollectSingleFile reads one sub-table file. The base name must satisfy m;
// otherwise ErrFileNotMatched is returned and nothing is read.
func CollectSingleFile(path string, c Category, m Matcher, logger hclog.Logger) (SubTable, error) {
	name := filepath.Base(path)
	if _, ok := m.Match(name); !ok {
		return SubTable{}, fmt.Errorf("%w: %s table %q (want %s)", terrors.ErrFileNotMatched, c, name, m)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return SubTable{}, fmt.Errorf("%w: %s table needs a file, got folder %q", terrors.ErrFileNotMatched, c, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SubTable{}, fmt.Errorf("reading %s table: %w", c, err)
	}
	if uint64(len(data)) > MaxLength {
		return SubTable{}, fmt.Errorf("%w: %s table is %d bytes", terrors.ErrValueRange, c, len(data))
	}

	logger.Info("📄 Collected table file", "category", c, "file", name, "bytes", len(data))
	return SubTable{
		Category:   c,
		Length:     uint32(len(data)),
		ContentHex: BytesToHex(data),
		Sources:    []string{path},
	}, nil
}

type taggedFile struct {
	tag  string
	path string
}

// CollectFolder walks dir recursively and concatenates every file whose
// base name satisfies m. Files are ordered by their upper-cased tag (the
// first capture group of m.Pattern), then by slash-separated path, so the
// output does not depend on directory enumeration order.
func CollectFolder(dir string, c Category, m Matcher, logger hclog.Logger) (SubTable, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return SubTable{}, fmt.Errorf("opening %s folder: %w", c, err)
	}
	if !info.IsDir() {
		return SubTable{}, fmt.Errorf("%w: %s table needs a folder, got file %q", terrors.ErrFileNotMatched, c, dir)
	}

	var files []taggedFile
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		tag, ok := m.Match(d.Name())
		if !ok {
			logger.Trace("Skipping file", "file", path)
			return nil
		}
		files = append(files, taggedFile{tag: strings.ToUpper(tag), path: path})
		return nil
	})
	if err != nil {
		return SubTable{}, fmt.Errorf("walking %s folder: %w", c, err)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].tag != files[j].tag {
			return files[i].tag < files[j].tag
		}
		return filepath.ToSlash(files[i].path) < filepath.ToSlash(files[j].path)
	})

	var content strings.Builder
	var total uint64
	sources := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return SubTable{}, fmt.Errorf("reading %s table: %w", c, err)
		}
		total += uint64(len(data))
		if total > MaxLength {
			return SubTable{}, fmt.Errorf("%w: %s tables exceed 32-bit length", terrors.ErrValueRange, c)
		}
		content.WriteString(BytesToHex(data))
		sources = append(sources, f.path)
		logger.Debug("➕ Appended table file", "category", c, "tag", f.tag, "file", f.path, "bytes", len(data))
	}

	logger.Info("📁 Collected table folder", "category", c, "dir", dir, "files", len(files), "bytes", total)
	return SubTable{
		Category:   c,
		Length:     uint32(total),
		ContentHex: content.String(),
		Sources:    sources,
	}, nil
}
