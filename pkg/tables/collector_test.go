package tables

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/provide-io/furnace/go/furnace/pkg/logging"
	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestMatcher(t *testing.T) {
	m := DefaultMatchers()
	tests := []struct {
		category Category
		name     string
		tag      string
		ok       bool
	}{
		{CategoryStatic, "ST_静态表_v2.bin", "", true},
		{CategoryStatic, "ST_static.bin", "", false},
		{CategoryStatic, "XST_静态表.bin", "", false},
		{CategoryAction, "AT_heat_60a1.bin", "60a1", true},
		{CategoryAction, "AT_heat.bin", "", false},
		{CategoryAction, "xAT_60A1.bin", "", false},
		{CategoryAction, "AT_60A1.txt", "", false},
		{CategoryDynamic, "DT_0090.bin", "0090", true},
		{CategoryDynamic, "DT_ab12.bin", "", false},
		{CategoryMonitoring, "zt_monitor.bin", "", true},
		{CategoryMonitoring, "zt_monitor.hex", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.category.String()+"/"+tt.name, func(t *testing.T) {
			tag, ok := m[tt.category].Match(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.tag, tag)
		})
	}
}

func TestCollectSingleFile(t *testing.T) {
	logger := logging.NewTestLogger("collector_test", nil)
	dir := t.TempDir()
	m := DefaultMatchers()[CategoryStatic]

	path := writeFile(t, filepath.Join(dir, "ST_静态表.bin"), []byte{0x01, 0xAB, 0xFF})
	st, err := CollectSingleFile(path, CategoryStatic, m, logger)
	require.NoError(t, err)
	assert.Equal(t, CategoryStatic, st.Category)
	assert.Equal(t, uint32(3), st.Length)
	assert.Equal(t, "01ABFF", st.ContentHex)
	assert.Equal(t, []string{path}, st.Sources)

	wrong := writeFile(t, filepath.Join(dir, "static.bin"), []byte{0x01})
	_, err = CollectSingleFile(wrong, CategoryStatic, m, logger)
	assert.True(t, errors.Is(err, terrors.ErrFileNotMatched))

	folder := filepath.Join(dir, "ST_静态表_dir")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	_, err = CollectSingleFile(folder, CategoryStatic, m, logger)
	assert.True(t, errors.Is(err, terrors.ErrFileNotMatched), "got %v", err)

	empty := writeFile(t, filepath.Join(dir, "ST_静态表_empty.bin"), nil)
	st, err = CollectSingleFile(empty, CategoryStatic, m, logger)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), st.Length)
	assert.Equal(t, "", st.ContentHex)
}

func TestCollectFolderOrdersByTag(t *testing.T) {
	logger := logging.NewTestLogger("collector_test", nil)
	dir := t.TempDir()
	m := DefaultMatchers()[CategoryAction]

	writeFile(t, filepath.Join(dir, "a", "AT_fire_00B0.bin"), []byte{0xB0})
	writeFile(t, filepath.Join(dir, "AT_cool_0010.bin"), []byte{0x10, 0x11})
	writeFile(t, filepath.Join(dir, "z", "AT_idle_00a0.bin"), []byte{0xA0})
	writeFile(t, filepath.Join(dir, "b", "AT_same_00A0.bin"), []byte{0xA1})
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("skip"))
	writeFile(t, filepath.Join(dir, "DT_0001.bin"), []byte{0xEE})

	st, err := CollectFolder(dir, CategoryAction, m, logger)
	require.NoError(t, err)

	// 0010, then the two 00A0 tags ordered by path (b/ before z/), then 00B0
	assert.Equal(t, "1011A1A0B0", st.ContentHex)
	assert.Equal(t, uint32(5), st.Length)
	require.Len(t, st.Sources, 4)
	assert.Equal(t, filepath.Join(dir, "AT_cool_0010.bin"), st.Sources[0])

	again, err := CollectFolder(dir, CategoryAction, m, logger)
	require.NoError(t, err)
	assert.Equal(t, st, again)
}

func TestCollectFolderEmptyAndInvalid(t *testing.T) {
	logger := logging.NewTestLogger("collector_test", nil)
	dir := t.TempDir()
	m := DefaultMatchers()[CategoryDynamic]

	st, err := CollectFolder(dir, CategoryDynamic, m, logger)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), st.Length)
	assert.Empty(t, st.ContentHex)

	file := writeFile(t, filepath.Join(dir, "DT_0001.bin"), []byte{1})
	_, err = CollectFolder(file, CategoryDynamic, m, logger)
	assert.True(t, errors.Is(err, terrors.ErrFileNotMatched))

	_, err = CollectFolder(filepath.Join(dir, "missing"), CategoryDynamic, m, logger)
	assert.Error(t, err)
}
