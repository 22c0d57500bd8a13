package tables

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/furnace/go/furnace/pkg/logging"
	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

func newTestAssembler(t *testing.T, outDir string) (*Assembler, hclog.Logger) {
	t.Helper()
	logger := logging.NewTestLogger("assembler_test", nil)
	emitter := NewEmitter(outDir, FilePerms, logger)
	emitter.Now = func() time.Time { return fixedNow }
	return NewAssembler(DefaultMatchers(), DefaultLabels(), emitter, logger), logger
}

func mustSession(t *testing.T, loadAddress uint32) Session {
	t.Helper()
	s, err := NewSession(loadAddress, "")
	require.NoError(t, err)
	return s
}

func withTable(t *testing.T, s Session, c Category, content string) Session {
	t.Helper()
	next, err := s.WithSubTable(SubTable{Category: c, Length: uint32(len(content) / 2), ContentHex: content})
	require.NoError(t, err)
	return next
}

func encoded(t *testing.T, n uint64) string {
	t.Helper()
	f, err := EncodeLength(n)
	require.NoError(t, err)
	return f
}

func TestSessionOffsets(t *testing.T) {
	// static 0 bytes, action 10 bytes, dynamic 0, monitoring 0
	s := mustSession(t, 0)
	s = withTable(t, s, CategoryStatic, "")
	s = withTable(t, s, CategoryAction, strings.Repeat("AA", 10))
	s = withTable(t, s, CategoryDynamic, "")
	s = withTable(t, s, CategoryMonitoring, "")

	assert.Equal(t, uint64(0), s.Offset(CategoryStatic))
	assert.Equal(t, uint64(0), s.Offset(CategoryAction))
	assert.Equal(t, uint64(10), s.Offset(CategoryDynamic))
	assert.Equal(t, uint64(10), s.Offset(CategoryMonitoring))

	assert.Equal(t, encoded(t, 0), s.Table(CategoryStatic).EncodedLengthHex)
	assert.Equal(t, encoded(t, 0), s.Table(CategoryAction).EncodedLengthHex)
	assert.Equal(t, encoded(t, 10), s.Table(CategoryDynamic).EncodedLengthHex)
	assert.Equal(t, encoded(t, 10), s.Table(CategoryMonitoring).EncodedLengthHex)
	assert.Equal(t, uint64(10), s.TotalLength())
}

func TestSessionFieldsIncludeLoadAddress(t *testing.T) {
	s := mustSession(t, DefaultLoadAddress)
	s = withTable(t, s, CategoryStatic, "0102")

	assert.Equal(t, "000000820000008200000082", s.Table(CategoryStatic).EncodedLengthHex)
	assert.Equal(t, "020000820200008202000082", s.Table(CategoryAction).EncodedLengthHex)
}

func TestSessionCollectionOrderIndependent(t *testing.T) {
	inOrder := mustSession(t, DefaultLoadAddress)
	inOrder = withTable(t, inOrder, CategoryStatic, "01")
	inOrder = withTable(t, inOrder, CategoryAction, "0203")
	inOrder = withTable(t, inOrder, CategoryDynamic, "040506")
	inOrder = withTable(t, inOrder, CategoryMonitoring, "07")

	reversed := mustSession(t, DefaultLoadAddress)
	reversed = withTable(t, reversed, CategoryMonitoring, "07")
	reversed = withTable(t, reversed, CategoryDynamic, "040506")
	reversed = withTable(t, reversed, CategoryAction, "0203")
	reversed = withTable(t, reversed, CategoryStatic, "01")

	assert.Equal(t, inOrder, reversed)

	total, err := BuildTotalTable(reversed)
	require.NoError(t, err)
	assert.Equal(t, "01020304050607", total)
}

func TestSessionWithSubTableDoesNotMutate(t *testing.T) {
	s := mustSession(t, 0)
	next := withTable(t, s, CategoryAction, "AB")

	assert.False(t, s.Collected())
	assert.True(t, next.Collected())
	assert.Empty(t, s.Table(CategoryAction).ContentHex)
}

func TestBuildHeader(t *testing.T) {
	_, err := BuildHeader(mustSession(t, 0))
	assert.True(t, errors.Is(err, terrors.ErrEmptyContent))

	s := mustSession(t, 0)
	s = withTable(t, s, CategoryAction, strings.Repeat("AA", 10))

	h, err := BuildHeader(s)
	require.NoError(t, err)
	assert.Len(t, h, HeaderSize*2)
	want := "00F0" + "00C0" +
		encoded(t, 0) + encoded(t, 0) + encoded(t, 10) + encoded(t, 10) +
		encoded(t, 10)
	assert.Equal(t, want, h)

	again, err := BuildHeader(s)
	require.NoError(t, err)
	assert.Equal(t, h, again)
}

func TestBuildTotalTableAndFinal(t *testing.T) {
	_, err := BuildTotalTable(mustSession(t, 0))
	assert.True(t, errors.Is(err, terrors.ErrEmptyContent))

	s := mustSession(t, 0)
	s = withTable(t, s, CategoryStatic, "")
	_, err = BuildTotalTable(s)
	assert.True(t, errors.Is(err, terrors.ErrEmptyContent))

	s = withTable(t, s, CategoryDynamic, "DD")
	s = withTable(t, s, CategoryStatic, "5151")
	total, err := BuildTotalTable(s)
	require.NoError(t, err)
	assert.Equal(t, "5151DD", total)

	h, err := BuildHeader(s)
	require.NoError(t, err)
	assert.Equal(t, h+"5151DD5151DD5151DD", BuildFinalArtifact(h, total))
}

func TestAssemblerCollectArchivesFolders(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), TotalOutputDir)
	a, _ := newTestAssembler(t, out)

	writeFile(t, filepath.Join(in, "actions", "AT_1_0001.bin"), []byte{0x01, 0x02})
	writeFile(t, filepath.Join(in, "actions", "AT_2_0002.bin"), []byte{0x03})
	static := writeFile(t, filepath.Join(in, "ST_静态表.bin"), []byte{0xFF})

	s := mustSession(t, DefaultLoadAddress)
	s, artifact, err := a.Collect(s, CategoryStatic, static)
	require.NoError(t, err)
	assert.Nil(t, artifact, "single-file categories are not archived")

	s, artifact, err = a.Collect(s, CategoryAction, filepath.Join(in, "actions"))
	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.Equal(t, LabelActionTotal, artifact.Label)
	assert.Equal(t, uint8(0x06), artifact.Checksum)
	assert.Equal(t, filepath.Join(out, "TotalActionTable_0x06_20250314_092653.bin"), artifact.Path)

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, data)

	assert.Equal(t, uint32(3), s.Table(CategoryAction).Length)
	assert.Equal(t, encoded(t, DefaultLoadAddress+1), s.Table(CategoryAction).EncodedLengthHex)

	// empty folder: collected with zero length, nothing archived
	require.NoError(t, os.MkdirAll(filepath.Join(in, "dynamics"), 0o755))
	s, artifact, err = a.Collect(s, CategoryDynamic, filepath.Join(in, "dynamics"))
	require.NoError(t, err)
	assert.Nil(t, artifact)
	assert.True(t, s.Table(CategoryDynamic).Collected)
}

func TestAssemblerCollectNoSelectionAndMismatch(t *testing.T) {
	in := t.TempDir()
	a, _ := newTestAssembler(t, filepath.Join(t.TempDir(), TotalOutputDir))
	s := mustSession(t, 0)

	next, artifact, err := a.Collect(s, CategoryStatic, "")
	require.NoError(t, err)
	assert.Nil(t, artifact)
	assert.Equal(t, s, next)

	wrong := writeFile(t, filepath.Join(in, "monitor.bin"), []byte{1})
	next, _, err = a.Collect(s, CategoryMonitoring, wrong)
	assert.True(t, errors.Is(err, terrors.ErrFileNotMatched))
	assert.Equal(t, s, next, "a rejected file must not change the session")
}

func TestAssemblerEmitAndVerify(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), TotalOutputDir)
	a, logger := newTestAssembler(t, out)

	_, err := a.EmitFinal(mustSession(t, 0))
	assert.True(t, errors.Is(err, terrors.ErrEmptyContent))
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "nothing is written for an empty session")

	s := mustSession(t, DefaultLoadAddress)
	s, _, err = a.Collect(s, CategoryStatic, writeFile(t, filepath.Join(in, "ST_静态表.bin"), []byte{1, 2, 3, 4}))
	require.NoError(t, err)
	writeFile(t, filepath.Join(in, "at", "AT_0A0B.bin"), []byte{5, 6})
	s, _, err = a.Collect(s, CategoryAction, filepath.Join(in, "at"))
	require.NoError(t, err)
	s, _, err = a.Collect(s, CategoryMonitoring, writeFile(t, filepath.Join(in, "zt.bin"), []byte{7}))
	require.NoError(t, err)

	header, err := a.EmitHeader(s)
	require.NoError(t, err)
	assert.Equal(t, HeaderSize, header.Size)

	total, err := a.EmitTotalTable(s)
	require.NoError(t, err)
	assert.Equal(t, 7, total.Size)
	assert.Equal(t, uint8(28), total.Checksum)

	final, err := a.EmitFinal(s)
	require.NoError(t, err)
	assert.Equal(t, HeaderSize+3*7, final.Size)
	assert.True(t, strings.HasPrefix(filepath.Base(final.Path), LabelFinal+"_0x"))

	r, err := VerifyFile(final.Path, logger)
	require.NoError(t, err)
	assert.Equal(t, uint32(DefaultLoadAddress), r.LoadAddress)
	assert.Equal(t, [4]uint32{4, 2, 0, 1}, r.Lengths)
	assert.Equal(t, uint32(7), r.TotalLength)
	assert.Equal(t, final.Checksum, r.Checksum)
	assert.Equal(t, DefaultMotorHex, r.Header.MotorHex)
}

func TestVerifyFinalArtifactRejectsCorruption(t *testing.T) {
	s := mustSession(t, 0)
	s = withTable(t, s, CategoryStatic, "0102")
	h, err := BuildHeader(s)
	require.NoError(t, err)

	image, err := DecodeHex(BuildFinalArtifact(h, "0102"))
	require.NoError(t, err)
	_, err = VerifyFinalArtifact(image)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{name: "short", mutate: func(b []byte) []byte { return b[:10] }},
		{name: "truncated body", mutate: func(b []byte) []byte { return b[:len(b)-1] }},
		{name: "copy differs", mutate: func(b []byte) []byte { b[len(b)-1] ^= 0xFF; return b }},
		{name: "length copy differs", mutate: func(b []byte) []byte { b[4+4] ^= 0x01; return b }},
		{name: "config word", mutate: func(b []byte) []byte { b[1] = 0x00; return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corrupt := tt.mutate(append([]byte(nil), image...))
			_, err := VerifyFinalArtifact(corrupt)
			assert.True(t, errors.Is(err, terrors.ErrCorruptArtifact), "got %v", err)
		})
	}
}
