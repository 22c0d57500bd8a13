package tables

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
)

// Report is the decoded content of a final artifact.
type Report struct {
	Header      Header
	LoadAddress uint32
	Lengths     [4]uint32
	TotalLength uint32
	Checksum    uint8
}

// ParseHeader decodes the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the %d byte header",
			terrors.ErrCorruptArtifact, len(data), HeaderSize)
	}
	hexHeader := BytesToHex(data[:HeaderSize])
	fieldChars := EncodedLengthChars

	h := Header{
		ConfigHex: hexHeader[0:4],
		MotorHex:  hexHeader[4:8],
	}
	pos := 8
	for i := range h.Fields {
		h.Fields[i] = hexHeader[pos : pos+fieldChars]
		pos += fieldChars
	}
	h.TotalLengthHex = hexHeader[pos : pos+fieldChars]
	return h, nil
}

// VerifyFinalArtifact checks a header+3×total image: the header fields
// must be self-consistent and the three table copies identical.
func VerifyFinalArtifact(data []byte) (*Report, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.ConfigHex != ConfigHex {
		return nil, fmt.Errorf("%w: config word %s, want %s", terrors.ErrCorruptArtifact, h.ConfigHex, ConfigHex)
	}

	var fields [4]uint32
	for i, f := range h.Fields {
		if fields[i], err = DecodeLength(f); err != nil {
			return nil, fmt.Errorf("%s field: %w", Categories[i], err)
		}
	}
	total, err := DecodeLength(h.TotalLengthHex)
	if err != nil {
		return nil, fmt.Errorf("total field: %w", err)
	}

	r := &Report{
		Header:      h,
		LoadAddress: fields[CategoryStatic],
		TotalLength: total,
		Checksum:    ChecksumBytes(data),
	}
	for i := range fields {
		end := uint64(r.LoadAddress) + uint64(total)
		if i+1 < len(fields) {
			end = uint64(fields[i+1])
		}
		if end < uint64(fields[i]) {
			return nil, fmt.Errorf("%w: %s field 0x%08X beyond next offset 0x%08X",
				terrors.ErrCorruptArtifact, Categories[i], fields[i], end)
		}
		r.Lengths[i] = uint32(end - uint64(fields[i]))
	}

	body := data[HeaderSize:]
	if uint64(len(body)) != uint64(total)*TotalTableCopies {
		return nil, fmt.Errorf("%w: body is %d bytes, want %d copies of %d",
			terrors.ErrCorruptArtifact, len(body), TotalTableCopies, total)
	}
	first := body[:total]
	for i := 1; i < TotalTableCopies; i++ {
		if !bytes.Equal(first, body[i*int(total):(i+1)*int(total)]) {
			return nil, fmt.Errorf("%w: total table copy %d differs", terrors.ErrCorruptArtifact, i+1)
		}
	}
	return r, nil
}

// VerifyFile verifies the final artifact at path and logs the decoded layout.
func VerifyFile(path string, logger hclog.Logger) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	logger.Info("Verifying total table artifact", "path", path, "bytes", len(data))

	r, err := VerifyFinalArtifact(data)
	if err != nil {
		logger.Error("✗ Artifact verification failed", "error", err)
		return nil, err
	}
	logger.Info("✓ Header fields consistent",
		"load_address", fmt.Sprintf("0x%08X", r.LoadAddress),
		"motor", r.Header.MotorHex)
	for i, l := range r.Lengths {
		logger.Info("✓ Sub-table", "category", Categories[i], "bytes", l)
	}
	logger.Info("✓ Total table copies identical",
		"total", r.TotalLength,
		"checksum", fmt.Sprintf("0x%02X", r.Checksum))
	return r, nil
}
