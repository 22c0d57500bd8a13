// Package flow persists experiment flows and encodes them into dynamic
// tables for the furnace controller.
package flow

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/provide-io/furnace/go/furnace/pkg/tables"
	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
)

const (
	// MaxActions is the number of flow rows a dynamic table carries.
	MaxActions = 128

	// EndOfFlow marks the last action of a flow.
	EndOfFlow = 0xFFFF

	MaxDynamicID      = 9999
	maxActionCountMax = 1<<48 - 1
)

// Record is one persisted experiment_flow row.
type Record struct {
	ID         int64
	StartTime  uint32
	ActionID   string
	ActionTime uint16
}

// Filler pads a finished flow up to MaxActions rows.
var Filler = Record{StartTime: 0xFFFFFFFF, ActionID: "FFFF", ActionTime: 0xFFFF}

// EncodeStartTime renders a start time as little-endian hex.
func EncodeStartTime(v uint32) string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return tables.BytesToHex(b[:])
}

// EncodeActionID swaps the two bytes of a 4-hex-digit action id.
func EncodeActionID(id string) (string, error) {
	if len(id) != 4 {
		return "", fmt.Errorf("%w: action id %q must be 4 hex digits", terrors.ErrEncoding, id)
	}
	if _, err := tables.DecodeHex(id); err != nil {
		return "", err
	}
	return tables.SwapBytePairs(strings.ToUpper(id))
}

// EncodeActionTime renders an action time big-endian.
func EncodeActionTime(v uint16) string {
	return fmt.Sprintf("%04X", v)
}

// EncodeDynamicID writes id as four decimal digits, then swaps the pairs
// as if they were hex bytes: 90 -> "0090" -> "9000".
func EncodeDynamicID(id int) (string, error) {
	if id < 0 || id > MaxDynamicID {
		return "", fmt.Errorf("%w: dynamic id %d not in 0..%d", terrors.ErrValueRange, id, MaxDynamicID)
	}
	return tables.SwapBytePairs(fmt.Sprintf("%04d", id))
}

// EncodeMaxActionCount renders n as 12 little-endian hex chars.
func EncodeMaxActionCount(n uint64) (string, error) {
	if n > maxActionCountMax {
		return "", fmt.Errorf("%w: max action count %d exceeds 48 bits", terrors.ErrValueRange, n)
	}
	return tables.SwapBytePairs(fmt.Sprintf("%012X", n))
}

// EncodeRecord renders start time, action id and action time of r.
func EncodeRecord(r Record) (string, error) {
	id, err := EncodeActionID(r.ActionID)
	if err != nil {
		return "", fmt.Errorf("record %d: %w", r.ID, err)
	}
	return EncodeStartTime(r.StartTime) + id + EncodeActionTime(r.ActionTime), nil
}

// BuildDynamicTable encodes a dynamic table: dynamic id, max action count
// and every record in the order given, which must be insertion order.
func BuildDynamicTable(dynamicID int, maxActionCount uint64, records []Record) (string, error) {
	id, err := EncodeDynamicID(dynamicID)
	if err != nil {
		return "", err
	}
	count, err := EncodeMaxActionCount(maxActionCount)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(id) + len(count) + len(records)*16)
	b.WriteString(id)
	b.WriteString(count)
	for _, r := range records {
		enc, err := EncodeRecord(r)
		if err != nil {
			return "", err
		}
		b.WriteString(enc)
	}
	return b.String(), nil
}

// DynamicTableName is the file name of a generated dynamic table. It
// follows the DT<dddd> convention the dynamic folder collector matches.
func DynamicTableName(dynamicID int) string {
	return fmt.Sprintf("DT_%04d%s", dynamicID, tables.ArtifactExt)
}
