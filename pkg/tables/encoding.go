package tables

import (
	"fmt"
	"strconv"
	"strings"

	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
)

// EncodeLength formats n as a big-endian uint32, swaps it to little-endian
// byte order and repeats the 8-character result three times.
//
// The controller reads each length field as three redundant copies.
func EncodeLength(n uint64) (string, error) {
	if n > MaxLength {
		return "", fmt.Errorf("%w: length 0x%X exceeds 32 bits", terrors.ErrValueRange, n)
	}
	swapped, err := SwapBytePairs(fmt.Sprintf("%08X", n))
	if err != nil {
		return "", err
	}
	return strings.Repeat(swapped, LengthFieldCopies), nil
}

// EncodeTotalLength encodes the aggregate total-table length field.
func EncodeTotalLength(n uint64) (string, error) {
	return EncodeLength(n)
}

// DecodeLength reverses EncodeLength. All three copies must agree.
func DecodeLength(field string) (uint32, error) {
	if len(field) != EncodedLengthChars {
		return 0, fmt.Errorf("%w: length field has %d chars, want %d",
			terrors.ErrEncoding, len(field), EncodedLengthChars)
	}
	copyLen := EncodedLengthChars / LengthFieldCopies
	first := strings.ToUpper(field[:copyLen])
	for i := 1; i < LengthFieldCopies; i++ {
		if strings.ToUpper(field[i*copyLen:(i+1)*copyLen]) != first {
			return 0, fmt.Errorf("%w: length copies disagree in %q", terrors.ErrCorruptArtifact, field)
		}
	}
	be, err := SwapBytePairs(first)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(be, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", terrors.ErrEncoding, err)
	}
	return uint32(v), nil
}

// EncodeMotorSelection renders the motor selection word of the header.
// motors[0] is motor 1. Each enabled motor contributes "11", disabled "00";
// the bit string is "1100" + motor5..motor1 + "00", emitted little-endian.
func EncodeMotorSelection(motors [5]bool) string {
	var bits strings.Builder
	bits.WriteString("1100")
	for i := len(motors) - 1; i >= 0; i-- {
		if motors[i] {
			bits.WriteString("11")
		} else {
			bits.WriteString("00")
		}
	}
	bits.WriteString("00")

	word, _ := strconv.ParseUint(bits.String(), 2, 16)
	be := fmt.Sprintf("%04X", word)
	return be[2:] + be[:2]
}
