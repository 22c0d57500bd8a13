// Package tables assembles the furnace controller total table: sub-table
// collection, header encoding, artifact emission and verification.
//
// Checksum: 8-bit additive sum of every byte, rendered as "0x%02X" in
// artifact file names.
package tables

// Checksum decodes hexContent and returns the sum of its bytes modulo 256.
// The empty string has checksum 0.
func Checksum(hexContent string) (uint8, error) {
	data, err := DecodeHex(hexContent)
	if err != nil {
		return 0, err
	}
	return ChecksumBytes(data), nil
}

// ChecksumBytes sums raw bytes modulo 256.
func ChecksumBytes(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return sum
}
