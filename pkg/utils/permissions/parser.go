// Package permissions parses the octal file modes used for output artifacts.
package permissions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultFilePerms lets the loader tooling of other users read artifacts.
const DefaultFilePerms = 0o644

// ParseOctalString parses "644", "0644" or "0o644". The empty string yields
// DefaultFilePerms.
func ParseOctalString(s string) (os.FileMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultFilePerms, nil
	}

	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0")
	if digits == "" {
		digits = "0"
	}
	val, err := strconv.ParseUint(digits, 8, 32)
	if err != nil {
		return DefaultFilePerms, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	if val > 0o777 {
		return DefaultFilePerms, fmt.Errorf("invalid permission string %q: only rwx bits are allowed", s)
	}
	if val&0o600 != 0o600 {
		return DefaultFilePerms, fmt.Errorf("permission %q must keep owner read/write", s)
	}
	return os.FileMode(val), nil
}

// FormatOctal renders a mode the way ParseOctalString accepts it.
func FormatOctal(perm os.FileMode) string {
	return fmt.Sprintf("0%o", uint32(perm.Perm()))
}
