package tables

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher decides whether a sub-table file name follows the naming
// convention of its category. Every non-empty condition must hold.
type Matcher struct {
	Prefix   string
	Contains string
	Suffix   string
	// Pattern, when set, must match the whole base name. Its first
	// capture group is the file's tag, used to order folder contents.
	Pattern *regexp.Regexp
}

// Match reports whether name satisfies m and returns the captured tag.
func (m Matcher) Match(name string) (string, bool) {
	if m.Prefix != "" && !strings.HasPrefix(name, m.Prefix) {
		return "", false
	}
	if m.Contains != "" && !strings.Contains(name, m.Contains) {
		return "", false
	}
	if m.Suffix != "" && !strings.HasSuffix(name, m.Suffix) {
		return "", false
	}
	if m.Pattern == nil {
		return "", true
	}
	sub := m.Pattern.FindStringSubmatch(name)
	if sub == nil {
		return "", false
	}
	if len(sub) > 1 {
		return sub[1], true
	}
	return "", true
}

func (m Matcher) String() string {
	var parts []string
	if m.Prefix != "" {
		parts = append(parts, "prefix="+m.Prefix)
	}
	if m.Contains != "" {
		parts = append(parts, "contains="+m.Contains)
	}
	if m.Suffix != "" {
		parts = append(parts, "suffix="+m.Suffix)
	}
	if m.Pattern != nil {
		parts = append(parts, "pattern="+m.Pattern.String())
	}
	return strings.Join(parts, " ")
}

// CompilePattern compiles a folder pattern, anchoring it at the start of
// the name when the caller did not.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	if !strings.HasPrefix(expr, "^") {
		expr = "^" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", expr, err)
	}
	return re, nil
}
