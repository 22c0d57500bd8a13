package permissions

import (
	"os"
	"testing"
)

func TestParseOctalString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    os.FileMode
		wantErr bool
	}{
		{name: "empty uses default", input: "", want: DefaultFilePerms},
		{name: "plain", input: "644", want: 0o644},
		{name: "leading zero", input: "0600", want: 0o600},
		{name: "go prefix", input: "0o640", want: 0o640},
		{name: "not octal", input: "689", wantErr: true},
		{name: "setuid bits", input: "4755", wantErr: true},
		{name: "owner cannot write", input: "0444", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOctalString(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOctalString(%q) = %o, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseOctalString(%q) = %o, want %o", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatOctalRoundTrip(t *testing.T) {
	for _, perm := range []os.FileMode{0o600, 0o640, 0o644, 0o700} {
		got, err := ParseOctalString(FormatOctal(perm))
		if err != nil {
			t.Fatalf("FormatOctal(%o): %v", perm, err)
		}
		if got != perm {
			t.Errorf("round trip of %o gave %o", perm, got)
		}
	}
}
