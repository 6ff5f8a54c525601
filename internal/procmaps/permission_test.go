package procmaps

import "testing"

func TestDecodePermission(t *testing.T) {
	tests := []struct {
		perms string
		want  Permission
	}{
		{"r--p", NoAccess},
		{"---p", NoAccess},
		{"-w-p", NoAccess},
		{"--xp", NoAccess},
		{"rw-p", ReadWrite},
		{"rw-s", ReadWrite},
		{"r-xp", ReadExecute},
		{"r-xs", ReadExecute},
		// read-execute wins over read-write-execute
		{"rwxp", ReadExecute},
		{"", NoAccess},
		{"r", NoAccess},
	}
	for _, tt := range tests {
		if got := DecodePermission(tt.perms); got != tt.want {
			t.Errorf("DecodePermission(%q) = %v, want %v", tt.perms, got, tt.want)
		}
	}
}

func TestPermission_String(t *testing.T) {
	names := map[Permission]string{
		NoAccess:         "NoAccess",
		ReadWrite:        "ReadWrite",
		ReadExecute:      "ReadExecute",
		ReadWriteExecute: "ReadWriteExecute",
	}
	for p, want := range names {
		if p.String() != want {
			t.Errorf("%d.String() = %q, want %q", p, p.String(), want)
		}
		v, err := p.MarshalYAML()
		if err != nil || v != want {
			t.Errorf("%d.MarshalYAML() = %v, %v", p, v, err)
		}
	}
}
