package procmaps

type Permission uint8

const (
	NoAccess Permission = iota
	ReadWrite
	ReadExecute
	ReadWriteExecute
)

func (p Permission) String() string {
	switch p {
	case ReadWrite:
		return "ReadWrite"
	case ReadExecute:
		return "ReadExecute"
	case ReadWriteExecute:
		return "ReadWriteExecute"
	default:
		return "NoAccess"
	}
}

// MarshalYAML renders the permission by name.
func (p Permission) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// DecodePermission maps a four character flag string such as "r-xp" to a Permission.
// The read-execute branch is tested before the read-write-execute one, so "rwxp"
// decodes to ReadExecute and ReadWriteExecute is never produced from a real table.
func DecodePermission(perms string) Permission {
	if len(perms) < 3 {
		return NoAccess
	}
	r, w, x := perms[0] == 'r', perms[1] == 'w', perms[2] == 'x'
	switch {
	case r && w && !x:
		return ReadWrite
	case r && x:
		return ReadExecute
	case r && w && x:
		return ReadWriteExecute
	default:
		return NoAccess
	}
}
