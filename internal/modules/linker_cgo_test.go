//go:build linux && cgo

package modules

import (
	"strings"
	"testing"
)

func TestLinkerSource_AbsolutePathsOnly(t *testing.T) {
	mods, err := NewLinkerSource().Modules()
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	for _, m := range mods {
		if !strings.HasPrefix(m.Path, "/") {
			t.Errorf("linker module %q is not an absolute path", m.Path)
		}
		if len(m.Path) > MaxPathLength-1 {
			t.Errorf("linker module path longer than %d bytes", MaxPathLength-1)
		}
	}
}
