package pprof

import (
	"bytes"
	"testing"
	"time"

	"github.com/VladMinzatu/memlayout/internal/layout"
	"github.com/VladMinzatu/memlayout/internal/modules"
	"github.com/VladMinzatu/memlayout/internal/procmaps"
	"github.com/google/pprof/profile"
)

var (
	testRegions = []layout.MemoryRegion{
		{Address: 0x400000, Size: 0x1000, Permission: procmaps.ReadExecute},
		{Address: 0x7f0000000000, Size: 0x2000, Permission: procmaps.NoAccess},
	}
	testModules = []modules.RuntimeModule{
		{Path: "/usr/bin/myprog", LoadAddress: 0x400000},
		{Path: "/usr/lib/libc.so.6", LoadAddress: 0x7f0000000000},
		{Path: "/usr/lib/libgone.so", LoadAddress: 0x7f1000000000},
	}
)

func findMappingByFile(p *profile.Profile, file string) *profile.Mapping {
	for _, m := range p.Mapping {
		if m.File == file {
			return m
		}
	}
	return nil
}

func TestBuildPprofProfile_Empty(t *testing.T) {
	p := BuildPprofProfile(nil, nil, time.Unix(1, 0))
	if p == nil {
		t.Fatalf("expected non-nil profile")
	}
	if len(p.Mapping) != 0 || len(p.Sample) != 0 {
		t.Fatalf("expected empty profile, got %d mappings and %d samples", len(p.Mapping), len(p.Sample))
	}
}

func TestBuildPprofProfile_Mappings(t *testing.T) {
	now := time.Unix(100, 5)
	p := BuildPprofProfile(testModules, testRegions, now)

	if len(p.Mapping) != 3 {
		t.Fatalf("expected 3 mappings, got %d", len(p.Mapping))
	}
	for i, m := range p.Mapping {
		if m.ID != uint64(i+1) {
			t.Fatalf("mapping %d has ID %d", i, m.ID)
		}
	}

	prog := findMappingByFile(p, "/usr/bin/myprog")
	if prog == nil || prog.Start != 0x400000 || prog.Limit != 0x401000 {
		t.Fatalf("unexpected mapping for myprog: %+v", prog)
	}
	libc := findMappingByFile(p, "/usr/lib/libc.so.6")
	if libc == nil || libc.Limit != 0x7f0000002000 {
		t.Fatalf("unexpected mapping for libc: %+v", libc)
	}
	gone := findMappingByFile(p, "/usr/lib/libgone.so")
	if gone == nil || gone.Start != gone.Limit {
		t.Fatalf("module without region should have an empty range: %+v", gone)
	}
	if p.TimeNanos != now.UnixNano() {
		t.Fatalf("unexpected TimeNanos %d", p.TimeNanos)
	}
}

func TestWriteProfile_RoundTrip(t *testing.T) {
	p := BuildPprofProfile(testModules[:2], testRegions, time.Unix(100, 0))

	var buf bytes.Buffer
	if err := WriteProfile(p, &buf); err != nil {
		t.Fatalf("WriteProfile() error = %v", err)
	}
	parsed, err := profile.Parse(&buf)
	if err != nil {
		t.Fatalf("profile.Parse() error = %v", err)
	}
	if len(parsed.Mapping) != 2 {
		t.Fatalf("expected 2 mappings after parse, got %d", len(parsed.Mapping))
	}
	if parsed.Mapping[0].File != "/usr/bin/myprog" || parsed.Mapping[0].Limit != 0x401000 {
		t.Fatalf("unexpected first mapping %+v", parsed.Mapping[0])
	}
}
