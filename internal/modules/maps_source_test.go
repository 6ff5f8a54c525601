package modules

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/VladMinzatu/memlayout/internal/procmaps"
)

type mockMaps struct {
	table string
	err   error
}

func (m *mockMaps) Open() (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(strings.NewReader(m.table)), nil
}

// mockMemory serves header bytes per address; anything else reads as unmapped.
type mockMemory struct {
	mem   map[uint64][]byte
	reads []uint64
}

func (m *mockMemory) Read(addr uint64, size int) ([]byte, error) {
	m.reads = append(m.reads, addr)
	b, ok := m.mem[addr]
	if !ok || len(b) < size {
		return nil, errors.New("bad address")
	}
	return b[:size], nil
}

var (
	elfHeader = []byte("\x7fELF\x02\x01\x01")
	notELF    = []byte("\x00\x00\x00\x00")
)

func TestMapsSource_Modules(t *testing.T) {
	table := "" +
		"55d4b2000000-55d4b2021000 r--p 00000000 08:01 131073 /usr/bin/myprog\n" +
		"55d4b2021000-55d4b2090000 r-xp 00021000 08:01 131073 /usr/bin/myprog\n" +
		"55d4b2200000-55d4b2221000 rw-p 00000000 00:00 0      [heap]\n" +
		"7f8a9b000000-7f8a9b002000 r-xp 00000000 08:01 131074 /usr/lib/libc.so.6\n" +
		"7f8a9b100000-7f8a9b102000 r--s 00000000 08:01 131075 /usr/lib/libshared.so\n" +
		"7f8a9b200000-7f8a9b202000 rwxp 00000000 08:01 131076 /usr/lib/libjit.so\n" +
		"7f8a9b300000-7f8a9b302000 r--p 00000000 08:01 131077 /usr/share/locale/data\n" +
		"7f8a9b400000-7f8a9b402000 r--p 00000000 00:00 0\n"
	mem := &mockMemory{mem: map[uint64][]byte{
		0x55d4b2000000: elfHeader,
		0x55d4b2021000: notELF,
		0x55d4b2200000: elfHeader,
		0x7f8a9b000000: elfHeader,
		0x7f8a9b100000: elfHeader,
		0x7f8a9b200000: elfHeader,
		0x7f8a9b300000: notELF,
		// 0x7f8a9b400000 deliberately unreadable
	}}

	got, err := NewMapsSource(&mockMaps{table: table}, mem).Modules()
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	want := []RuntimeModule{
		{Path: "/usr/bin/myprog", LoadAddress: 0x55d4b2000000},
		{Path: "/usr/lib/libc.so.6", LoadAddress: 0x7f8a9b000000},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Modules() = %+v, want %+v", got, want)
	}

	for _, addr := range mem.reads {
		switch addr {
		case 0x55d4b2200000, 0x7f8a9b100000, 0x7f8a9b200000:
			t.Errorf("header read at %#x despite excluded permissions", addr)
		}
	}
}

func TestMapsSource_KeepsTableOrderAndDuplicates(t *testing.T) {
	table := "" +
		"7f0000200000-7f0000201000 r--p 00000000 08:01 2 /lib/libb.so\n" +
		"7f0000100000-7f0000101000 r--p 00000000 08:01 1 /lib/liba.so\n" +
		"7f0000101000-7f0000102000 r-xp 00001000 08:01 1 /lib/liba.so\n"
	mem := &mockMemory{mem: map[uint64][]byte{
		0x7f0000200000: elfHeader,
		0x7f0000100000: elfHeader,
		0x7f0000101000: elfHeader,
	}}

	got, err := NewMapsSource(&mockMaps{table: table}, mem).Modules()
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	want := []RuntimeModule{
		{Path: "/lib/libb.so", LoadAddress: 0x7f0000200000},
		{Path: "/lib/liba.so", LoadAddress: 0x7f0000100000},
		{Path: "/lib/liba.so", LoadAddress: 0x7f0000101000},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Modules() = %+v, want %+v", got, want)
	}
}

func TestMapsSource_TruncatesLongPaths(t *testing.T) {
	path := "/" + strings.Repeat("d", 1500) + "/libx.so"
	line := "7f0000100000-7f0000101000 r--p 00000000 08:01 1 " + path + "\n"
	mem := &mockMemory{mem: map[uint64][]byte{0x7f0000100000: elfHeader}}

	got, err := NewMapsSource(&mockMaps{table: line}, mem).Modules()
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d modules, want 1", len(got))
	}
	if len(got[0].Path) != MaxPathLength-1 {
		t.Fatalf("path length = %d, want %d", len(got[0].Path), MaxPathLength-1)
	}
	if !strings.HasPrefix(path, got[0].Path) {
		t.Fatalf("truncated path is not a prefix of the original")
	}
}

func TestMapsSource_MalformedLine(t *testing.T) {
	table := "" +
		"7f0000100000-7f0000101000 r--p 00000000 08:01 1 /lib/liba.so\n" +
		"garbage\n" +
		"7f0000200000-7f0000201000 r--p 00000000 08:01 2 /lib/libb.so\n"
	mem := &mockMemory{mem: map[uint64][]byte{
		0x7f0000100000: elfHeader,
		0x7f0000200000: elfHeader,
	}}

	got, err := NewMapsSource(&mockMaps{table: table}, mem).Modules()
	if !errors.Is(err, procmaps.ErrMalformedEntry) {
		t.Fatalf("expected ErrMalformedEntry, got %v", err)
	}
	if len(got) != 1 || got[0].Path != "/lib/liba.so" {
		t.Fatalf("unexpected partial result %+v", got)
	}
}

func TestMapsSource_Unavailable(t *testing.T) {
	_, err := NewMapsSource(&mockMaps{err: procmaps.ErrUnavailable}, &mockMemory{}).Modules()
	if !errors.Is(err, procmaps.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
