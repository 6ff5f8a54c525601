package modules

import (
	"bytes"
	"debug/elf"
	"log/slog"

	"github.com/VladMinzatu/memlayout/internal/procmaps"
)

// MapsSource derives modules from the memory-map table: a region starts a module when it is
// mapped r--p or r-xp and its first bytes carry the ELF magic.
type MapsSource struct {
	maps   procmaps.Source
	memory MemoryReader
}

func NewMapsSource(maps procmaps.Source, memory MemoryReader) *MapsSource {
	return &MapsSource{maps: maps, memory: memory}
}

func (s *MapsSource) Modules() ([]RuntimeModule, error) {
	rc, err := s.maps.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var modules []RuntimeModule
	err = procmaps.ReadEntries(rc, func(e procmaps.Entry) error {
		if !isHeaderSegment(e.Perms) {
			return nil
		}
		if !s.hasELFMagic(e.Start) {
			return nil
		}
		m := RuntimeModule{Path: truncatePath(e.Path), LoadAddress: uintptr(e.Start)}
		slog.Debug("Found module", "path", m.Path, "load_address", e.Start)
		modules = append(modules, m)
		return nil
	})
	return modules, err
}

// Header segments are mapped read-only or read-execute, private, never writable.
func isHeaderSegment(perms string) bool {
	return perms == "r--p" || perms == "r-xp"
}

func (s *MapsSource) hasELFMagic(addr uint64) bool {
	header, err := s.memory.Read(addr, len(elf.ELFMAG))
	if err != nil {
		slog.Debug("Skipping unreadable region", "address", addr, "error", err)
		return false
	}
	return bytes.Equal(header, []byte(elf.ELFMAG))
}
