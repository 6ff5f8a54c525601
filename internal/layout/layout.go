package layout

import (
	"errors"
	"io"
	"log/slog"
	"sort"

	"github.com/VladMinzatu/memlayout/internal/procmaps"
)

// MemoryRegion is one contiguous mapped range of the inspected process.
type MemoryRegion struct {
	Address    uintptr
	Size       uint64
	Permission procmaps.Permission
}

func (r MemoryRegion) End() uintptr { return r.Address + uintptr(r.Size) }

func (r MemoryRegion) Contains(addr uintptr) bool {
	return addr >= r.Address && addr < r.End()
}

// Parse converts every line of the table into a region and sorts the result by address.
// On a malformed line the regions decoded so far are returned together with the error.
func Parse(r io.Reader) ([]MemoryRegion, error) {
	var regions []MemoryRegion
	err := procmaps.ReadEntries(r, func(e procmaps.Entry) error {
		region := MemoryRegion{
			Address:    uintptr(e.Start),
			Size:       e.Size(),
			Permission: e.Permission(),
		}
		slog.Debug("Mapped region", "start", e.Start, "end", e.End, "perms", e.Perms)
		regions = append(regions, region)
		return nil
	})
	sort.SliceStable(regions, func(i, j int) bool { return regions[i].Address < regions[j].Address })
	return regions, err
}

type Enumerator struct {
	source  procmaps.Source
	onFatal procmaps.FatalFunc
}

func NewEnumerator(source procmaps.Source, onFatal procmaps.FatalFunc) *Enumerator {
	if onFatal == nil {
		onFatal = procmaps.LogFatal
	}
	return &Enumerator{source: source, onFatal: onFatal}
}

// Regions opens the table and parses it, reporting errors to the caller.
func (e *Enumerator) Regions() ([]MemoryRegion, error) {
	rc, err := e.source.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Parse(rc)
}

// MemoryLayout returns all mapped regions sorted by address. An unreadable table yields an
// empty list; a malformed line raises the fatal diagnostic and yields the partial list.
func (e *Enumerator) MemoryLayout() []MemoryRegion {
	regions, err := e.Regions()
	switch {
	case err == nil:
	case errors.Is(err, procmaps.ErrUnavailable):
		slog.Debug("Memory layout unavailable", "error", err)
		return []MemoryRegion{}
	default:
		e.onFatal(err)
	}
	if regions == nil {
		regions = []MemoryRegion{}
	}
	return regions
}

// Find returns the region containing addr.
func Find(regions []MemoryRegion, addr uintptr) (MemoryRegion, bool) {
	i := sort.Search(len(regions), func(i int) bool { return regions[i].End() > addr })
	if i < len(regions) && regions[i].Contains(addr) {
		return regions[i], true
	}
	return MemoryRegion{}, false
}
