package pprof

import (
	"io"
	"time"

	"github.com/VladMinzatu/memlayout/internal/layout"
	"github.com/VladMinzatu/memlayout/internal/modules"
	"github.com/google/pprof/profile"
)

// BuildPprofProfile describes the module map as a sample-less pprof profile. Every module
// becomes a Mapping; its limit is the end of the layout region starting at the load address.
// Modules mapped with several header segments keep one mapping per segment.
func BuildPprofProfile(mods []modules.RuntimeModule, regions []layout.MemoryRegion, now time.Time) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "regions", Unit: "bytes"}},
		TimeNanos:  now.UnixNano(),
	}

	for i, m := range mods {
		start := uint64(m.LoadAddress)
		limit := start
		if r, ok := layout.Find(regions, m.LoadAddress); ok {
			limit = uint64(r.End())
		}
		p.Mapping = append(p.Mapping, &profile.Mapping{
			ID:    uint64(i + 1),
			Start: start,
			Limit: limit,
			File:  m.Path,
		})
	}
	return p
}

// WriteProfile writes the gzip-compressed protobuf encoding of p.
func WriteProfile(p *profile.Profile, w io.Writer) error {
	return p.Write(w)
}
