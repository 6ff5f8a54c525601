// Package processruntime enumerates the memory layout and loaded modules of a Linux process.
//
// Every call re-opens and re-parses the memory-map table, so results reflect the process at
// call time. Nothing is cached between calls.
package processruntime

import (
	"log/slog"
	"os"

	"github.com/VladMinzatu/memlayout/internal/layout"
	"github.com/VladMinzatu/memlayout/internal/modules"
	"github.com/VladMinzatu/memlayout/internal/procmaps"
)

type (
	MemoryRegion    = layout.MemoryRegion
	RuntimeModule   = modules.RuntimeModule
	Permission      = procmaps.Permission
	ModuleMapSource = modules.ModuleMapSource
	MemoryReader    = modules.MemoryReader
	MapsSource      = procmaps.Source
	FatalFunc       = procmaps.FatalFunc
)

const (
	NoAccess         = procmaps.NoAccess
	ReadWrite        = procmaps.ReadWrite
	ReadExecute      = procmaps.ReadExecute
	ReadWriteExecute = procmaps.ReadWriteExecute
)

const MaxPathLength = modules.MaxPathLength

type Runtime struct {
	layout  *layout.Enumerator
	modules *modules.Enumerator
}

type config struct {
	pid     int
	maps    procmaps.Source
	memory  modules.MemoryReader
	source  modules.ModuleMapSource
	linker  bool
	onFatal procmaps.FatalFunc
}

type Option func(*config)

// WithPID inspects another process instead of the caller.
func WithPID(pid int) Option {
	return func(c *config) { c.pid = pid }
}

// WithMapsSource replaces the memory-map table, e.g. with a captured file.
func WithMapsSource(s procmaps.Source) Option {
	return func(c *config) { c.maps = s }
}

// WithMemoryReader replaces the reader used for the ELF magic check.
func WithMemoryReader(r modules.MemoryReader) Option {
	return func(c *config) { c.memory = r }
}

// WithModuleMapSource replaces the module enumeration strategy.
func WithModuleMapSource(s modules.ModuleMapSource) Option {
	return func(c *config) { c.source = s }
}

// WithLinkerModules enumerates modules through the dynamic linker of the calling process.
// It is ignored when WithPID selects another process.
func WithLinkerModules() Option {
	return func(c *config) { c.linker = true }
}

func WithFatalHandler(f procmaps.FatalFunc) Option {
	return func(c *config) { c.onFatal = f }
}

func New(opts ...Option) *Runtime {
	c := &config{pid: os.Getpid(), onFatal: procmaps.LogFatal}
	for _, opt := range opts {
		opt(c)
	}
	if c.maps == nil {
		if c.pid == os.Getpid() {
			c.maps = procmaps.NewSelfMapsSource()
		} else {
			c.maps = procmaps.NewProcMapsSource(c.pid)
		}
	}
	if c.memory == nil {
		c.memory = modules.NewProcessMemory(c.pid)
	}
	if c.linker && c.pid != os.Getpid() {
		slog.Warn("Linker module enumeration only describes the calling process, using the memory map table", "pid", c.pid)
		c.linker = false
	}
	if c.source == nil {
		if c.linker {
			c.source = modules.NewLinkerSource()
		} else {
			c.source = modules.NewMapsSource(c.maps, c.memory)
		}
	}
	return &Runtime{
		layout:  layout.NewEnumerator(c.maps, c.onFatal),
		modules: modules.NewEnumerator(c.source, c.onFatal),
	}
}

// GetProcessMemoryLayout returns every mapped region sorted by ascending address.
// An empty or short list means the table was unreadable or malformed.
func (r *Runtime) GetProcessMemoryLayout() []MemoryRegion {
	return r.layout.MemoryLayout()
}

// GetProcessModuleMap returns the loaded modules in table order, one entry per header segment.
func (r *Runtime) GetProcessModuleMap() []RuntimeModule {
	return r.modules.ModuleMap()
}

// GetProcessModule returns the first module whose path contains name, or the zero sentinel.
func (r *Runtime) GetProcessModule(name string) RuntimeModule {
	return r.modules.Module(name)
}

func GetProcessMemoryLayout() []MemoryRegion {
	return New().GetProcessMemoryLayout()
}

func GetProcessModuleMap() []RuntimeModule {
	return New().GetProcessModuleMap()
}

func GetProcessModule(name string) RuntimeModule {
	return New().GetProcessModule(name)
}
