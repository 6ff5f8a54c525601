package modules

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/VladMinzatu/memlayout/internal/procmaps"
)

// MaxPathLength is the size of a module path buffer including its terminator, so paths keep
// at most MaxPathLength-1 bytes.
const MaxPathLength = 1024

// RuntimeModule is the first header-carrying segment of a loaded ELF image.
// The zero value is the "not found" sentinel.
type RuntimeModule struct {
	Path        string
	LoadAddress uintptr
}

func (m RuntimeModule) IsZero() bool { return m == RuntimeModule{} }

// ModuleMapSource produces the modules currently loaded in a process.
type ModuleMapSource interface {
	Modules() ([]RuntimeModule, error)
}

// Lookup returns the first module whose path contains name, or the zero sentinel.
func Lookup(modules []RuntimeModule, name string) RuntimeModule {
	if name == "" {
		return RuntimeModule{}
	}
	for _, m := range modules {
		if strings.Contains(m.Path, name) {
			return m
		}
	}
	return RuntimeModule{}
}

func truncatePath(path string) string {
	path = strings.TrimSuffix(path, "\n")
	if len(path) > MaxPathLength-1 {
		path = path[:MaxPathLength-1]
	}
	return path
}

type Enumerator struct {
	source  ModuleMapSource
	onFatal procmaps.FatalFunc
}

func NewEnumerator(source ModuleMapSource, onFatal procmaps.FatalFunc) *Enumerator {
	if onFatal == nil {
		onFatal = procmaps.LogFatal
	}
	return &Enumerator{source: source, onFatal: onFatal}
}

// ModuleMap lists loaded modules in source order. An unreadable table yields an empty list;
// a malformed line or a failed read raises the fatal diagnostic and yields the partial list,
// the same policy as layout.Enumerator.MemoryLayout.
func (e *Enumerator) ModuleMap() []RuntimeModule {
	modules, err := e.source.Modules()
	switch {
	case err == nil:
	case errors.Is(err, procmaps.ErrUnavailable):
		slog.Debug("Module map unavailable", "error", err)
		return []RuntimeModule{}
	case errors.Is(err, ErrLinkerUnavailable):
		slog.Warn("Module map unavailable", "error", err)
		return []RuntimeModule{}
	default:
		e.onFatal(err)
	}
	if modules == nil {
		modules = []RuntimeModule{}
	}
	return modules
}

func (e *Enumerator) Module(name string) RuntimeModule {
	return Lookup(e.ModuleMap(), name)
}
