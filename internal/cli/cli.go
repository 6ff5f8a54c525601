// Package cli wires the enumerators and exporters into the memlayout command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/VladMinzatu/memlayout/internal/exporter"
	"github.com/VladMinzatu/memlayout/internal/layout"
	"github.com/VladMinzatu/memlayout/internal/modules"
	"github.com/VladMinzatu/memlayout/internal/pprof"
	"github.com/VladMinzatu/memlayout/internal/procinfo"
	"github.com/VladMinzatu/memlayout/internal/procmaps"
	"github.com/VladMinzatu/memlayout/processruntime"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

const (
	formatText  = "text"
	formatYAML  = "yaml"
	formatPprof = "pprof"
	formatOTLP  = "otlp"

	sourceMaps   = "maps"
	sourceLinker = "linker"
)

var (
	ErrMalformedTable = errors.New("memory map table could not be enumerated")
	ErrTerminalOutput = errors.New("refusing to write binary output to a terminal")
)

type options struct {
	pid        int
	mapsPath   string
	source     string
	format     string
	output     string
	verbose    bool
	noColor    bool
	profileDir string
}

type app struct {
	opts     options
	stdout   io.Writer
	stderr   io.Writer
	now      func() time.Time
	fatal    error
	profiler interface{ Stop() }
}

// NewRootCommand builds the command tree. Output goes to stdout unless --output names a file.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, now: time.Now}

	root := &cobra.Command{
		Use:           "memlayout",
		Short:         "Inspect the memory layout and loaded modules of a Linux process",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.IntVar(&a.opts.pid, "pid", os.Getpid(), "process to inspect")
	flags.StringVar(&a.opts.mapsPath, "maps", "", "read the memory map table from `FILE` instead of procfs")
	flags.StringVar(&a.opts.source, "source", sourceMaps, "module enumeration strategy: maps or linker")
	flags.StringVarP(&a.opts.format, "format", "f", formatText, "output format: text, yaml, pprof or otlp")
	flags.StringVarP(&a.opts.output, "output", "o", "", "write output to `FILE` instead of stdout")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.opts.noColor, "no-color", false, "disable colored text output")
	flags.StringVar(&a.opts.profileDir, "profile-dir", "", "write a CPU profile of memlayout itself to `DIR`")

	root.AddCommand(
		&cobra.Command{
			Use:   "layout",
			Short: "List every mapped region sorted by address",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runLayout()
			},
		},
		&cobra.Command{
			Use:   "modules",
			Short: "List the loaded modules in table order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runModules()
			},
		},
		&cobra.Command{
			Use:   "module NAME",
			Short: "Find the first loaded module whose path contains NAME",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runModule(args[0])
			},
		},
	)
	return root
}

func (a *app) setup() error {
	level := slog.LevelInfo
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})))

	switch a.opts.format {
	case formatText, formatYAML, formatPprof, formatOTLP:
	default:
		return fmt.Errorf("unknown format %q", a.opts.format)
	}
	switch a.opts.source {
	case sourceMaps:
	case sourceLinker:
		if a.opts.pid != os.Getpid() {
			return fmt.Errorf("--source %s only inspects the memlayout process itself", sourceLinker)
		}
	default:
		return fmt.Errorf("unknown module source %q", a.opts.source)
	}

	if a.opts.profileDir != "" {
		a.profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(a.opts.profileDir), profile.Quiet, profile.NoShutdownHook)
	}
	return nil
}

func (a *app) teardown() {
	if a.profiler != nil {
		a.profiler.Stop()
	}
}

func (a *app) runtime() *processruntime.Runtime {
	opts := []processruntime.Option{
		processruntime.WithPID(a.opts.pid),
		processruntime.WithFatalHandler(a.onFatal),
	}
	if a.opts.mapsPath != "" {
		opts = append(opts, processruntime.WithMapsSource(procmaps.NewFileSource(a.opts.mapsPath)))
	}
	if a.opts.source == sourceLinker {
		opts = append(opts, processruntime.WithLinkerModules())
	}
	return processruntime.New(opts...)
}

// onFatal keeps the first malformed or failed-read error; the command fails before writing anything.
func (a *app) onFatal(err error) {
	slog.Debug("Memory map table parse failed", "error", err)
	if a.fatal == nil {
		a.fatal = err
	}
}

func (a *app) checkFatal() error {
	if a.fatal != nil {
		return fmt.Errorf("%w: %w", ErrMalformedTable, a.fatal)
	}
	return nil
}

func (a *app) describe() procinfo.Process {
	p, err := procinfo.Describe(a.opts.pid)
	if err != nil {
		slog.Warn("Failed to describe process", "pid", a.opts.pid, "error", err)
		return procinfo.Process{PID: a.opts.pid}
	}
	return p
}

func (a *app) runLayout() error {
	rt := a.runtime()
	regions := rt.GetProcessMemoryLayout()
	var mods []modules.RuntimeModule
	if a.opts.format == formatPprof || a.opts.format == formatOTLP {
		mods = rt.GetProcessModuleMap()
	}
	if err := a.checkFatal(); err != nil {
		return err
	}
	slog.Debug("Enumerated memory layout", "pid", a.opts.pid, "regions", len(regions))

	return a.write(func(w io.Writer, color bool) error {
		switch a.opts.format {
		case formatText:
			if err := exporter.WriteProcessHeader(w, a.describe()); err != nil {
				return err
			}
			return exporter.WriteLayoutTable(w, regions, exporter.TextOptions{Color: color})
		case formatYAML:
			return exporter.WriteYAML(w, exporter.NewDocument(a.describe(), regions, nil))
		}
		return a.writeProfile(w, mods, regions)
	})
}

func (a *app) runModules() error {
	rt := a.runtime()
	mods := rt.GetProcessModuleMap()
	var regions []layout.MemoryRegion
	if a.opts.format == formatPprof || a.opts.format == formatOTLP {
		regions = rt.GetProcessMemoryLayout()
	}
	if err := a.checkFatal(); err != nil {
		return err
	}
	slog.Debug("Enumerated modules", "pid", a.opts.pid, "modules", len(mods))

	return a.write(func(w io.Writer, color bool) error {
		switch a.opts.format {
		case formatText:
			if err := exporter.WriteProcessHeader(w, a.describe()); err != nil {
				return err
			}
			return exporter.WriteModuleTable(w, mods)
		case formatYAML:
			return exporter.WriteYAML(w, exporter.NewDocument(a.describe(), nil, mods))
		}
		return a.writeProfile(w, mods, regions)
	})
}

func (a *app) runModule(name string) error {
	if a.opts.format != formatText && a.opts.format != formatYAML {
		return fmt.Errorf("format %q is not supported for a single module", a.opts.format)
	}
	m := a.runtime().GetProcessModule(name)
	if err := a.checkFatal(); err != nil {
		return err
	}

	return a.write(func(w io.Writer, color bool) error {
		if a.opts.format == formatYAML {
			var mods []modules.RuntimeModule
			if !m.IsZero() {
				mods = append(mods, m)
			}
			return exporter.WriteYAML(w, exporter.NewDocument(a.describe(), nil, mods))
		}
		return exporter.WriteModule(w, name, m)
	})
}

func (a *app) writeProfile(w io.Writer, mods []modules.RuntimeModule, regions []layout.MemoryRegion) error {
	if a.opts.format == formatPprof {
		return pprof.WriteProfile(pprof.BuildPprofProfile(mods, regions, a.now()), w)
	}
	now := func() uint64 { return uint64(a.now().UnixNano()) }
	data := exporter.BuildOltpProfile(mods, regions, a.describe(), now)
	return exporter.WriteProto(exporter.BuildExportRequest(data), w)
}

// write resolves the destination and hands it to fn, together with whether text may be colored.
func (a *app) write(fn func(w io.Writer, color bool) error) error {
	binary := a.opts.format == formatPprof || a.opts.format == formatOTLP

	if a.opts.output != "" && a.opts.output != "-" {
		f, err := os.Create(a.opts.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		if err := fn(f, false); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	f, ok := a.stdout.(*os.File)
	if !ok || !isTerminal(f) {
		return fn(a.stdout, false)
	}
	if binary {
		return ErrTerminalOutput
	}
	color := a.opts.format == formatText && !a.opts.noColor
	return fn(colorable.NewColorable(f), color)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
