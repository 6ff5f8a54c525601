package exporter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/VladMinzatu/memlayout/internal/layout"
	"github.com/VladMinzatu/memlayout/internal/modules"
	"github.com/VladMinzatu/memlayout/internal/procinfo"
	"github.com/VladMinzatu/memlayout/internal/procmaps"
	"github.com/dustin/go-humanize"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorGray   = "\x1b[90m"
)

type TextOptions struct {
	Color bool // ANSI-color the permission column
}

func WriteProcessHeader(w io.Writer, p procinfo.Process) error {
	_, err := fmt.Fprintf(w, "# pid %d (%s) %s\n", p.PID, p.Comm, p.Executable)
	return err
}

// WriteLayoutTable prints one aligned row per region. The colored column comes last so
// escape sequences never disturb alignment.
func WriteLayoutTable(w io.Writer, regions []layout.MemoryRegion, opts TextOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tSIZE\tPERMISSION")
	var total uint64
	for _, r := range regions {
		total += r.Size
		fmt.Fprintf(tw, "%#016x\t%#016x\t%s\t%s\n", r.Address, r.End(), humanize.IBytes(r.Size), permissionCell(r.Permission, opts))
	}
	fmt.Fprintf(tw, "\t\t%s\t%d regions\n", humanize.IBytes(total), len(regions))
	return tw.Flush()
}

func WriteModuleTable(w io.Writer, mods []modules.RuntimeModule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOAD ADDRESS\tPATH")
	for _, m := range mods {
		fmt.Fprintf(tw, "%#016x\t%s\n", m.LoadAddress, m.Path)
	}
	return tw.Flush()
}

// WriteModule prints a single lookup result, or a not-found line for the sentinel.
func WriteModule(w io.Writer, name string, m modules.RuntimeModule) error {
	if m.IsZero() {
		_, err := fmt.Fprintf(w, "no module matching %q\n", name)
		return err
	}
	_, err := fmt.Fprintf(w, "%#016x %s\n", m.LoadAddress, m.Path)
	return err
}

func permissionCell(p procmaps.Permission, opts TextOptions) string {
	if !opts.Color {
		return p.String()
	}
	color := colorGray
	switch p {
	case procmaps.ReadWrite:
		color = colorGreen
	case procmaps.ReadExecute:
		color = colorYellow
	case procmaps.ReadWriteExecute:
		color = colorRed
	}
	return color + p.String() + colorReset
}
