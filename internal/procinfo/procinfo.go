package procinfo

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/procfs"
)

// Process describes the process whose memory map is inspected.
type Process struct {
	PID        int      `yaml:"pid"`
	Comm       string   `yaml:"comm"`
	Executable string   `yaml:"executable,omitempty"`
	CmdLine    []string `yaml:"cmdline,omitempty"`
}

// Describe reads pid, comm, executable and command line from the proc filesystem.
// Executable and CmdLine are best effort; they need ptrace access for foreign processes.
func Describe(pid int) (Process, error) {
	return DescribeFrom(procfs.DefaultMountPoint, pid)
}

func DescribeFrom(mountPoint string, pid int) (Process, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return Process{}, fmt.Errorf("opening procfs at %s: %w", mountPoint, err)
	}
	proc, err := fs.Proc(pid)
	if err != nil {
		return Process{}, fmt.Errorf("process %d: %w", pid, err)
	}
	comm, err := proc.Comm()
	if err != nil {
		return Process{}, fmt.Errorf("reading comm of %d: %w", pid, err)
	}

	p := Process{PID: pid, Comm: comm}
	if exe, err := proc.Executable(); err == nil {
		p.Executable = exe
	} else {
		slog.Debug("Executable path not available", "pid", pid, "error", err)
	}
	if cmdline, err := proc.CmdLine(); err == nil {
		p.CmdLine = cmdline
	} else {
		slog.Debug("Command line not available", "pid", pid, "error", err)
	}
	return p, nil
}
