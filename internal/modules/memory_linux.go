package modules

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sys/unix"
)

// processMemory reads with process_vm_readv. Unmapped addresses fail with EFAULT instead of
// faulting the caller.
type processMemory struct {
	pid      int
	fallback *procMem
}

// NewProcessMemory reads memory of pid. When process_vm_readv is unavailable it falls back
// to /proc/<pid>/mem.
func NewProcessMemory(pid int) MemoryReader {
	return &processMemory{pid: pid, fallback: newProcMem(pid)}
}

func (m *processMemory) Read(addr uint64, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, size)
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(size)
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: size}}

	n, err := unix.ProcessVMReadv(m.pid, local, remote, 0)
	if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EPERM) {
		slog.Debug("process_vm_readv unavailable, using proc mem", "pid", m.pid, "error", err)
		return m.fallback.Read(addr, size)
	}
	if err != nil {
		return nil, fmt.Errorf("process_vm_readv pid=%d addr=%#x: %w", m.pid, addr, err)
	}
	if n != size {
		return nil, fmt.Errorf("process_vm_readv pid=%d addr=%#x: %w", m.pid, addr, io.ErrUnexpectedEOF)
	}
	return buf, nil
}
