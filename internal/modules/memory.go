package modules

import (
	"fmt"
	"io"
	"math"
	"os"
)

// MemoryReader reads raw bytes at an address of the inspected process.
type MemoryReader interface {
	Read(addr uint64, size int) ([]byte, error)
}

// NewSelfMemory reads the calling process's own memory.
func NewSelfMemory() MemoryReader {
	return NewProcessMemory(os.Getpid())
}

// procMem reads through /proc/<pid>/mem, which reports unmapped ranges as I/O errors.
type procMem struct {
	path string
}

func newProcMem(pid int) *procMem {
	return &procMem{path: fmt.Sprintf("/proc/%d/mem", pid)}
}

func (m *procMem) Read(addr uint64, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	if addr > math.MaxInt64 {
		return nil, fmt.Errorf("address %#x not addressable through %s", addr, m.path)
	}
	f, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, size)
	n, err := f.ReadAt(buf, int64(addr))
	if n == size {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read %d bytes at %#x: %w", size, addr, err)
}
