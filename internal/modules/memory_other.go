//go:build !linux

package modules

// NewProcessMemory falls back to /proc/<pid>/mem where process_vm_readv does not exist.
func NewProcessMemory(pid int) MemoryReader {
	return newProcMem(pid)
}
