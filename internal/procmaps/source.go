package procmaps

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrUnavailable is returned when the memory-map table cannot be opened.
var ErrUnavailable = errors.New("memory map table unavailable")

// Source opens a fresh memory-map table stream. Each enumeration opens its own stream.
type Source interface {
	Open() (io.ReadCloser, error)
}

type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// NewSelfMapsSource reads the calling process's own table.
func NewSelfMapsSource() *FileSource {
	return &FileSource{Path: "/proc/self/maps"}
}

func NewProcMapsSource(pid int) *FileSource {
	return &FileSource{Path: fmt.Sprintf("/proc/%d/maps", pid)}
}

func (f *FileSource) Open() (io.ReadCloser, error) {
	slog.Debug("Opening memory map table", "path", f.Path)
	r, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return r, nil
}
