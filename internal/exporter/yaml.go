package exporter

import (
	"fmt"
	"io"

	"github.com/VladMinzatu/memlayout/internal/layout"
	"github.com/VladMinzatu/memlayout/internal/modules"
	"github.com/VladMinzatu/memlayout/internal/procinfo"
	"github.com/VladMinzatu/memlayout/internal/procmaps"
	"gopkg.in/yaml.v2"
)

type Document struct {
	Process procinfo.Process `yaml:"process"`
	Regions []regionView     `yaml:"regions,omitempty"`
	Modules []moduleView     `yaml:"modules,omitempty"`
}

type regionView struct {
	Start      string              `yaml:"start"`
	End        string              `yaml:"end"`
	Size       uint64              `yaml:"size"`
	Permission procmaps.Permission `yaml:"permission"`
}

type moduleView struct {
	Path        string `yaml:"path"`
	LoadAddress string `yaml:"load_address"`
}

func NewDocument(p procinfo.Process, regions []layout.MemoryRegion, mods []modules.RuntimeModule) Document {
	d := Document{Process: p}
	for _, r := range regions {
		d.Regions = append(d.Regions, regionView{
			Start:      hex(r.Address),
			End:        hex(r.End()),
			Size:       r.Size,
			Permission: r.Permission,
		})
	}
	for _, m := range mods {
		d.Modules = append(d.Modules, moduleView{Path: m.Path, LoadAddress: hex(m.LoadAddress)})
	}
	return d
}

func WriteYAML(w io.Writer, d Document) error {
	b, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func hex(addr uintptr) string { return fmt.Sprintf("%#x", addr) }
