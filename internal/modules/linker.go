package modules

import "errors"

var ErrLinkerUnavailable = errors.New("dynamic linker iteration not supported in this build")

// LinkerSource asks the dynamic linker for its list of loaded objects instead of parsing the
// table. It only describes the calling process. Objects without an absolute path (the main
// executable, the vDSO) are left out.
type LinkerSource struct{}

func NewLinkerSource() *LinkerSource {
	return &LinkerSource{}
}

func (s *LinkerSource) Modules() ([]RuntimeModule, error) {
	return linkerModules()
}
