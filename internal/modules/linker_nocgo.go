//go:build !linux || !cgo

package modules

func linkerModules() ([]RuntimeModule, error) {
	return nil, ErrLinkerUnavailable
}
