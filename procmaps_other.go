//go:build !linux

package hotpatch

func readSelfMappings() ([]Mapping, error) {
	return nil, ErrPlatformUnsupported
}
