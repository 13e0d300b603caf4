package hotpatch

import "os"

func readSelfMappings() ([]Mapping, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseMappings(f)
}
