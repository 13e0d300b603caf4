package hotpatch

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Mapping is one line of /proc/PID/maps.
type Mapping struct {
	Start, End uintptr
	Read       bool
	Write      bool
	Exec       bool
	Shared     bool
	Offset     uint64
	Path       string
}

// mapsLine matches a single line from /proc/PID/maps.
var mapsLine = regexp.MustCompile(`^([0-9a-f]+)-([0-9a-f]+) ([r-][w-][x-][sp]) ([0-9a-f]+) [0-9a-f]+:[0-9a-f]+ [0-9]+\s*(.*)$`)

// ParseMappings reads a maps file in the format of /proc/PID/maps.
func ParseMappings(r io.Reader) ([]Mapping, error) {
	var maps []Mapping

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		m := mapsLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("badly formed line: %q", line)
		}
		start, err := strconv.ParseUint(m[1], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("bad start address: %q", line)
		}
		end, err := strconv.ParseUint(m[2], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("bad end address: %q", line)
		}
		offset, err := strconv.ParseUint(m[4], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("bad offset: %q", line)
		}

		maps = append(maps, Mapping{
			Start:  uintptr(start),
			End:    uintptr(end),
			Read:   m[3][0] == 'r',
			Write:  m[3][1] == 'w',
			Exec:   m[3][2] == 'x',
			Shared: m[3][3] == 's',
			Offset: offset,
			Path:   strings.TrimSpace(m[5]),
		})
	}

	return maps, scanner.Err()
}

// FindExecutable returns the first executable mapping whose path contains
// name.
func FindExecutable(maps []Mapping, name string) (Mapping, bool) {
	for _, m := range maps {
		if m.Exec && strings.Contains(m.Path, name) {
			return m, true
		}
	}
	return Mapping{}, false
}
