package hotpatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaps = `00400000-00401000 r--p 00000000 fd:01 1316                               /usr/bin/server
00401000-00523000 r-xp 00001000 fd:01 1316                               /usr/bin/server
7f3a1c000000-7f3a1c021000 rw-p 00000000 00:00 0 
7f3a1d200000-7f3a1d201000 r--p 00000000 fd:01 2201                       /tmp/patch_v3.so
7f3a1d201000-7f3a1d240000 r-xp 00001000 fd:01 2201                       /tmp/patch_v3.so
7ffd5e9f0000-7ffd5ea11000 rw-s 00000000 00:05 12                         /dev/zero (deleted)
7ffd5ebf7000-7ffd5ebf9000 r-xp 00000000 00:00 0                          [vdso]
`

func TestParseMappings(t *testing.T) {
	assert := assert.New(t)

	maps, err := ParseMappings(strings.NewReader(sampleMaps))
	require.NoError(t, err)
	require.Len(t, maps, 7)

	assert.Equal(Mapping{
		Start:  0x401000,
		End:    0x523000,
		Read:   true,
		Exec:   true,
		Offset: 0x1000,
		Path:   "/usr/bin/server",
	}, maps[1])

	assert.Equal("", maps[2].Path)
	assert.True(maps[2].Write)
	assert.False(maps[2].Exec)

	assert.True(maps[5].Shared)
	assert.Equal("/dev/zero (deleted)", maps[5].Path)

	assert.Equal("[vdso]", maps[6].Path)
}

func TestParseMappingsBadLine(t *testing.T) {
	_, err := ParseMappings(strings.NewReader("not a maps line\n"))
	assert.Error(t, err)
}

func TestFindExecutable(t *testing.T) {
	maps, err := ParseMappings(strings.NewReader(sampleMaps))
	require.NoError(t, err)

	m, ok := FindExecutable(maps, "patch_v3.so")
	if assert.True(t, ok) {
		assert.Equal(t, uint64(0x7f3a1d201000), uint64(m.Start))
	}

	m, ok = FindExecutable(maps, "server")
	if assert.True(t, ok) {
		assert.Equal(t, uintptr(0x401000), m.Start)
	}

	_, ok = FindExecutable(maps, "libmissing.so")
	assert.False(t, ok)
}
