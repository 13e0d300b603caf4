//go:build !(linux && amd64)

package hotpatch

const platformSupported = false
