//go:build !amd64

package hotpatch

func hostTrampoline() Trampoline {
	return nil
}
