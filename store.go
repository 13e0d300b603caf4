package hotpatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pboyd/malloc"
)

// byteStore holds the original bytes the ledger keeps. Stores may refuse
// writes between endMutate and beginMutate.
type byteStore interface {
	alloc(n int) ([]byte, error)
	free(buf []byte)
	beginMutate() error
	endMutate() error
}

// heapStore keeps records on the Go heap.
type heapStore struct{}

func (heapStore) alloc(n int) ([]byte, error) { return make([]byte, n), nil }
func (heapStore) free([]byte)                 {}
func (heapStore) beginMutate() error          { return nil }
func (heapStore) endMutate() error            { return nil }

// sealedStore keeps records in a separate mapping that is read-only except
// while the ledger changes, so a stray write elsewhere in the process can't
// corrupt the bytes needed to restore.
type sealedStore struct {
	*malloc.Arena
	mprotect func(int) error
	initOnce sync.Once
	initErr  error
	mutable  bool
}

func (s *sealedStore) init(startSize int) error {
	s.initOnce.Do(func() {
		// Pages are mapped read-write.
		be := malloc.MmapBackend()
		if protBE, ok := be.(malloc.ProtectedArenaBackend); ok {
			s.mprotect = protBE.Protect
		} else {
			s.mprotect = func(int) error {
				return nil
			}
		}

		s.Arena = malloc.NewArena(uint64(startSize), malloc.Backend(be))
		if s.Arena == nil {
			s.initErr = errors.New("unable to initialize arena")
			return
		}
		s.mutable = true
	})
	return s.initErr
}

func (s *sealedStore) beginMutate() error {
	// beginMutate can be called before the first allocation.
	if s.mprotect == nil || s.mutable {
		return nil
	}

	err := s.mprotect(protRW)
	if err == nil {
		s.mutable = true
	}
	return err
}

func (s *sealedStore) endMutate() error {
	if s.mprotect == nil || !s.mutable {
		return nil
	}

	err := s.mprotect(protR)
	if err == nil {
		s.mutable = false
	}
	return err
}

func (s *sealedStore) alloc(n int) ([]byte, error) {
	err := s.init(n)
	if err != nil {
		return nil, fmt.Errorf("error initializing ledger store: %w", err)
	}

	if !s.mutable {
		panic("alloc called on sealed store")
	}

	return malloc.MallocSlice[byte](s.Arena, n)
}

func (s *sealedStore) free(buf []byte) {
	if s.Arena == nil {
		return
	}
	if !s.mutable {
		panic("free called on sealed store")
	}

	malloc.FreeSlice(s.Arena, buf)
}
