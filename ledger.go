package hotpatch

import (
	"errors"

	"go.uber.org/zap"
)

// DefaultCapacity is the number of recorded patches an Engine allows unless
// WithCapacity says otherwise.
const DefaultCapacity = 100

// Record holds the bytes that were at Addr before a patch was installed.
type Record struct {
	Addr     uintptr
	Original []byte
}

func (r Record) end() uintptr {
	return r.Addr + uintptr(len(r.Original))
}

// ledger is a bounded, append-only list of records that is consumed newest
// first when restoring.
type ledger struct {
	records  []Record
	capacity int
	store    byteStore
	write    func(addr uintptr, original []byte) error
	logger   *zap.Logger
}

func newLedger(capacity int, store byteStore, write func(uintptr, []byte) error, logger *zap.Logger) *ledger {
	return &ledger{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
		store:    store,
		write:    write,
		logger:   logger,
	}
}

func (l *ledger) len() int   { return len(l.records) }
func (l *ledger) cap() int   { return l.capacity }
func (l *ledger) full() bool { return len(l.records) >= l.capacity }

// covers reports whether [addr, addr+n) overlaps a recorded range.
func (l *ledger) covers(addr uintptr, n int) bool {
	end := addr + uintptr(n)
	for _, r := range l.records {
		if addr < r.end() && r.Addr < end {
			return true
		}
	}
	return false
}

// record saves a copy of original as the bytes found at addr and returns the
// record's index.
func (l *ledger) record(addr uintptr, original []byte) (int, error) {
	if l.full() {
		return 0, ErrLedgerFull
	}

	if err := l.store.beginMutate(); err != nil {
		return 0, err
	}

	buf, err := l.store.alloc(len(original))
	if err != nil {
		return 0, errors.Join(err, l.store.endMutate())
	}
	copy(buf, original)
	l.records = append(l.records, Record{Addr: addr, Original: buf})

	// The record is intact even if the store stays writable.
	if err := l.store.endMutate(); err != nil {
		l.logger.Warn("unable to seal patch ledger", zap.Error(err))
	}

	return len(l.records) - 1, nil
}

// snapshot returns copies of the records in the order they were made.
func (l *ledger) snapshot() []Record {
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = Record{Addr: r.Addr, Original: append([]byte(nil), r.Original...)}
	}
	return out
}

// restoreAll writes every record back, newest first, then empties the
// ledger. A record that fails to write is skipped; the errors are joined.
func (l *ledger) restoreAll() error {
	var errs []error
	for i := len(l.records) - 1; i >= 0; i-- {
		r := l.records[i]
		if err := l.write(r.Addr, r.Original); err != nil {
			errs = append(errs, err)
		}
	}

	if err := l.store.beginMutate(); err != nil {
		errs = append(errs, err)
	} else {
		for _, r := range l.records {
			l.store.free(r.Original)
		}
		if err := l.store.endMutate(); err != nil {
			errs = append(errs, err)
		}
	}

	clear(l.records)
	l.records = l.records[:0]

	return errors.Join(errs...)
}
