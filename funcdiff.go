package hotpatch

import (
	"errors"
	"fmt"
	"reflect"
)

type funcDifferences struct {
	In  []*argDifference
	Out []*argDifference
}

func (d *funcDifferences) err() error {
	errs := []error{}
	for i, arg := range d.In {
		if arg != nil {
			errs = append(errs, fmt.Errorf("argument %d: %v != %v", i, arg.A, arg.B))
		}
	}
	for i, out := range d.Out {
		if out != nil {
			errs = append(errs, fmt.Errorf("output %d: %v != %v", i, out.A, out.B))
		}
	}

	return errors.Join(errs...)
}

// argDifference is a mismatched argument or result. A nil type means the
// function has no value at that position.
type argDifference struct {
	A reflect.Type
	B reflect.Type
}

func diffFuncs(a, b reflect.Type) *funcDifferences {
	return &funcDifferences{
		In:  diffTypes(a.NumIn(), b.NumIn(), a.In, b.In),
		Out: diffTypes(a.NumOut(), b.NumOut(), a.Out, b.Out),
	}
}

func diffTypes(na, nb int, at, bt func(int) reflect.Type) []*argDifference {
	diffs := make([]*argDifference, max(na, nb))
	for i := range diffs {
		var ta, tb reflect.Type
		if i < na {
			ta = at(i)
		}
		if i < nb {
			tb = bt(i)
		}
		if ta != tb {
			diffs[i] = &argDifference{A: ta, B: tb}
		}
	}
	return diffs
}
