package udf

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	perr "udfhost/internal/platform/errors"
)

// Call invokes the named function with JSON-encoded arguments and returns
// the result as a JSON-marshalable value
// argument count and types are checked against the registered signature
func (r *Registry) Call(ctx context.Context, name string, args []json.RawMessage) (out any, err error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, perr.NotFoundf("unknown function %q", NormalizeName(name))
	}

	t := f.fn.Type()
	start := 0
	if f.takesCtx {
		start = 1
	}
	want := t.NumIn() - start
	if len(args) != want {
		return nil, perr.InvalidArgf("function %q takes %d argument(s), got %d", f.sig.Name, want, len(args))
	}

	in := make([]reflect.Value, 0, t.NumIn())
	if f.takesCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, raw := range args {
		pt := t.In(start + i)
		pv := reflect.New(pt)
		if err := json.Unmarshal(raw, pv.Interface()); err != nil {
			return nil, perr.InvalidArgf("function %q: argument %d: %v", f.sig.Name, i, err)
		}
		in = append(in, pv.Elem())
	}

	// a panicking function must not take down the server
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = perr.Functionf("function %q panicked: %v", f.sig.Name, rec)
		}
	}()

	res := f.fn.Call(in)
	if len(res) == 2 {
		if e, _ := res[1].Interface().(error); e != nil {
			return nil, perr.Wrap(e, perr.ErrorCodeFunction, fmt.Sprintf("function %q", f.sig.Name))
		}
	}
	return res[0].Interface(), nil
}
