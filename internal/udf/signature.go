// Package udf holds the in-process registry of user defined functions
// exposed by the hosting server, their reflected SQL signatures, and the
// JSON argument coercion used at invocation time
package udf

import (
	"context"
	"reflect"
	"time"
	"unicode"

	perr "udfhost/internal/platform/errors"

	"golang.org/x/text/unicode/norm"
)

// Param is one parameter or return value of a function signature
type Param struct {
	Name     string `json:"name,omitempty"`
	SQLType  string `json:"sql_type"`
	Nullable bool   `json:"nullable"`
}

// Signature is the SQL-facing shape of a registered function
type Signature struct {
	Name    string  `json:"name"`
	Params  []Param `json:"params"`
	Returns Param   `json:"returns"`
}

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType   = reflect.TypeOf((*error)(nil)).Elem()
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// sqlType maps a Go type to its SQL column type
// pointer types are the nullable variant of their element type
func sqlType(t reflect.Type) (typ string, nullable bool, ok bool) {
	if t.Kind() == reflect.Pointer {
		typ, _, ok = sqlType(t.Elem())
		return typ, true, ok
	}
	switch {
	case t == timeType:
		return "DATETIME(6)", false, true
	case t == bytesType:
		return "BLOB", false, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return "BOOL", false, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "BIGINT", false, true
	case reflect.Float32, reflect.Float64:
		return "DOUBLE", false, true
	case reflect.String:
		return "TEXT", false, true
	}
	return "", false, false
}

// NormalizeName canonicalizes a function name for registration and lookup
// names are NFC normalized so lookups survive differently composed input
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// validName reports whether name is a usable SQL identifier
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r), r == '_':
		case unicode.IsDigit(r):
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// reflectSignature derives a Signature from fn, which must be a func whose
// optional first parameter is context.Context, whose remaining parameters
// map to SQL types, and which returns T or (T, error)
func reflectSignature(name string, fn any) (Signature, bool, error) {
	var sig Signature

	name = NormalizeName(name)
	if !validName(name) {
		return sig, false, perr.InvalidArgf("invalid function name %q", name)
	}
	sig.Name = name

	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return sig, false, perr.InvalidArgf("function %q: not a func", name)
	}
	t := v.Type()
	if t.IsVariadic() {
		return sig, false, perr.InvalidArgf("function %q: variadic functions are not supported", name)
	}

	takesCtx := t.NumIn() > 0 && t.In(0) == ctxType

	start := 0
	if takesCtx {
		start = 1
	}
	for i := start; i < t.NumIn(); i++ {
		st, nullable, ok := sqlType(t.In(i))
		if !ok {
			return sig, false, perr.InvalidArgf(
				"function %q: parameter %d has unsupported type %s", name, i-start, t.In(i))
		}
		sig.Params = append(sig.Params, Param{SQLType: st, Nullable: nullable})
	}

	switch t.NumOut() {
	case 1:
		if t.Out(0) == errType {
			return sig, false, perr.InvalidArgf("function %q: must return a value", name)
		}
	case 2:
		if t.Out(1) != errType {
			return sig, false, perr.InvalidArgf("function %q: second return must be error", name)
		}
	default:
		return sig, false, perr.InvalidArgf("function %q: must return T or (T, error)", name)
	}
	st, nullable, ok := sqlType(t.Out(0))
	if !ok {
		return sig, false, perr.InvalidArgf("function %q: unsupported return type %s", name, t.Out(0))
	}
	sig.Returns = Param{SQLType: st, Nullable: nullable}

	return sig, takesCtx, nil
}
