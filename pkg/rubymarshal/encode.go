package rubymarshal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Dump encodes v as a Marshal 4.8 stream.
//
// Valid UTF-8 strings are written with the UTF-8 encoding ivar, other
// strings and []byte as binary Strings. Maps must have string keys and are
// written with String keys in sorted order. Integers outside the 32-bit
// Fixnum range are written as Bignums. A map, slice or pointer that
// contains itself is rejected with ErrUnsupportedType.
func Dump(v any) ([]byte, error) {
	e := &encoder{symbols: make(map[Symbol]int), visiting: make(map[visit]struct{})}
	e.buf.WriteByte(MajorVersion)
	e.buf.WriteByte(MinorVersion)
	if err := e.value(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf      bytes.Buffer
	symbols  map[Symbol]int
	visiting map[visit]struct{}
}

// visit identifies a map, slice or pointer on the current encoding path.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// enter marks v as being written and returns the func that unmarks it.
func (e *encoder) enter(v reflect.Value) (func(), error) {
	key := visit{ptr: v.Pointer(), typ: v.Type()}
	if v.Kind() == reflect.Slice {
		key.len = v.Len()
	}
	if _, ok := e.visiting[key]; ok {
		return nil, fmt.Errorf("%w: cyclic %s", ErrUnsupportedType, v.Type())
	}
	e.visiting[key] = struct{}{}
	return func() { delete(e.visiting, key) }, nil
}

var (
	symbolType = reflect.TypeFor[Symbol]()
	bigIntType = reflect.TypeFor[*big.Int]()
	objectType = reflect.TypeFor[*Object]()
	numberType = reflect.TypeFor[json.Number]()
)

// long writes the variable-length integer encoding.
func (e *encoder) long(x int64) {
	switch {
	case x == 0:
		e.buf.WriteByte(0)
	case 0 < x && x < 123:
		e.buf.WriteByte(byte(x + 5))
	case -124 < x && x < 0:
		e.buf.WriteByte(byte((x - 5) & 0xff))
	default:
		var raw [8]byte
		n := 0
		for i := 1; i <= len(raw); i++ {
			raw[i-1] = byte(x & 0xff)
			x >>= 8
			if x == 0 {
				n = i
				break
			}
			if x == -1 {
				n = -i
				break
			}
		}
		e.buf.WriteByte(byte(int8(n)))
		if n < 0 {
			n = -n
		}
		e.buf.Write(raw[:n])
	}
}

func (e *encoder) rawBytes(b []byte) {
	e.long(int64(len(b)))
	e.buf.Write(b)
}

func (e *encoder) symbol(s Symbol) {
	if idx, ok := e.symbols[s]; ok {
		e.buf.WriteByte(typeSymlink)
		e.long(int64(idx))
		return
	}
	e.symbols[s] = len(e.symbols)
	e.buf.WriteByte(typeSymbol)
	e.rawBytes([]byte(s))
}

func (e *encoder) str(s []byte) {
	if !utf8.Valid(s) {
		e.buf.WriteByte(typeString)
		e.rawBytes(s)
		return
	}
	e.buf.WriteByte(typeIvar)
	e.buf.WriteByte(typeString)
	e.rawBytes(s)
	e.long(1)
	e.symbol("E")
	e.buf.WriteByte(typeTrue)
}

func (e *encoder) integer(x int64) {
	if x >= minFixnum && x <= maxFixnum {
		e.buf.WriteByte(typeFixnum)
		e.long(x)
		return
	}
	e.bignum(big.NewInt(x))
}

func (e *encoder) bignum(n *big.Int) {
	if n.IsInt64() && n.Int64() >= minFixnum && n.Int64() <= maxFixnum {
		e.integer(n.Int64())
		return
	}

	e.buf.WriteByte(typeBignum)
	if n.Sign() < 0 {
		e.buf.WriteByte('-')
	} else {
		e.buf.WriteByte('+')
	}

	be := new(big.Int).Abs(n).Bytes()
	le := make([]byte, len(be)+len(be)%2)
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	e.long(int64(len(le) / 2))
	e.buf.Write(le)
}

func (e *encoder) float(f float64) {
	var s string
	switch {
	case math.IsInf(f, 1):
		s = "inf"
	case math.IsInf(f, -1):
		s = "-inf"
	case math.IsNaN(f):
		s = "nan"
	case f == 0 && math.Signbit(f):
		s = "-0"
	default:
		s = strconv.FormatFloat(f, 'g', -1, 64)
	}
	e.buf.WriteByte(typeFloat)
	e.rawBytes([]byte(s))
}

// number writes a JSON number literal as an Integer when it is written
// without a fraction or exponent, and as a Float otherwise.
func (e *encoder) number(n json.Number) error {
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, ok := new(big.Int).SetString(n.String(), 10); ok {
			e.bignum(i)
			return nil
		}
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%w: invalid number %q", ErrUnsupportedType, n.String())
	}
	e.float(f)
	return nil
}

func (e *encoder) value(v reflect.Value) error {
	if !v.IsValid() {
		e.buf.WriteByte(typeNil)
		return nil
	}

	switch v.Type() {
	case symbolType:
		e.symbol(Symbol(v.String()))
		return nil
	case numberType:
		return e.number(json.Number(v.String()))
	case bigIntType:
		if v.IsNil() {
			e.buf.WriteByte(typeNil)
			return nil
		}
		e.bignum(v.Interface().(*big.Int))
		return nil
	case objectType:
		if v.IsNil() {
			e.buf.WriteByte(typeNil)
			return nil
		}
		leave, err := e.enter(v)
		if err != nil {
			return err
		}
		defer leave()
		return e.object(v.Interface().(*Object))
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			e.buf.WriteByte(typeNil)
			return nil
		}
		return e.value(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			e.buf.WriteByte(typeNil)
			return nil
		}
		leave, err := e.enter(v)
		if err != nil {
			return err
		}
		defer leave()
		return e.value(v.Elem())
	case reflect.Bool:
		if v.Bool() {
			e.buf.WriteByte(typeTrue)
		} else {
			e.buf.WriteByte(typeFalse)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.integer(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			e.bignum(new(big.Int).SetUint64(u))
		} else {
			e.integer(int64(u))
		}
	case reflect.Float32, reflect.Float64:
		e.float(v.Float())
	case reflect.String:
		e.str([]byte(v.String()))
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			e.buf.WriteByte(typeNil)
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			e.buf.WriteByte(typeString)
			e.rawBytes(bytesOf(v))
			return nil
		}
		if v.Kind() == reflect.Slice && v.Len() > 0 {
			leave, err := e.enter(v)
			if err != nil {
				return err
			}
			defer leave()
		}
		e.buf.WriteByte(typeArray)
		e.long(int64(v.Len()))
		for i := range v.Len() {
			if err := e.value(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		if v.IsNil() {
			e.buf.WriteByte(typeNil)
			return nil
		}
		leave, err := e.enter(v)
		if err != nil {
			return err
		}
		defer leave()
		return e.hash(v)
	default:
		return fmt.Errorf("%w: cannot marshal %s", ErrUnsupportedType, v.Type())
	}
	return nil
}

func bytesOf(v reflect.Value) []byte {
	if v.Kind() == reflect.Slice {
		return v.Bytes()
	}
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}

func (e *encoder) hash(v reflect.Value) error {
	if v.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("%w: map key type %s", ErrUnsupportedType, v.Type().Key())
	}

	keys := v.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		default:
			return 0
		}
	})

	e.buf.WriteByte(typeHash)
	e.long(int64(len(keys)))
	for _, k := range keys {
		if k.Type() == symbolType {
			e.symbol(Symbol(k.String()))
		} else {
			e.str([]byte(k.String()))
		}
		if err := e.value(v.MapIndex(k)); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) object(obj *Object) error {
	e.buf.WriteByte(typeObject)
	e.symbol(obj.Class)

	names := make([]string, 0, len(obj.Fields))
	for name := range obj.Fields {
		names = append(names, name)
	}
	slices.Sort(names)

	e.long(int64(len(names)))
	for _, name := range names {
		e.symbol(Symbol(name))
		if err := e.value(reflect.ValueOf(obj.Fields[name])); err != nil {
			return err
		}
	}
	return nil
}
