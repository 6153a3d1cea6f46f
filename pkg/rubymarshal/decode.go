package rubymarshal

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Load decodes a Marshal 4.8 stream.
//
// Strings decode to string, Fixnums to int, Bignums to int when they fit and
// *big.Int otherwise, Arrays to []any and Hashes to map[string]any. Hash keys
// must be Strings or Symbols. Instances of user subclasses of core types (for
// example ActiveSupport::HashWithIndifferentAccess) decode to the wrapped
// core value.
func Load(data []byte) (any, error) {
	d := &decoder{data: data}
	if err := d.header(); err != nil {
		return nil, err
	}

	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, fmt.Errorf("%w: %d bytes after value", ErrTrailingData, len(d.data)-d.pos)
	}
	return v, nil
}

type decoder struct {
	data    []byte
	pos     int
	symbols []Symbol
	objects []any
}

func (d *decoder) header() error {
	major, err := d.byte()
	if err != nil {
		return err
	}
	minor, err := d.byte()
	if err != nil {
		return err
	}
	if major != MajorVersion || minor > MinorVersion {
		return fmt.Errorf("%w: %d.%d", ErrVersion, major, minor)
	}
	return nil
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, fmt.Errorf("%w: at offset %d", ErrTruncated, d.pos)
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if n < 0 || n > len(d.data)-d.pos {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, d.pos)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// long reads the variable-length integer encoding used for lengths and Fixnums.
func (d *decoder) long() (int, error) {
	b, err := d.byte()
	if err != nil {
		return 0, err
	}

	c := int(int8(b))
	switch {
	case c == 0:
		return 0, nil
	case c > 4:
		return c - 5, nil
	case c < -4:
		return c + 5, nil
	case c > 0:
		raw, err := d.bytes(c)
		if err != nil {
			return 0, err
		}
		x := 0
		for i, v := range raw {
			x |= int(v) << (8 * i)
		}
		return x, nil
	default:
		raw, err := d.bytes(-c)
		if err != nil {
			return 0, err
		}
		x := -1
		for i, v := range raw {
			x &^= 0xff << (8 * i)
			x |= int(v) << (8 * i)
		}
		return x, nil
	}
}

func (d *decoder) length() (int, error) {
	n, err := d.long()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > len(d.data)-d.pos {
		return 0, fmt.Errorf("%w: length %d at offset %d", ErrTruncated, n, d.pos)
	}
	return n, nil
}

func (d *decoder) register(v any) {
	d.objects = append(d.objects, v)
}

func (d *decoder) value() (any, error) {
	code, err := d.byte()
	if err != nil {
		return nil, err
	}

	switch code {
	case typeNil:
		return nil, nil
	case typeTrue:
		return true, nil
	case typeFalse:
		return false, nil
	case typeFixnum:
		return d.long()
	case typeSymbol, typeSymlink:
		d.pos--
		return d.symbol()
	case typeString:
		s, err := d.rawString()
		if err != nil {
			return nil, err
		}
		d.register(s)
		return s, nil
	case typeFloat:
		return d.float()
	case typeBignum:
		return d.bignum()
	case typeIvar:
		return d.ivar()
	case typeArray:
		return d.array()
	case typeHash, typeHashDef:
		return d.hash(code == typeHashDef)
	case typeLink:
		idx, err := d.long()
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(d.objects) {
			return nil, fmt.Errorf("%w: object %d", ErrBadReference, idx)
		}
		return d.objects[idx], nil
	case typeUserClass:
		if _, err := d.symbol(); err != nil {
			return nil, err
		}
		return d.value()
	case typeExtended:
		if _, err := d.symbol(); err != nil {
			return nil, err
		}
		return d.value()
	case typeObject, typeStruct:
		return d.object()
	default:
		return nil, fmt.Errorf("%w: type code %q at offset %d", ErrUnsupportedType, code, d.pos-1)
	}
}

func (d *decoder) rawString() (string, error) {
	n, err := d.length()
	if err != nil {
		return "", err
	}
	b, err := d.bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) symbol() (Symbol, error) {
	code, err := d.byte()
	if err != nil {
		return "", err
	}

	switch code {
	case typeSymbol:
		s, err := d.rawString()
		if err != nil {
			return "", err
		}
		sym := Symbol(s)
		d.symbols = append(d.symbols, sym)
		return sym, nil
	case typeSymlink:
		idx, err := d.long()
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(d.symbols) {
			return "", fmt.Errorf("%w: symbol %d", ErrBadReference, idx)
		}
		return d.symbols[idx], nil
	case typeIvar:
		// symbols with a non-ASCII encoding carry an encoding ivar
		sym, err := d.symbol()
		if err != nil {
			return "", err
		}
		if err := d.skipIvars(); err != nil {
			return "", err
		}
		return sym, nil
	default:
		return "", fmt.Errorf("%w: expected symbol, got %q at offset %d", ErrUnsupportedType, code, d.pos-1)
	}
}

func (d *decoder) float() (float64, error) {
	s, err := d.rawString()
	if err != nil {
		return 0, err
	}
	// Ruby 1.8 appended mantissa bytes after a NUL
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}

	var f float64
	switch s {
	case "inf":
		f = math.Inf(1)
	case "-inf":
		f = math.Inf(-1)
	case "nan":
		f = math.NaN()
	default:
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: float %q", ErrUnsupportedType, s)
		}
	}
	d.register(f)
	return f, nil
}

func (d *decoder) bignum() (any, error) {
	sign, err := d.byte()
	if err != nil {
		return nil, err
	}
	words, err := d.long()
	if err != nil {
		return nil, err
	}
	raw, err := d.bytes(words * 2)
	if err != nil {
		return nil, err
	}

	be := make([]byte, len(raw))
	for i, b := range raw {
		be[len(raw)-1-i] = b
	}
	n := new(big.Int).SetBytes(be)
	if sign == '-' {
		n.Neg(n)
	}

	var v any = n
	if n.IsInt64() && n.Int64() >= math.MinInt && n.Int64() <= math.MaxInt {
		v = int(n.Int64())
	}
	d.register(v)
	return v, nil
}

// ivar reads a value followed by its instance variables. Only String
// encodings are expected here; the variables are discarded.
func (d *decoder) ivar() (any, error) {
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if err := d.skipIvars(); err != nil {
		return nil, err
	}
	return v, nil
}

func (d *decoder) skipIvars() error {
	n, err := d.length()
	if err != nil {
		return err
	}
	for range n {
		if _, err := d.symbol(); err != nil {
			return err
		}
		if _, err := d.value(); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) array() ([]any, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}

	arr := make([]any, n)
	d.register(arr)
	for i := range arr {
		if arr[i], err = d.value(); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

func (d *decoder) hash(withDefault bool) (map[string]any, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}

	h := make(map[string]any, n)
	d.register(h)
	for range n {
		k, err := d.value()
		if err != nil {
			return nil, err
		}
		key, err := hashKey(k)
		if err != nil {
			return nil, err
		}
		if h[key], err = d.value(); err != nil {
			return nil, err
		}
	}

	if withDefault {
		if _, err := d.value(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func hashKey(k any) (string, error) {
	switch k := k.(type) {
	case string:
		return k, nil
	case Symbol:
		return string(k), nil
	default:
		return "", fmt.Errorf("%w: hash key of type %T", ErrUnsupportedType, k)
	}
}

func (d *decoder) object() (*Object, error) {
	class, err := d.symbol()
	if err != nil {
		return nil, err
	}

	obj := &Object{Class: class}
	d.register(obj)
	if obj.Fields, err = d.fields(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (d *decoder) fields() (map[string]any, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any, n)
	for range n {
		name, err := d.symbol()
		if err != nil {
			return nil, err
		}
		if fields[string(name)], err = d.value(); err != nil {
			return nil, err
		}
	}
	return fields, nil
}
