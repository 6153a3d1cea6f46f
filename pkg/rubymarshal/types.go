package rubymarshal

// Format version written by Ruby 1.8 and later.
const (
	MajorVersion = 4
	MinorVersion = 8
)

// Type codes.
const (
	typeNil       = '0'
	typeTrue      = 'T'
	typeFalse     = 'F'
	typeFixnum    = 'i'
	typeBignum    = 'l'
	typeFloat     = 'f'
	typeString    = '"'
	typeSymbol    = ':'
	typeSymlink   = ';'
	typeIvar      = 'I'
	typeArray     = '['
	typeHash      = '{'
	typeHashDef   = '}'
	typeLink      = '@'
	typeObject    = 'o'
	typeStruct    = 'S'
	typeUserClass = 'C'
	typeExtended  = 'e'
	typeUserDef   = 'u'
	typeUserMarsh = 'U'
	typeRegexp    = '/'
	typeClass     = 'c'
	typeModule    = 'm'
	typeData      = 'd'
	typeModuleOld = 'M'
)

// fixnum bounds for values written with the 'i' code.
const (
	minFixnum = -1 << 31
	maxFixnum = 1<<31 - 1
)

// Symbol is a Ruby symbol. Hash keys that are symbols decode to plain strings.
type Symbol string

// Object is a plain Ruby object or struct: its class name and instance
// variables (keys keep their "@" prefix for objects, bare names for structs).
type Object struct {
	Class  Symbol
	Fields map[string]any
}
