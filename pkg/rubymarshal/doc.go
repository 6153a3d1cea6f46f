// Package rubymarshal reads and writes the subset of Ruby's Marshal 4.8
// format that appears in legacy Rails session cookies.
//
// Supported on read: nil, true, false, Fixnum, Bignum, Float, String (with
// encoding ivars), Symbol and symbol links, Array, Hash, Hash with default,
// object links, user subclasses of core types, plain objects and Structs.
// Classes, modules, Regexps and custom _dump/marshal_dump payloads are
// rejected with ErrUnsupportedType.
//
// Marshal is specific to the Ruby runtime. Prefer JSON for anything new and
// use this package only to read or write values an existing application
// already stores in this format.
package rubymarshal
