package registry

import "banchogate/internal/bancho/wire"

// Field is one (name, wire reader) pair in a packet's declarative
// schema. Raw marks a trailing field that consumes the rest of the
// payload verbatim instead of being typed.
type Field struct {
	Name string
	Read func(r *wire.Reader) any
	Raw  bool
}

// Schema is an ordered list of fields the generic decoder walks in
// order — the declarative replacement for per-packet imperative
// parsers.
type Schema []Field

func field(name string, read func(r *wire.Reader) any) Field {
	return Field{Name: name, Read: read}
}

// Raw declares a trailing field consuming the remainder of the payload.
func Raw(name string) Field {
	return Field{Name: name, Raw: true}
}

// The wire-type vocabulary, one constructor per primitive and
// composite read in internal/bancho/wire.

func I8(name string) Field  { return field(name, func(r *wire.Reader) any { return r.ReadI8() }) }
func U8(name string) Field  { return field(name, func(r *wire.Reader) any { return r.ReadU8() }) }
func Bool(name string) Field {
	return field(name, func(r *wire.Reader) any { return r.ReadBool() })
}
func I16(name string) Field { return field(name, func(r *wire.Reader) any { return r.ReadI16() }) }
func U16(name string) Field { return field(name, func(r *wire.Reader) any { return r.ReadU16() }) }
func I32(name string) Field { return field(name, func(r *wire.Reader) any { return r.ReadI32() }) }
func U32(name string) Field { return field(name, func(r *wire.Reader) any { return r.ReadU32() }) }
func I64(name string) Field { return field(name, func(r *wire.Reader) any { return r.ReadI64() }) }
func F32(name string) Field { return field(name, func(r *wire.Reader) any { return r.ReadF32() }) }
func F64(name string) Field { return field(name, func(r *wire.Reader) any { return r.ReadF64() }) }
func Str(name string) Field {
	return field(name, func(r *wire.Reader) any { return r.ReadString() })
}
func I32List(name string) Field {
	return field(name, func(r *wire.Reader) any { return r.ReadI32List() })
}
func Msg(name string) Field {
	return field(name, func(r *wire.Reader) any { return wire.ReadMessage(r) })
}
func Replay(name string) Field {
	return field(name, func(r *wire.Reader) any { return wire.ReadReplayFrameBundle(r) })
}
