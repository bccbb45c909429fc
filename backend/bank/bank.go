// Package bank models the allocator-level runtime representation of a
// pointer's memory bank (BankInfo) and the wire encoding used when a bank
// tag is spilled to a fat pointer's memory slot (§3, §4.6).
package bank

import (
	"fmt"

	"rcc/backend/regfile"
	"rcc/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind identifies a BankInfo variant.
type Kind uint

// Info is the allocator-level representation of a pointer's bank. Global
// and Stack are static; Register holds a concrete bank in a physical
// register; Dynamic names a value the allocator may have spilled, to be
// materialized on demand.
type Info struct {
	Kind Kind
	Reg  regfile.Register // Valid when Kind == Register.
	Name string           // Valid when Kind == Dynamic.
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	Global Kind = iota
	Stack
	RegisterKind
	Dynamic
)

// Wire encodings for a bank tag stored as the second word of a spilled fat
// pointer (§3).
const (
	EncodeGlobal  int64 = -1
	EncodeStack   int64 = -2
	EncodeNull    int64 = -3
	// Any value >= 0 names a dynamic bank address.
)

// ---------------------
// ----- Functions -----
// ---------------------

// String returns a print friendly representation of Info b.
func (b Info) String() string {
	switch b.Kind {
	case Global:
		return "Global"
	case Stack:
		return "Stack"
	case RegisterKind:
		return fmt.Sprintf("Register(%s)", b.Reg)
	case Dynamic:
		return fmt.Sprintf("Dynamic(%s)", b.Name)
	default:
		return "?"
	}
}

// IsStatic reports whether b is a compile-time-fixed bank (Global or Stack).
func (b Info) IsStatic() bool {
	return b.Kind == Global || b.Kind == Stack
}

// FromTag converts an IR-level, compile-time BankTag into its allocator
// runtime Info. ir.TagMixed has no static bank; callers resolve it via a
// Dynamic or Register binding registered with the allocator instead, so
// FromTag never produces a value for TagMixed.
func FromTag(tag ir.BankTag) (Info, bool) {
	switch tag {
	case ir.TagGlobal:
		return Info{Kind: Global}, true
	case ir.TagStack:
		return Info{Kind: Stack}, true
	default:
		return Info{}, false
	}
}

// NewRegister returns a dynamic-bank Info pinned to the given physical register.
func NewRegister(r regfile.Register) Info {
	return Info{Kind: RegisterKind, Reg: r}
}

// NewDynamic returns a bank Info that names another allocator-tracked value.
func NewDynamic(name string) Info {
	return Info{Kind: Dynamic, Name: name}
}

// Encode returns the wire encoding (§3) for a static bank Info (Global or
// Stack). It panics if called on a Register/Dynamic bank,
// which has no constant encoding; those banks are written to memory as the
// register holding their bank number, not this constant.
func Encode(b Info) int64 {
	switch b.Kind {
	case Global:
		return EncodeGlobal
	case Stack:
		return EncodeStack
	default:
		panic(fmt.Sprintf("bank.Encode: %s has no constant wire encoding", b))
	}
}

// Decode converts a loaded bank-tag word back into allocator Info, given the
// physical register that word was loaded into (used when the tag is
// non-negative, i.e. a dynamic bank address). -3 (NULL) decodes into an
// Info the caller must refuse to dereference; it is reported via
// ok == false.
func Decode(tagWord int64, loadedInto regfile.Register) (info Info, ok bool) {
	switch {
	case tagWord == EncodeGlobal:
		return Info{Kind: Global}, true
	case tagWord == EncodeStack:
		return Info{Kind: Stack}, true
	case tagWord == EncodeNull:
		return Info{}, false
	case tagWord >= 0:
		return NewRegister(loadedInto), true
	default:
		return Info{}, false
	}
}
