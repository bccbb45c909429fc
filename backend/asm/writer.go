package asm

import "strings"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Buffer is the ordered sequence of emitted records. Appends are observable
// and semantically significant: the order is the program (§5). A single
// Buffer is shared by the Module Lowerer and appended to by one call site
// at a time; no locking discipline is required (single-threaded per
// module, §5).
type Buffer struct {
	records []Record
}

// ---------------------
// ----- Functions -----
// ---------------------

// Emit appends a single record to the buffer, in order.
func (b *Buffer) Emit(r Record) {
	b.records = append(b.records, r)
}

// EmitAll appends a batch of records to the buffer, in order. Used to drain
// the Pressure Manager's pending instructions ahead of an operation's own
// emissions (§5).
func (b *Buffer) EmitAll(rs []Record) {
	b.records = append(b.records, rs...)
}

// Records returns the accumulated record sequence.
func (b *Buffer) Records() []Record {
	return b.records
}

// Len returns the number of records accumulated so far.
func (b *Buffer) Len() int {
	return len(b.records)
}

// String renders the whole buffer as assembler text, one record per line.
func (b *Buffer) String() string {
	sb := strings.Builder{}
	for i, r := range b.records {
		sb.WriteString(r.String())
		if i < len(b.records)-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}
