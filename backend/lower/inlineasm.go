package lower

import (
	"strings"

	"rcc/backend/asm"
	"rcc/ir"
)

// lowerInlineAsm passes inst.Text through line by line as Raw records
// (§4.9), preserving the author's exact text rather than re-formatting it.
// Blank lines are dropped; the backend performs no register allocation
// across inline assembly, so pending spill state is never consulted here.
func (c *Context) lowerInlineAsm(inst ir.InlineAsmInst) error {
	for _, line := range strings.Split(inst.Text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c.Buf.Emit(asm.Raw{Line: line})
	}
	return nil
}
