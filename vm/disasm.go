package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble returns a human-readable bytecode listing for the chunk.
func (c *Chunk) Disassemble() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("; CatLang bytecode v%d — %s\n", ChunkVersion, c.SourceName))

	if len(c.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, v := range c.Constants {
			display := v.ToString()
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			display = strings.ReplaceAll(display, "\n", "\\n")
			display = strings.ReplaceAll(display, "\t", "\\t")
			sb.WriteString(fmt.Sprintf(";   [%3d] %s %s\n", i, v.Kind, display))
		}
	}

	if len(c.Names) > 0 {
		sb.WriteString("; Names:\n")
		for i, n := range c.Names {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, n))
		}
	}

	if len(c.Functions) > 0 {
		sb.WriteString("; Functions:\n")
		for _, f := range c.Functions {
			name := ""
			if int(f.NameIndex) < len(c.Names) {
				name = c.Names[f.NameIndex]
			}
			sb.WriteString(fmt.Sprintf(";   %s/%d @ %04x\n", name, f.Arity, f.Entry))
		}
	}

	sb.WriteString("\n")

	offset := 0
	for offset < len(c.Code) {
		offset = c.disassembleInstruction(&sb, offset)
	}

	return sb.String()
}

// disassembleInstruction writes one instruction and returns the offset of
// the next one.
func (c *Chunk) disassembleInstruction(sb *strings.Builder, offset int) int {
	op := Opcode(c.Code[offset])
	info := GetOpcodeInfo(op)

	line, col := c.Location(offset)
	if line > 0 {
		sb.WriteString(fmt.Sprintf("%04x  %3d:%-3d %-18s", offset, line, col, info.Name))
	} else {
		sb.WriteString(fmt.Sprintf("%04x  %7s %-18s", offset, "", info.Name))
	}

	end := offset + 1 + info.OperandLen
	if end > len(c.Code) {
		sb.WriteString("  <truncated>\n")
		return len(c.Code)
	}

	switch op {
	case OpConst:
		idx := binary.LittleEndian.Uint16(c.Code[offset+1:])
		operand := fmt.Sprintf("%d", idx)
		if int(idx) < len(c.Constants) {
			operand += " (" + c.Constants[idx].ToString() + ")"
		}
		sb.WriteString("  " + operand)

	case OpGetGlobal, OpSetGlobal:
		idx := binary.LittleEndian.Uint16(c.Code[offset+1:])
		operand := fmt.Sprintf("%d", idx)
		if int(idx) < len(c.Names) {
			operand += " (" + c.Names[idx] + ")"
		}
		sb.WriteString("  " + operand)

	case OpGetLocal, OpSetLocal:
		sb.WriteString(fmt.Sprintf("  slot %d", binary.LittleEndian.Uint16(c.Code[offset+1:])))

	case OpJump, OpJumpIfFalse:
		delta := binary.LittleEndian.Uint16(c.Code[offset+1:])
		sb.WriteString(fmt.Sprintf("  +%d -> %04x", delta, end+int(delta)))

	case OpLoop:
		delta := binary.LittleEndian.Uint16(c.Code[offset+1:])
		sb.WriteString(fmt.Sprintf("  -%d -> %04x", delta, end-int(delta)))

	case OpCall:
		idx := binary.LittleEndian.Uint16(c.Code[offset+1:])
		argc := c.Code[offset+3]
		name := ""
		if int(idx) < len(c.Names) {
			name = c.Names[idx]
		}
		sb.WriteString(fmt.Sprintf("  %s argc=%d", name, argc))

	default:
		if info.OperandLen == 1 {
			sb.WriteString(fmt.Sprintf("  %d", c.Code[offset+1]))
		} else if info.OperandLen == 2 {
			sb.WriteString(fmt.Sprintf("  %d", binary.LittleEndian.Uint16(c.Code[offset+1:])))
		}
	}

	sb.WriteString("\n")
	return end
}

// OpcodeOffsets walks the code and returns the offset of every opcode
// byte. Used to validate that jump displacements land on instruction
// boundaries.
func (c *Chunk) OpcodeOffsets() map[int]bool {
	offsets := make(map[int]bool)
	offset := 0
	for offset < len(c.Code) {
		offsets[offset] = true
		op := Opcode(c.Code[offset])
		offset += op.InstructionLen()
	}
	return offsets
}

// ValidateJumps verifies that every jump displacement resolves to an
// opcode byte within the code vector.
func (c *Chunk) ValidateJumps() error {
	boundaries := c.OpcodeOffsets()
	offset := 0
	for offset < len(c.Code) {
		op := Opcode(c.Code[offset])
		next := offset + op.InstructionLen()
		if op.IsJump() {
			if next > len(c.Code) {
				return fmt.Errorf("truncated jump at %04x", offset)
			}
			delta := int(binary.LittleEndian.Uint16(c.Code[offset+1:]))
			target := next + delta
			if op == OpLoop {
				target = next - delta
			}
			if target < 0 || target > len(c.Code) {
				return fmt.Errorf("%s at %04x targets %d, outside [0,%d)", op, offset, target, len(c.Code))
			}
			if target < len(c.Code) && !boundaries[target] {
				return fmt.Errorf("%s at %04x targets %04x, not an opcode boundary", op, offset, target)
			}
		}
		offset = next
	}
	return nil
}
