package compiler

import (
	"testing"

	"github.com/chazu/catlang/vm"
)

func compileSrc(t *testing.T, src string) *vm.Chunk {
	t.Helper()
	result := CompileSource(src, Options{SourceName: "test.cb"})
	for _, diag := range result.Diags {
		t.Fatalf("compile(%q): %v", src, diag)
	}
	return result.Chunk
}

func TestCodegenArithmetic(t *testing.T) {
	c := compileSrc(t, "print (2+3)*4\n")
	if err := c.ValidateJumps(); err != nil {
		t.Fatal(err)
	}
	// Constants deduplicate scalars.
	if len(c.Constants) != 3 {
		t.Errorf("constants = %+v, want 2, 3, 4", c.Constants)
	}
}

func TestCodegenConstantDedup(t *testing.T) {
	c := compileSrc(t, "print 7 + 7 + 7\n")
	count := 0
	for _, v := range c.Constants {
		if v.Kind == vm.KindNumber && v.Num == 7 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("constant 7 appears %d times, want 1", count)
	}
}

func TestCodegenFunctionLayout(t *testing.T) {
	c := compileSrc(t, "fn add(a, b) { return a + b }\nprint add(2, 3)\n")

	if len(c.Functions) != 1 {
		t.Fatalf("functions = %+v", c.Functions)
	}
	fn := c.Functions[0]
	if fn.Arity != 2 {
		t.Errorf("arity = %d", fn.Arity)
	}
	if c.Names[fn.NameIndex] != "add" {
		t.Errorf("function name = %q", c.Names[fn.NameIndex])
	}

	// The body is laid out inline behind a skip jump: the first opcode is
	// OP_JUMP and the entry is just past it.
	if vm.Opcode(c.Code[0]) != vm.OpJump {
		t.Errorf("first opcode = %s, want OP_JUMP", vm.Opcode(c.Code[0]))
	}
	if fn.Entry != 3 {
		t.Errorf("entry = %d, want 3 (after the skip jump)", fn.Entry)
	}
	// The entry must be an opcode boundary.
	if !c.OpcodeOffsets()[int(fn.Entry)] {
		t.Error("entry offset is not an opcode boundary")
	}
}

func TestCodegenJumpValidity(t *testing.T) {
	srcs := []string{
		"if 1 < 2 then\nprint 1\nelse\nprint 2\nend\n",
		"let i be 0\nwhile i < 3 do\nset i to i + 1\nend\n",
		"for each x in [1, 2] do\nprint x\nend\n",
		"fn f(a) { if a then\nreturn 1\nend\nreturn 2 }\nprint f(1)\n",
		"print range from 1 to 3\n",
	}
	for _, src := range srcs {
		c := compileSrc(t, src)
		if err := c.ValidateJumps(); err != nil {
			t.Errorf("compile(%q): %v", src, err)
		}
	}
}

func TestCodegenDebugCoverage(t *testing.T) {
	c := compileSrc(t, "let x be 1\nprint x + 2\n")
	if len(c.DebugLines) != len(c.Code) {
		t.Fatalf("debug lines cover %d of %d code bytes", len(c.DebugLines), len(c.Code))
	}
	if len(c.DebugCols) != len(c.Code) {
		t.Fatalf("debug cols cover %d of %d code bytes", len(c.DebugCols), len(c.Code))
	}
	// The second statement's bytes carry line 2.
	sawLine2 := false
	for _, l := range c.DebugLines {
		if l == 2 {
			sawLine2 = true
		}
	}
	if !sawLine2 {
		t.Errorf("debug lines = %v, want line 2 recorded", c.DebugLines)
	}
}

func TestCodegenTopLevelEcho(t *testing.T) {
	// A bare expression statement echoes via OP_PRINT 1.
	c := compileSrc(t, "1 + 2\n")
	found := false
	offsets := c.OpcodeOffsets()
	for off := range offsets {
		if vm.Opcode(c.Code[off]) == vm.OpPrint {
			found = true
		}
	}
	if !found {
		t.Error("top-level expression must compile to an echoing OP_PRINT")
	}

	// Statement-like builtins are not echoed.
	c = compileSrc(t, "let a be [1]\nappend 2 to a\n")
	for off := range c.OpcodeOffsets() {
		if vm.Opcode(c.Code[off]) == vm.OpPrint {
			t.Error("append must not be echoed")
		}
	}
}

func TestCodegenGlobalsOutsideFunctions(t *testing.T) {
	c := compileSrc(t, "let x be 1\nset x to 2\n")
	sawSetGlobal := false
	for off := range c.OpcodeOffsets() {
		switch vm.Opcode(c.Code[off]) {
		case vm.OpSetGlobal:
			sawSetGlobal = true
		case vm.OpSetLocal:
			t.Error("top-level let/set must compile to globals")
		}
	}
	if !sawSetGlobal {
		t.Error("expected OP_SET_GLOBAL")
	}
}

func TestCodegenLocalsInsideFunctions(t *testing.T) {
	c := compileSrc(t, "fn f(a) { let b = a + 1; return b }\nprint f(1)\n")
	sawSetLocal := false
	for off := range c.OpcodeOffsets() {
		if vm.Opcode(c.Code[off]) == vm.OpSetLocal {
			sawSetLocal = true
		}
	}
	if !sawSetLocal {
		t.Error("function let must compile to a local slot")
	}
}

func TestCodegenBuiltinArity(t *testing.T) {
	result := CompileSource("x = __substr(\"s\", 1);\n", Options{SourceName: "t"})
	if !result.Failed() {
		t.Error("wrong builtin arity must be a compile diagnostic")
	}
}

func TestCodegenReturnOutsideFunction(t *testing.T) {
	result := CompileSource("return 1\n", Options{SourceName: "t"})
	if !result.Failed() {
		t.Error("top-level return must be a compile diagnostic")
	}
}

func TestCodegenNameTableStable(t *testing.T) {
	c := compileSrc(t, "let x be 1\nlet y be 2\nprint x + y\n")
	xIdx, ok := c.LookupName("x")
	if !ok {
		t.Fatal("x not interned")
	}
	yIdx, _ := c.LookupName("y")
	if xIdx == yIdx {
		t.Error("distinct names share an index")
	}
}

func TestCodegenEndsWithHalt(t *testing.T) {
	c := compileSrc(t, "print 1\n")
	if vm.Opcode(c.Code[len(c.Code)-1]) != vm.OpHalt {
		t.Errorf("last opcode = %s, want OP_HALT", vm.Opcode(c.Code[len(c.Code)-1]))
	}
}
