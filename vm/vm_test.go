package vm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newTestVM returns a VM with captured standard streams.
func newTestVM() (*VM, *bytes.Buffer, *bytes.Buffer) {
	machine := New()
	var out, errOut bytes.Buffer
	machine.SetStdout(&out)
	machine.SetStderr(&errOut)
	machine.SetStdin(strings.NewReader(""))
	return machine, &out, &errOut
}

// Chunk assembly helpers.

func emitNum(c *Chunk, n float64) {
	idx := c.AddConstant(NumberValue(n))
	c.Emit(OpConst)
	c.EmitU16(idx)
}

func emitStr(c *Chunk, s string) {
	idx := c.AddConstant(StringValue(s))
	c.Emit(OpConst)
	c.EmitU16(idx)
}

func emitPrint(c *Chunk, argc byte) {
	c.Emit(OpPrint)
	c.EmitByte(argc)
}

func TestArithmetic(t *testing.T) {
	c := NewChunk("t")
	emitNum(c, 2)
	emitNum(c, 3)
	c.Emit(OpAdd)
	emitNum(c, 4)
	c.Emit(OpMul)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "20\n" {
		t.Errorf("stdout = %q, want %q", out.String(), "20\n")
	}
}

func TestDivisionByZeroReportsAndContinues(t *testing.T) {
	c := NewChunk("prog.cb")
	emitNum(c, 10)
	emitNum(c, 0)
	c.Emit(OpDiv)
	emitPrint(c, 1)
	c.Emit(OpHalt)
	c.FillDebug(0, c.CurrentOffset(), 1, 1)

	machine, out, errOut := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatalf("division by zero must not terminate the run: %v", err)
	}
	if out.String() != "0\n" {
		t.Errorf("stdout = %q, want 0 pushed after the error", out.String())
	}
	msg := errOut.String()
	if !strings.Contains(msg, "Runtime error") || !strings.Contains(msg, "line 1") {
		t.Errorf("stderr = %q, want located runtime error", msg)
	}
	if !strings.Contains(msg, "prog.cb") {
		t.Errorf("stderr must name the source, got %q", msg)
	}
}

func TestComparisonsAndLogic(t *testing.T) {
	c := NewChunk("t")
	emitNum(c, 2)
	emitNum(c, 3)
	c.Emit(OpLt)
	emitNum(c, 1)
	c.Emit(OpAnd)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "true\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestJumpIfFalsePeeks(t *testing.T) {
	// false, JUMP_IF_FALSE over-then, POP, (skipped), target: POP must
	// still find the test value because the jump peeks.
	c := NewChunk("t")
	idx := c.AddConstant(BoolValue(false))
	c.Emit(OpConst)
	c.EmitU16(idx)
	operand := c.EmitJump(OpJumpIfFalse)
	c.Emit(OpPop) // then-branch pop (skipped)
	emitNum(c, 111)
	emitPrint(c, 1)
	c.PatchJump(operand)
	c.Emit(OpPop) // else-branch pop of the test value
	emitNum(c, 222)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "222\n" {
		t.Errorf("stdout = %q, want 222 only", out.String())
	}
}

func TestLoop(t *testing.T) {
	// i = 0; while i < 3 { i = i + 1 }; print i
	c := NewChunk("t")
	nameIdx := c.AddName("i")
	emitNum(c, 0)
	c.Emit(OpSetGlobal)
	c.EmitU16(nameIdx)

	loopStart := c.CurrentOffset()
	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitNum(c, 3)
	c.Emit(OpLt)
	exit := c.EmitJump(OpJumpIfFalse)
	c.Emit(OpPop)
	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitNum(c, 1)
	c.Emit(OpAdd)
	c.Emit(OpSetGlobal)
	c.EmitU16(nameIdx)
	c.EmitLoop(loopStart)
	c.PatchJump(exit)
	c.Emit(OpPop)

	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "3\n" {
		t.Errorf("stdout = %q, want 3", out.String())
	}
}

// addFunction lays out `fn add(a, b) { return a + b }` inline with a
// skip jump, returning the chunk positioned after the function.
func addFunctionChunk() *Chunk {
	c := NewChunk("t")
	nameIdx := c.AddName("add")
	skip := c.EmitJump(OpJump)
	entry := uint32(c.CurrentOffset())
	c.Functions = append(c.Functions, FuncEntry{NameIndex: nameIdx, Arity: 2, Entry: entry})
	c.Emit(OpGetLocal)
	c.EmitU16(0)
	c.Emit(OpGetLocal)
	c.EmitU16(1)
	c.Emit(OpAdd)
	c.Emit(OpReturn)
	c.PatchJump(skip)
	return c
}

func TestCallAndReturn(t *testing.T) {
	c := addFunctionChunk()
	emitNum(c, 2)
	emitNum(c, 3)
	c.Emit(OpCall)
	c.EmitU16(0) // "add"
	c.EmitByte(2)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "5\n" {
		t.Errorf("stdout = %q, want 5", out.String())
	}
}

func TestCallArityMismatchHalts(t *testing.T) {
	c := addFunctionChunk()
	emitNum(c, 2)
	c.Emit(OpCall)
	c.EmitU16(0)
	c.EmitByte(1) // add/2 called with 1
	c.Emit(OpHalt)

	machine, _, errOut := newTestVM()
	err := machine.Run(c)
	if err == nil {
		t.Fatal("arity mismatch must terminate execution")
	}
	if !strings.Contains(errOut.String(), "Runtime error") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestCallUndefinedHalts(t *testing.T) {
	c := NewChunk("t")
	c.AddName("ghost")
	c.Emit(OpCall)
	c.EmitU16(0)
	c.EmitByte(0)
	c.Emit(OpHalt)

	machine, _, _ := newTestVM()
	if err := machine.Run(c); err == nil {
		t.Fatal("undefined call must terminate execution")
	}
}

func TestUnknownGlobalReadsNil(t *testing.T) {
	c := NewChunk("t")
	c.AddName("missing")
	c.Emit(OpGetGlobal)
	c.EmitU16(0)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "nil\n" {
		t.Errorf("stdout = %q, want nil", out.String())
	}
}

func TestArrayOps(t *testing.T) {
	// a = [1, 2, 3]; append 4; a[1] = 42; print elements and length.
	c := NewChunk("t")
	nameIdx := c.AddName("a")
	emitNum(c, 1)
	emitNum(c, 2)
	emitNum(c, 3)
	c.Emit(OpNewArray)
	c.EmitByte(3)
	c.Emit(OpSetGlobal)
	c.EmitU16(nameIdx)

	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitNum(c, 4)
	c.Emit(OpAppend)
	c.Emit(OpPop)

	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitNum(c, 1)
	emitNum(c, 42)
	c.Emit(OpIndexSet)

	for i := 0; i < 4; i++ {
		c.Emit(OpGetGlobal)
		c.EmitU16(nameIdx)
		emitNum(c, float64(i))
		c.Emit(OpIndexGet)
	}
	emitPrint(c, 4)

	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	c.Emit(OpLen)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "1 42 3 4\n4\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestArrayOutOfRange(t *testing.T) {
	c := NewChunk("t")
	emitNum(c, 1)
	c.Emit(OpNewArray)
	c.EmitByte(1)
	emitNum(c, 99)
	c.Emit(OpIndexGet)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "nil\n" {
		t.Errorf("out-of-range index = %q, want nil", out.String())
	}
}

func TestMapOps(t *testing.T) {
	c := NewChunk("t")
	nameIdx := c.AddName("m")
	c.Emit(OpNewMap)
	c.Emit(OpSetGlobal)
	c.EmitU16(nameIdx)

	// m["k"] = 7
	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitStr(c, "k")
	emitNum(c, 7)
	c.Emit(OpMapSet)
	c.Emit(OpPop)

	// print m["k"], has, size, missing
	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitStr(c, "k")
	c.Emit(OpMapGet)
	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitStr(c, "k")
	c.Emit(OpMapHas)
	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	c.Emit(OpMapSize)
	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitStr(c, "nope")
	c.Emit(OpMapGet)
	emitPrint(c, 4)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "7 true 1 nil\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestStringOps(t *testing.T) {
	c := NewChunk("t")
	// substring clamping: substr("hello", 1, 100) -> "ello"
	emitStr(c, "hello")
	emitNum(c, 1)
	emitNum(c, 100)
	c.Emit(OpSubstr)
	// find miss -> -1
	emitStr(c, "haystack")
	emitStr(c, "zz")
	c.Emit(OpStrFind)
	emitPrint(c, 2)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "ello -1\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestSplitEmptySeparator(t *testing.T) {
	c := NewChunk("t")
	emitStr(c, "abc")
	emitStr(c, "")
	c.Emit(OpSplit)
	c.Emit(OpLen)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "3\n" {
		t.Errorf("per-byte split length = %q, want 3", out.String())
	}
}

func TestFormat(t *testing.T) {
	c := NewChunk("t")
	emitStr(c, "{} and {} and {}")
	emitNum(c, 1)
	emitStr(c, "two")
	c.Emit(OpFormat)
	c.EmitByte(2) // excess {} ignored
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	// Excess placeholders are dropped, not preserved.
	if out.String() != "1 and two and \n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestJoin(t *testing.T) {
	c := NewChunk("t")
	emitStr(c, "a")
	emitStr(c, "b")
	emitStr(c, "c")
	c.Emit(OpNewArray)
	c.EmitByte(3)
	emitStr(c, "-")
	c.Emit(OpJoin)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "a-b-c\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestPointerRoundTripAndFree(t *testing.T) {
	// Scenario 5 shape: alloc 8; write32 0x11223344 at 0; read; free; read.
	c := NewChunk("t")
	nameIdx := c.AddName("p")
	emitNum(c, 8)
	c.Emit(OpAlloc)
	c.Emit(OpSetGlobal)
	c.EmitU16(nameIdx)

	emitNum(c, 0x11223344)
	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitNum(c, 0)
	c.Emit(OpStore32)
	c.Emit(OpPop)

	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitNum(c, 0)
	c.Emit(OpLoad32)
	emitPrint(c, 1)

	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	c.Emit(OpFree)
	c.Emit(OpPop)

	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitNum(c, 0)
	c.Emit(OpLoad32)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "287454020\n0\n" {
		t.Errorf("stdout = %q, want 287454020 then 0 after free", out.String())
	}
}

func TestBitwise(t *testing.T) {
	c := NewChunk("t")
	emitNum(c, 0xF0)
	emitNum(c, 0x0F)
	c.Emit(OpBor)
	emitNum(c, 1)
	emitNum(c, 4)
	c.Emit(OpShl)
	emitPrint(c, 2)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "255 16\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestExitCode(t *testing.T) {
	c := NewChunk("t")
	emitNum(c, 3)
	c.Emit(OpExit)
	emitNum(c, 99) // unreachable
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if !machine.Exited() || machine.ExitCode() != 3 {
		t.Errorf("exited=%v code=%d, want true/3", machine.Exited(), machine.ExitCode())
	}
	if out.String() != "" {
		t.Errorf("code after OP_EXIT ran: %q", out.String())
	}
}

func TestAssertFailureHalts(t *testing.T) {
	c := NewChunk("t")
	idx := c.AddConstant(BoolValue(false))
	c.Emit(OpConst)
	c.EmitU16(idx)
	c.Emit(OpAssert)
	c.Emit(OpHalt)

	machine, _, errOut := newTestVM()
	err := machine.Run(c)
	if err == nil {
		t.Fatal("failed assertion must terminate execution")
	}
	vmErr, ok := err.(*Error)
	if !ok || vmErr.Kind != AssertionFailure {
		t.Errorf("error = %#v, want AssertionFailure", err)
	}
	if !strings.Contains(errOut.String(), "assertion failed") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestPanicHalts(t *testing.T) {
	c := NewChunk("t")
	emitStr(c, "boom")
	c.Emit(OpPanic)
	c.Emit(OpHalt)

	machine, _, errOut := newTestVM()
	err := machine.Run(c)
	if err == nil {
		t.Fatal("panic must terminate execution")
	}
	vmErr, ok := err.(*Error)
	if !ok || vmErr.Kind != UserPanic {
		t.Errorf("error = %#v, want UserPanic", err)
	}
	if !strings.Contains(errOut.String(), "boom") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestOpcodeID(t *testing.T) {
	c := NewChunk("t")
	emitStr(c, "OP_ADD")
	c.Emit(OpOpcodeID)
	emitStr(c, "OP_NOT_REAL")
	c.Emit(OpOpcodeID)
	emitPrint(c, 2)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	want := FormatNumber(float64(OpAdd)) + " -1\n"
	if out.String() != want {
		t.Errorf("stdout = %q, want %q", out.String(), want)
	}
}

func TestFFIWithoutSinkPushesZero(t *testing.T) {
	c := NewChunk("t")
	emitStr(c, "lib.so")
	emitStr(c, "fn")
	c.Emit(OpFfiCall)
	c.EmitByte(0)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "0\n" {
		t.Errorf("absent sink must push 0, got %q", out.String())
	}
}

// mockSink records FFI calls.
type mockSink struct {
	dll, fn string
	args    []Value
	result  Value
}

func (m *mockSink) Call(dll, fn string, args []Value) (Value, error) {
	m.dll, m.fn, m.args = dll, fn, args
	return m.result, nil
}
func (m *mockSink) CallSig(dll, fn, sig string, args []Value) (Value, error) {
	return m.Call(dll, fn, args)
}
func (m *mockSink) Proc(dll, fn string) (float64, error) { return 7, nil }
func (m *mockSink) CallPtr(proc float64, sig string, args []Value) (Value, error) {
	return m.result, nil
}
func (m *mockSink) AddSearchPath(dir string) {}

func TestFFIWithSink(t *testing.T) {
	c := NewChunk("t")
	emitNum(c, 41)
	emitStr(c, "lib.so")
	emitStr(c, "inc")
	c.Emit(OpFfiCall)
	c.EmitByte(1)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	sink := &mockSink{result: NumberValue(42)}
	machine.SetForeignCallSink(sink)
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "42\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if sink.dll != "lib.so" || sink.fn != "inc" {
		t.Errorf("sink saw %s!%s", sink.dll, sink.fn)
	}
	if len(sink.args) != 1 || sink.args[0].Num != 41 {
		t.Errorf("sink args = %+v", sink.args)
	}
}

func TestRandomDeterministicWithSeed(t *testing.T) {
	c := NewChunk("t")
	c.Emit(OpRandom)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	run := func() string {
		machine, out, _ := newTestVM()
		machine.SeedRandom(1234)
		if err := machine.Run(c); err != nil {
			t.Fatal(err)
		}
		return out.String()
	}
	first := run()
	second := run()
	if first != second {
		t.Errorf("seeded runs differ: %q vs %q", first, second)
	}
}

func TestCallnArr(t *testing.T) {
	c := addFunctionChunk()
	emitNum(c, 20)
	emitNum(c, 22)
	c.Emit(OpNewArray)
	c.EmitByte(2)
	emitStr(c, "add")
	c.Emit(OpCallnArr)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "42\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestEmitChunkWritesLoadableFile(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "emitted.cat")

	// Build {code: [OP_HALT]} as a runtime map and emit it.
	c := NewChunk("t")
	nameIdx := c.AddName("spec")
	c.Emit(OpNewMap)
	c.Emit(OpSetGlobal)
	c.EmitU16(nameIdx)

	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitStr(c, "code")
	emitNum(c, float64(OpHalt))
	c.Emit(OpNewArray)
	c.EmitByte(1)
	c.Emit(OpMapSet)
	c.Emit(OpPop)

	c.Emit(OpGetGlobal)
	c.EmitU16(nameIdx)
	emitStr(c, outPath)
	c.Emit(OpEmitChunk)
	emitPrint(c, 1)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "true\n" {
		t.Fatalf("emit result = %q", out.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	emitted, err := Deserialize(data, "emitted.cat")
	if err != nil {
		t.Fatalf("emitted chunk must deserialize: %v", err)
	}
	if len(emitted.Code) != 1 || Opcode(emitted.Code[0]) != OpHalt {
		t.Errorf("emitted code = %v", emitted.Code)
	}
}

func TestEvalPreservesGlobals(t *testing.T) {
	machine, out, _ := newTestVM()

	first := NewChunk("repl")
	nameIdx := first.AddName("x")
	emitNum(first, 10)
	first.Emit(OpSetGlobal)
	first.EmitU16(nameIdx)
	first.Emit(OpHalt)
	if err := machine.Eval(first); err != nil {
		t.Fatal(err)
	}

	second := NewChunk("repl")
	nameIdx2 := second.AddName("x")
	second.Emit(OpGetGlobal)
	second.EmitU16(nameIdx2)
	emitPrint(second, 1)
	second.Emit(OpHalt)
	if err := machine.Eval(second); err != nil {
		t.Fatal(err)
	}

	if out.String() != "10\n" {
		t.Errorf("stdout = %q, want globals preserved across Eval", out.String())
	}
}

func TestRunClearsState(t *testing.T) {
	c := NewChunk("t")
	emitNum(c, 1)
	emitNum(c, 2)
	c.Emit(OpNewArray)
	c.EmitByte(2)
	nameIdx := c.AddName("a")
	c.Emit(OpSetGlobal)
	c.EmitU16(nameIdx)
	c.Emit(OpHalt)

	machine, _, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	stats := machine.MemStats()
	if stats.ArraysCreated != 1 || stats.ArraysDestroyed != 1 {
		t.Errorf("halt must release containers: %+v", stats)
	}
	if len(machine.Globals()) != 0 {
		t.Errorf("globals not cleared: %v", machine.Globals())
	}
}

func TestStreamWrite(t *testing.T) {
	c := NewChunk("t")
	c.Emit(OpStdout)
	emitStr(c, "direct")
	c.Emit(OpFwrite)
	c.Emit(OpPop)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "direct" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestFileStreams(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")

	// fopen w, fwrite two lines, fclose; fopen r, freadline twice, at EOF nil.
	c := NewChunk("t")
	h := c.AddName("h")
	emitStr(c, path)
	emitStr(c, "w")
	c.Emit(OpFopen)
	c.Emit(OpSetGlobal)
	c.EmitU16(h)

	c.Emit(OpGetGlobal)
	c.EmitU16(h)
	emitStr(c, "one\ntwo\n")
	c.Emit(OpFwrite)
	c.Emit(OpPop)

	c.Emit(OpGetGlobal)
	c.EmitU16(h)
	c.Emit(OpFclose)
	c.Emit(OpPop)

	emitStr(c, path)
	emitStr(c, "r")
	c.Emit(OpFopen)
	c.Emit(OpSetGlobal)
	c.EmitU16(h)

	for i := 0; i < 3; i++ {
		c.Emit(OpGetGlobal)
		c.EmitU16(h)
		c.Emit(OpFreadline)
	}
	emitPrint(c, 3)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "one two nil\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestWholeFileIO(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")

	c := NewChunk("t")
	emitStr(c, path)
	emitStr(c, "payload")
	c.Emit(OpWriteFile)
	emitStr(c, path)
	c.Emit(OpReadFile)
	emitStr(c, path)
	c.Emit(OpFileExists)
	emitPrint(c, 3)
	c.Emit(OpHalt)

	machine, out, _ := newTestVM()
	if err := machine.Run(c); err != nil {
		t.Fatal(err)
	}
	if out.String() != "true payload true\n" {
		t.Errorf("stdout = %q", out.String())
	}
}
