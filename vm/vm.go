package vm

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// Frame is the per-call record on the interpreter's call stack.
type Frame struct {
	returnPC int
	locals   []Value
}

// stream is one entry in the open-stream table. Handles 0/1/2 are the
// process standard streams and are borrowed, never closed.
type stream struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
}

// VM executes bytecode chunks. It is strictly single-threaded: one VM
// owns its globals and heap exclusively, and no instruction yields.
type VM struct {
	chunk  *Chunk
	pc     int
	stack  []Value
	frames []Frame

	globals map[string]Value
	heap    *Heap

	streams    map[int]*stream
	nextHandle int

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	sink ForeignCallSink
	jit  NumericJit

	rng    *rand.Rand
	stats  MemStats
	memdbg bool

	runID string
	log   commonlog.Logger

	ffiWarned bool

	halted   bool
	exited   bool
	exitCode int
	fatal    *Error
}

// New creates a VM wired to the process standard streams.
func New() *VM {
	return &VM{
		stack:   make([]Value, 0, 256),
		globals: make(map[string]Value),
		heap:    NewHeap(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		runID:   uuid.NewString(),
		log:     commonlog.GetLogger("catlang.vm"),
	}
}

// SetStdin redirects the VM's standard input (tests, REPL).
func (vm *VM) SetStdin(r io.Reader) { vm.stdin = r }

// SetStdout redirects the VM's standard output.
func (vm *VM) SetStdout(w io.Writer) { vm.stdout = w }

// SetStderr redirects the VM's error/report stream.
func (vm *VM) SetStderr(w io.Writer) { vm.stderr = w }

// SetForeignCallSink installs the FFI collaborator.
func (vm *VM) SetForeignCallSink(sink ForeignCallSink) { vm.sink = sink }

// SetNumericJit installs the optional expression JIT.
func (vm *VM) SetNumericJit(jit NumericJit) { vm.jit = jit }

// SetMemDebug enables the container create/destroy report at halt
// (CB_MEMDBG).
func (vm *VM) SetMemDebug(on bool) { vm.memdbg = on }

// SeedRandom makes OP_RANDOM deterministic (test hook).
func (vm *VM) SeedRandom(seed int64) { vm.rng = rand.New(rand.NewSource(seed)) }

// ExitCode returns the code set by OP_EXIT, or 0.
func (vm *VM) ExitCode() int { return vm.exitCode }

// Exited reports whether the run terminated via OP_EXIT.
func (vm *VM) Exited() bool { return vm.exited }

// MemStats returns the container lifecycle counters (test hook).
func (vm *VM) MemStats() MemStats { return vm.stats }

// Globals returns the VM's global table itself, not a copy (test hook;
// the table is emptied when run state is cleared at halt).
func (vm *VM) Globals() map[string]Value { return vm.globals }

// RunID returns the unique id tagged on this VM's log lines.
func (vm *VM) RunID() string { return vm.runID }

// Run executes a chunk from offset 0 until OP_HALT, OP_EXIT, end of code,
// or a fatal error. All VM state is created at entry and cleared on exit.
func (vm *VM) Run(c *Chunk) error {
	vm.resetState()
	vm.execLoop(c)

	if vm.fatal != nil {
		fmt.Fprintln(vm.stderr, vm.fatal.Error())
	}
	vm.clearState()

	if vm.fatal != nil {
		return vm.fatal
	}
	return nil
}

// Eval executes a chunk while preserving globals, heap, and streams
// across calls (REPL mode). State is cleared only when the program exits
// or fails fatally.
func (vm *VM) Eval(c *Chunk) error {
	if vm.streams == nil {
		vm.resetState()
	}
	// Fresh control state; persistent data state.
	vm.stack = vm.stack[:0]
	vm.frames = []Frame{{returnPC: -1}}
	vm.execLoop(c)

	if vm.fatal != nil {
		fmt.Fprintln(vm.stderr, vm.fatal.Error())
	}
	for len(vm.stack) > 0 {
		vm.popRelease()
	}
	if vm.exited || vm.fatal != nil {
		vm.clearState()
	}
	if vm.fatal != nil {
		return vm.fatal
	}
	return nil
}

// resetState builds fresh run state: empty stack, globals, heap, a base
// frame for top-level locals, and the standard stream handles.
func (vm *VM) resetState() {
	vm.stack = vm.stack[:0]
	vm.globals = make(map[string]Value)
	vm.heap = NewHeap()
	vm.frames = []Frame{{returnPC: -1}}
	vm.stats = MemStats{}
	vm.initStreams()
}

func (vm *VM) execLoop(c *Chunk) {
	vm.chunk = c
	vm.pc = 0
	vm.halted = false
	vm.exited = false
	vm.fatal = nil

	vm.log.Debugf("run %s: executing %s (%d bytes of code)", vm.runID, c.SourceName, len(c.Code))

	for !vm.halted && vm.pc < len(vm.chunk.Code) {
		op := Opcode(vm.chunk.Code[vm.pc])
		opOffset := vm.pc
		vm.pc++

		if err := vm.step(op, opOffset); err != nil {
			vm.fatal = err
			break
		}
	}
}

// step executes one decoded opcode. The PC has already moved past the
// opcode byte; operand reads advance it further before the effect runs.
func (vm *VM) step(op Opcode, opOffset int) *Error {
	switch op {

	// ============ Stack and constants ============
	case OpConst:
		idx := vm.readU16()
		if int(idx) < len(vm.chunk.Constants) {
			vm.push(vm.chunk.Constants[idx])
		} else {
			vm.push(NilValue())
		}

	case OpPop:
		vm.popRelease()

	case OpHalt:
		vm.halted = true

	// ============ Variables ============
	case OpGetGlobal:
		idx := vm.readU16()
		name := vm.name(idx)
		if v, ok := vm.globals[name]; ok {
			v.Retain()
			vm.push(v)
		} else {
			vm.push(NilValue())
		}

	case OpSetGlobal:
		idx := vm.readU16()
		name := vm.name(idx)
		v := vm.pop()
		if old, ok := vm.globals[name]; ok {
			old.Release(&vm.stats)
		}
		vm.globals[name] = v

	case OpGetLocal:
		slot := int(vm.readU16())
		f := vm.frame()
		if slot < len(f.locals) {
			v := f.locals[slot]
			v.Retain()
			vm.push(v)
		} else {
			vm.push(NilValue())
		}

	case OpSetLocal:
		slot := int(vm.readU16())
		f := vm.frame()
		for len(f.locals) <= slot {
			f.locals = append(f.locals, NilValue())
		}
		f.locals[slot].Release(&vm.stats)
		f.locals[slot] = vm.pop()

	// ============ Control flow ============
	case OpJump:
		delta := vm.readU16()
		vm.pc += int(delta)

	case OpJumpIfFalse:
		delta := vm.readU16()
		if !vm.peek().IsTruthy() {
			vm.pc += int(delta)
		}

	case OpLoop:
		delta := vm.readU16()
		vm.pc -= int(delta)

	case OpCall:
		nameIdx := vm.readU16()
		argc := int(vm.readU8())
		return vm.callByNameIndex(nameIdx, argc, opOffset)

	case OpReturn:
		if len(vm.frames) <= 1 {
			vm.halted = true
			return nil
		}
		f := vm.frames[len(vm.frames)-1]
		vm.frames = vm.frames[:len(vm.frames)-1]
		for _, l := range f.locals {
			l.Release(&vm.stats)
		}
		vm.pc = f.returnPC

	// ============ Arithmetic ============
	case OpAdd:
		b, a := vm.popNum(), vm.popNum()
		vm.push(NumberValue(a + b))
	case OpSub:
		b, a := vm.popNum(), vm.popNum()
		vm.push(NumberValue(a - b))
	case OpMul:
		b, a := vm.popNum(), vm.popNum()
		vm.push(NumberValue(a * b))
	case OpDiv:
		b, a := vm.popNum(), vm.popNum()
		if b == 0 {
			vm.report(opOffset, "division by zero")
			vm.push(NumberValue(0))
		} else {
			vm.push(NumberValue(a / b))
		}
	case OpMod:
		b, a := vm.popNum(), vm.popNum()
		if b == 0 {
			vm.report(opOffset, "modulo by zero")
			vm.push(NumberValue(0))
		} else {
			vm.push(NumberValue(float64(int64(a) % int64(b))))
		}

	// ============ Comparison ============
	case OpGt:
		b, a := vm.popNum(), vm.popNum()
		vm.push(BoolValue(a > b))
	case OpGe:
		b, a := vm.popNum(), vm.popNum()
		vm.push(BoolValue(a >= b))
	case OpLt:
		b, a := vm.popNum(), vm.popNum()
		vm.push(BoolValue(a < b))
	case OpLe:
		b, a := vm.popNum(), vm.popNum()
		vm.push(BoolValue(a <= b))
	case OpEq:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolValue(a.Equals(b)))
		a.Release(&vm.stats)
		b.Release(&vm.stats)
	case OpNe:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolValue(!a.Equals(b)))
		a.Release(&vm.stats)
		b.Release(&vm.stats)

	// ============ Logical (eager: both operands already evaluated) ============
	case OpAnd:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolValue(a.IsTruthy() && b.IsTruthy()))
		a.Release(&vm.stats)
		b.Release(&vm.stats)
	case OpOr:
		b, a := vm.pop(), vm.pop()
		vm.push(BoolValue(a.IsTruthy() || b.IsTruthy()))
		a.Release(&vm.stats)
		b.Release(&vm.stats)

	// ============ Arrays ============
	case OpNewArray:
		n := int(vm.readU8())
		elems := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			elems[i] = vm.pop()
		}
		vm.push(ArrayValue(NewArray(elems, &vm.stats)))

	case OpIndexGet:
		idx := vm.pop()
		arr := vm.pop()
		vm.push(arrayGet(arr, idx))
		arr.Release(&vm.stats)

	case OpIndexSet:
		val := vm.pop()
		idx := vm.pop()
		arr := vm.pop()
		arraySet(arr, idx, val, &vm.stats)
		arr.Release(&vm.stats)

	case OpLen:
		v := vm.pop()
		vm.push(NumberValue(float64(lengthOf(v))))
		v.Release(&vm.stats)

	case OpAppend:
		val := vm.pop()
		arr := vm.pop()
		if arr.IsArray() && arr.Arr != nil {
			arr.Arr.Elems = append(arr.Arr.Elems, val)
		} else {
			val.Release(&vm.stats)
		}
		arr.Release(&vm.stats)
		vm.push(NilValue())

	case OpArrayPop:
		arr := vm.pop()
		if arr.IsArray() && arr.Arr != nil && len(arr.Arr.Elems) > 0 {
			last := arr.Arr.Elems[len(arr.Arr.Elems)-1]
			arr.Arr.Elems = arr.Arr.Elems[:len(arr.Arr.Elems)-1]
			vm.push(last)
		} else {
			vm.push(NilValue())
		}
		arr.Release(&vm.stats)

	case OpArrayReserve:
		capVal := vm.pop()
		arr := vm.pop()
		if arr.IsArray() && arr.Arr != nil {
			want := int(capVal.AsNumber())
			if want > cap(arr.Arr.Elems) {
				grown := make([]Value, len(arr.Arr.Elems), want)
				copy(grown, arr.Arr.Elems)
				arr.Arr.Elems = grown
			}
		}
		arr.Release(&vm.stats)
		vm.push(NilValue())

	case OpArrayClear:
		arr := vm.pop()
		if arr.IsArray() && arr.Arr != nil {
			for _, e := range arr.Arr.Elems {
				e.Release(&vm.stats)
			}
			arr.Arr.Elems = arr.Arr.Elems[:0]
		}
		arr.Release(&vm.stats)
		vm.push(NilValue())

	// ============ Maps ============
	case OpNewMap:
		vm.push(MapValue(NewMap(&vm.stats)))

	case OpMapGet:
		key := vm.pop()
		m := vm.pop()
		if m.IsMap() && m.Map != nil && key.IsString() {
			if v, ok := m.Map.Entries[key.Str]; ok {
				v.Retain()
				vm.push(v)
			} else {
				vm.push(NilValue())
			}
		} else {
			vm.push(NilValue())
		}
		m.Release(&vm.stats)

	case OpMapSet:
		val := vm.pop()
		key := vm.pop()
		m := vm.pop()
		if m.IsMap() && m.Map != nil && key.IsString() {
			if old, ok := m.Map.Entries[key.Str]; ok {
				old.Release(&vm.stats)
			}
			m.Map.Entries[key.Str] = val
		} else {
			val.Release(&vm.stats)
		}
		m.Release(&vm.stats)
		vm.push(NilValue())

	case OpMapHas:
		key := vm.pop()
		m := vm.pop()
		has := m.IsMap() && m.Map != nil && key.IsString()
		if has {
			_, has = m.Map.Entries[key.Str]
		}
		m.Release(&vm.stats)
		vm.push(BoolValue(has))

	case OpMapDel:
		key := vm.pop()
		m := vm.pop()
		if m.IsMap() && m.Map != nil && key.IsString() {
			if old, ok := m.Map.Entries[key.Str]; ok {
				old.Release(&vm.stats)
				delete(m.Map.Entries, key.Str)
			}
		}
		m.Release(&vm.stats)
		vm.push(NilValue())

	case OpMapKeys:
		m := vm.pop()
		vm.push(mapKeys(m, &vm.stats))
		m.Release(&vm.stats)

	case OpMapSize:
		m := vm.pop()
		n := 0
		if m.IsMap() && m.Map != nil {
			n = len(m.Map.Entries)
		}
		m.Release(&vm.stats)
		vm.push(NumberValue(float64(n)))

	case OpMapClear:
		m := vm.pop()
		if m.IsMap() && m.Map != nil {
			for k, e := range m.Map.Entries {
				e.Release(&vm.stats)
				delete(m.Map.Entries, k)
			}
		}
		m.Release(&vm.stats)
		vm.push(NilValue())

	default:
		return vm.stepExtended(op, opOffset)
	}
	return nil
}

// callByNameIndex implements OP_CALL: resolve, arity-check, build frame.
func (vm *VM) callByNameIndex(nameIdx uint16, argc int, opOffset int) *Error {
	fn, ok := vm.chunk.FunctionByName(nameIdx)
	if !ok {
		return vm.fatalError(opOffset, RuntimeError, "call to undefined function '%s'", vm.name(nameIdx))
	}
	if argc != int(fn.Arity) {
		return vm.fatalError(opOffset, RuntimeError,
			"function '%s' expects %d arguments, got %d", vm.name(nameIdx), fn.Arity, argc)
	}
	locals := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		locals[i] = vm.pop()
	}
	vm.frames = append(vm.frames, Frame{returnPC: vm.pc, locals: locals})
	vm.pc = int(fn.Entry)
	return nil
}

// ---------------------------------------------------------------------------
// Stack and decode helpers
// ---------------------------------------------------------------------------

func (vm *VM) push(v Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() Value {
	if len(vm.stack) == 0 {
		return NilValue()
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

// popRelease pops and drops the stack's reference.
func (vm *VM) popRelease() {
	v := vm.pop()
	v.Release(&vm.stats)
}

func (vm *VM) peek() Value {
	if len(vm.stack) == 0 {
		return NilValue()
	}
	return vm.stack[len(vm.stack)-1]
}

func (vm *VM) popNum() float64 {
	v := vm.pop()
	n := v.AsNumber()
	v.Release(&vm.stats)
	return n
}

func (vm *VM) popString() string {
	v := vm.pop()
	s := v.ToString()
	v.Release(&vm.stats)
	return s
}

func (vm *VM) frame() *Frame {
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) readU8() byte {
	b := vm.chunk.Code[vm.pc]
	vm.pc++
	return b
}

func (vm *VM) readU16() uint16 {
	v := uint16(vm.chunk.Code[vm.pc]) | uint16(vm.chunk.Code[vm.pc+1])<<8
	vm.pc += 2
	return v
}

func (vm *VM) name(idx uint16) string {
	if int(idx) < len(vm.chunk.Names) {
		return vm.chunk.Names[idx]
	}
	return ""
}

// ---------------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------------

// report prints a non-fatal runtime error with the source location of the
// failing opcode; execution continues with a default value.
func (vm *VM) report(opOffset int, format string, args ...interface{}) {
	line, col := vm.chunk.Location(opOffset)
	e := &Error{
		Kind:   RuntimeError,
		Source: vm.chunk.SourceName,
		Line:   line,
		Col:    col,
		Msg:    fmt.Sprintf(format, args...),
	}
	fmt.Fprintln(vm.stderr, e.Error())
}

// fatalError builds a located error that terminates the run.
func (vm *VM) fatalError(opOffset int, kind ErrorKind, format string, args ...interface{}) *Error {
	line, col := vm.chunk.Location(opOffset)
	return &Error{
		Kind:   kind,
		Source: vm.chunk.SourceName,
		Line:   line,
		Col:    col,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// clearState releases every value reachable from the stack, globals, and
// frames, resets the heap, and closes non-standard streams.
func (vm *VM) clearState() {
	for _, v := range vm.stack {
		v.Release(&vm.stats)
	}
	vm.stack = vm.stack[:0]
	for name, v := range vm.globals {
		v.Release(&vm.stats)
		delete(vm.globals, name)
	}
	for _, f := range vm.frames {
		for _, l := range f.locals {
			l.Release(&vm.stats)
		}
	}
	vm.frames = nil
	vm.heap.Reset()
	vm.closeStreams()
	vm.streams = nil

	if vm.memdbg {
		fmt.Fprintf(vm.stderr, "[memdbg] arrays created=%d destroyed=%d, maps created=%d destroyed=%d\n",
			vm.stats.ArraysCreated, vm.stats.ArraysDestroyed,
			vm.stats.MapsCreated, vm.stats.MapsDestroyed)
	}
}

// ---------------------------------------------------------------------------
// Container helpers
// ---------------------------------------------------------------------------

// arrayGet implements OP_INDEX_GET: strings index by byte; out-of-range
// and non-integer indices yield nil.
func arrayGet(arr, idx Value) Value {
	if arr.IsString() {
		return strIndex(arr.Str, idx)
	}
	if !arr.IsArray() || arr.Arr == nil || !idx.IsNumber() {
		return NilValue()
	}
	i := int(idx.Num)
	if float64(i) != idx.Num || i < 0 || i >= len(arr.Arr.Elems) {
		return NilValue()
	}
	v := arr.Arr.Elems[i]
	v.Retain()
	return v
}

// arraySet implements OP_INDEX_SET: out-of-range writes are no-ops.
func arraySet(arr, idx, val Value, stats *MemStats) {
	if !arr.IsArray() || arr.Arr == nil || !idx.IsNumber() {
		val.Release(stats)
		return
	}
	i := int(idx.Num)
	if float64(i) != idx.Num || i < 0 || i >= len(arr.Arr.Elems) {
		val.Release(stats)
		return
	}
	arr.Arr.Elems[i].Release(stats)
	arr.Arr.Elems[i] = val
}

// lengthOf implements OP_LEN: array length, string byte count, else 0.
func lengthOf(v Value) int {
	switch {
	case v.IsArray() && v.Arr != nil:
		return len(v.Arr.Elems)
	case v.IsString():
		return len(v.Str)
	}
	return 0
}
