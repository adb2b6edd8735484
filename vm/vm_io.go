package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// initStreams builds the handle table with 0/1/2 mapped to the process
// standard streams.
func (vm *VM) initStreams() {
	vm.streams = map[int]*stream{
		0: {reader: bufio.NewReader(vm.stdin)},
		1: {writer: vm.stdout},
		2: {writer: vm.stderr},
	}
	vm.nextHandle = 3
}

// closeStreams closes every stream the program opened. Handles 0/1/2 are
// borrowed from the process and never closed.
func (vm *VM) closeStreams() {
	for h, s := range vm.streams {
		if h > 2 && s.closer != nil {
			s.closer.Close()
		}
		delete(vm.streams, h)
	}
}

// stepIO executes the I/O, output, and meta opcodes.
func (vm *VM) stepIO(op Opcode, opOffset int) *Error {
	switch op {

	// ============ Whole-file I/O ============
	case OpReadFile:
		path := vm.popString()
		data, err := os.ReadFile(path)
		if err != nil {
			vm.push(NilValue())
		} else {
			vm.push(StringValue(string(data)))
		}

	case OpWriteFile:
		data := vm.popString()
		path := vm.popString()
		err := os.WriteFile(path, []byte(data), 0o644)
		vm.push(BoolValue(err == nil))

	case OpFileExists:
		path := vm.popString()
		_, err := os.Stat(path)
		vm.push(BoolValue(err == nil))

	// ============ Streams ============
	case OpFopen:
		mode := vm.popString()
		path := vm.popString()
		vm.push(vm.openStream(path, mode))

	case OpFclose:
		h := int(vm.popNum())
		if s, ok := vm.streams[h]; ok && h > 2 {
			if s.closer != nil {
				s.closer.Close()
			}
			delete(vm.streams, h)
		}
		vm.push(NilValue())

	case OpFread:
		n := int(vm.popNum())
		h := int(vm.popNum())
		s, ok := vm.streams[h]
		if !ok || s.reader == nil || n < 0 {
			vm.push(NilValue())
			break
		}
		buf := make([]byte, n)
		read, err := io.ReadFull(s.reader, buf)
		if read == 0 && err != nil {
			vm.push(NilValue())
		} else {
			vm.push(StringValue(string(buf[:read])))
		}

	case OpFreadline:
		h := int(vm.popNum())
		s, ok := vm.streams[h]
		if !ok || s.reader == nil {
			vm.push(NilValue())
			break
		}
		line, err := s.reader.ReadString('\n')
		if line == "" && err != nil {
			vm.push(NilValue())
		} else {
			line = strings.TrimRight(line, "\r\n")
			vm.push(StringValue(line))
		}

	case OpFwrite:
		data := vm.popString()
		h := int(vm.popNum())
		s, ok := vm.streams[h]
		if !ok || s.writer == nil {
			vm.push(NumberValue(0))
			break
		}
		n, _ := s.writer.Write([]byte(data))
		vm.push(NumberValue(float64(n)))

	case OpStdin:
		vm.push(NumberValue(0))
	case OpStdout:
		vm.push(NumberValue(1))
	case OpStderr:
		vm.push(NumberValue(2))

	// ============ Output ============
	case OpPrint:
		argc := int(vm.readU8())
		parts := make([]string, argc)
		for i := argc - 1; i >= 0; i-- {
			v := vm.pop()
			parts[i] = v.ToString()
			v.Release(&vm.stats)
		}
		fmt.Fprintln(vm.stdout, strings.Join(parts, " "))

	// ============ Control and meta ============
	case OpAssert:
		cond := vm.pop()
		truthy := cond.IsTruthy()
		cond.Release(&vm.stats)
		if !truthy {
			return vm.fatalError(opOffset, AssertionFailure, "assertion failed")
		}

	case OpPanic:
		msg := vm.popString()
		return vm.fatalError(opOffset, UserPanic, "panic: %s", msg)

	case OpExit:
		code := vm.pop()
		vm.exitCode = int(code.AsNumber())
		code.Release(&vm.stats)
		vm.exited = true
		vm.halted = true

	case OpEmitChunk:
		path := vm.popString()
		desc := vm.pop()
		emitted := vm.emitChunk(desc, path)
		desc.Release(&vm.stats)
		vm.push(BoolValue(emitted))

	case OpOpcodeID:
		name := vm.popString()
		if op, ok := OpcodeByName(name); ok {
			vm.push(NumberValue(float64(op)))
		} else {
			vm.push(NumberValue(-1))
		}

	case OpCallnArr:
		fnName := vm.popString()
		argsVal := vm.pop()
		nameIdx, ok := vm.chunk.LookupName(fnName)
		if !ok {
			argsVal.Release(&vm.stats)
			return vm.fatalError(opOffset, RuntimeError, "call to undefined function '%s'", fnName)
		}
		argc := 0
		if argsVal.IsArray() && argsVal.Arr != nil {
			argc = len(argsVal.Arr.Elems)
			for _, e := range argsVal.Arr.Elems {
				e.Retain()
				vm.push(e)
			}
		}
		argsVal.Release(&vm.stats)
		return vm.callByNameIndex(nameIdx, argc, opOffset)

	// ============ FFI ============
	case OpFfiCall:
		argc := int(vm.readU8())
		fn := vm.popString()
		dll := vm.popString()
		args := vm.popArgs(argc)
		if vm.sink == nil {
			vm.warnNoSink()
			vm.push(NumberValue(0))
			break
		}
		res, err := vm.sink.Call(dll, fn, args)
		if err != nil {
			vm.report(opOffset, "ffi call %s!%s: %v", dll, fn, err)
			vm.push(NumberValue(0))
		} else {
			vm.push(res)
		}

	case OpFfiCallSig:
		argc := int(vm.readU8())
		sig := vm.popString()
		fn := vm.popString()
		dll := vm.popString()
		args := vm.popArgs(argc)
		if vm.sink == nil {
			vm.warnNoSink()
			vm.push(NumberValue(0))
			break
		}
		res, err := vm.sink.CallSig(dll, fn, sig, args)
		if err != nil {
			vm.report(opOffset, "ffi call %s!%s: %v", dll, fn, err)
			vm.push(NumberValue(0))
		} else {
			vm.push(res)
		}

	case OpFfiProc:
		fn := vm.popString()
		dll := vm.popString()
		if vm.sink == nil {
			vm.warnNoSink()
			vm.push(NumberValue(0))
			break
		}
		addr, err := vm.sink.Proc(dll, fn)
		if err != nil {
			vm.report(opOffset, "ffi proc %s!%s: %v", dll, fn, err)
			vm.push(NumberValue(0))
		} else {
			vm.push(NumberValue(addr))
		}

	case OpFfiCallPtr:
		argc := int(vm.readU8())
		sig := vm.popString()
		proc := vm.popNum()
		args := vm.popArgs(argc)
		if vm.sink == nil {
			vm.warnNoSink()
			vm.push(NumberValue(0))
			break
		}
		res, err := vm.sink.CallPtr(proc, sig, args)
		if err != nil {
			vm.report(opOffset, "ffi call ptr: %v", err)
			vm.push(NumberValue(0))
		} else {
			vm.push(res)
		}

	default:
		return vm.fatalError(opOffset, RuntimeError, "unknown opcode 0x%02X", byte(op))
	}
	return nil
}

// popArgs pops argc values preserving source order (TOS is the last arg).
func (vm *VM) popArgs(argc int) []Value {
	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	return args
}

// warnNoSink logs the one-time warning emitted when FFI opcodes run with
// no configured sink.
func (vm *VM) warnNoSink() {
	if !vm.ffiWarned {
		vm.log.Warningf("run %s: FFI opcode executed with no foreign call sink; pushing 0", vm.runID)
		vm.ffiWarned = true
	}
}

// openStream implements OP_FOPEN: returns a fresh handle, or -1.
func (vm *VM) openStream(path, mode string) Value {
	var (
		f   *os.File
		err error
	)
	switch mode {
	case "r", "":
		f, err = os.Open(path)
	case "w":
		f, err = os.Create(path)
	case "a":
		f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	default:
		return NumberValue(-1)
	}
	if err != nil {
		return NumberValue(-1)
	}
	h := vm.nextHandle
	vm.nextHandle++
	vm.streams[h] = &stream{reader: bufio.NewReader(f), writer: f, closer: f}
	return NumberValue(float64(h))
}

// emitChunk implements OP_EMIT_CHUNK: rebuild a Chunk from a runtime map
// (keys: constants, names, functions, code, debugLines, debugCols,
// sourceName) and serialize it to path. This is what lets bytecode
// assemblers written in the language emit runnable chunks.
func (vm *VM) emitChunk(desc Value, path string) bool {
	if !desc.IsMap() || desc.Map == nil {
		return false
	}
	entries := desc.Map.Entries

	out := NewChunk(path)
	if sn, ok := entries["sourceName"]; ok && sn.IsString() {
		out.SourceName = sn.Str
	}

	if consts, ok := entries["constants"]; ok && consts.IsArray() && consts.Arr != nil {
		for _, c := range consts.Arr.Elems {
			switch c.Kind {
			case KindNil, KindNumber, KindString, KindBool:
				out.Constants = append(out.Constants, c)
			default:
				out.Constants = append(out.Constants, NilValue())
			}
		}
	}

	if names, ok := entries["names"]; ok && names.IsArray() && names.Arr != nil {
		for _, n := range names.Arr.Elems {
			out.Names = append(out.Names, n.ToString())
		}
	}

	if funcs, ok := entries["functions"]; ok && funcs.IsArray() && funcs.Arr != nil {
		for _, f := range funcs.Arr.Elems {
			if !f.IsMap() || f.Map == nil {
				continue
			}
			fe := FuncEntry{}
			if v, ok := f.Map.Entries["nameIndex"]; ok {
				fe.NameIndex = uint16(v.AsNumber())
			}
			if v, ok := f.Map.Entries["arity"]; ok {
				fe.Arity = uint16(v.AsNumber())
			}
			if v, ok := f.Map.Entries["entry"]; ok {
				fe.Entry = uint32(v.AsNumber())
			}
			out.Functions = append(out.Functions, fe)
		}
	}

	if code, ok := entries["code"]; ok && code.IsArray() && code.Arr != nil {
		for _, b := range code.Arr.Elems {
			out.Code = append(out.Code, byte(int64(b.AsNumber())))
		}
	}

	if lines, ok := entries["debugLines"]; ok && lines.IsArray() && lines.Arr != nil {
		for _, l := range lines.Arr.Elems {
			out.DebugLines = append(out.DebugLines, uint32(l.AsNumber()))
		}
	}
	if cols, ok := entries["debugCols"]; ok && cols.IsArray() && cols.Arr != nil {
		for _, c := range cols.Arr.Elems {
			out.DebugCols = append(out.DebugCols, uint32(c.AsNumber()))
		}
	}

	if err := os.WriteFile(path, out.Serialize(), 0o644); err != nil {
		vm.log.Errorf("run %s: emit chunk to %s: %v", vm.runID, path, err)
		return false
	}
	return true
}
