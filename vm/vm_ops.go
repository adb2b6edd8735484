package vm

import (
	"math"
	"strconv"
	"strings"
)

// stepExtended executes the string, math, bitwise, memory, packing, I/O,
// and meta opcodes. Split from step to keep the hot switch readable.
func (vm *VM) stepExtended(op Opcode, opOffset int) *Error {
	switch op {

	// ============ Strings ============
	case OpStrIndex:
		idx := vm.pop()
		s := vm.pop()
		vm.push(strIndex(s.ToString(), idx))
		s.Release(&vm.stats)

	case OpSubstr:
		end := int(vm.popNum())
		start := int(vm.popNum())
		s := vm.popString()
		if start < 0 {
			start = 0
		}
		if end > len(s) {
			end = len(s)
		}
		if start > len(s) {
			start = len(s)
		}
		if end < start {
			end = start
		}
		vm.push(StringValue(s[start:end]))

	case OpStrFind:
		needle := vm.popString()
		hay := vm.popString()
		vm.push(NumberValue(float64(strings.Index(hay, needle))))

	case OpSplit:
		sep := vm.popString()
		s := vm.popString()
		vm.push(splitString(s, sep, &vm.stats))

	case OpStrCat:
		b := vm.popString()
		a := vm.popString()
		vm.push(StringValue(a + b))

	case OpJoin:
		sep := vm.popString()
		arr := vm.pop()
		var parts []string
		if arr.IsArray() && arr.Arr != nil {
			parts = make([]string, len(arr.Arr.Elems))
			for i, e := range arr.Arr.Elems {
				parts[i] = e.ToString()
			}
		}
		arr.Release(&vm.stats)
		vm.push(StringValue(strings.Join(parts, sep)))

	case OpTrim:
		vm.push(StringValue(strings.TrimSpace(vm.popString())))

	case OpReplace:
		newStr := vm.popString()
		oldStr := vm.popString()
		s := vm.popString()
		if oldStr == "" {
			vm.push(StringValue(s))
		} else {
			vm.push(StringValue(strings.ReplaceAll(s, oldStr, newStr)))
		}

	case OpStrUpper:
		vm.push(StringValue(strings.ToUpper(vm.popString())))

	case OpStrLower:
		vm.push(StringValue(strings.ToLower(vm.popString())))

	case OpStrContains:
		needle := vm.popString()
		hay := vm.popString()
		vm.push(BoolValue(strings.Contains(hay, needle)))

	case OpFormat:
		argc := int(vm.readU8())
		args := make([]Value, argc)
		for i := argc - 1; i >= 0; i-- {
			args[i] = vm.pop()
		}
		format := vm.popString()
		vm.push(StringValue(formatBraces(format, args)))
		for _, a := range args {
			a.Release(&vm.stats)
		}

	case OpStartsWith:
		prefix := vm.popString()
		s := vm.popString()
		vm.push(BoolValue(strings.HasPrefix(s, prefix)))

	case OpEndsWith:
		suffix := vm.popString()
		s := vm.popString()
		vm.push(BoolValue(strings.HasSuffix(s, suffix)))

	case OpOrd:
		s := vm.popString()
		if len(s) > 0 {
			vm.push(NumberValue(float64(s[0])))
		} else {
			vm.push(NumberValue(0))
		}

	case OpChr:
		n := vm.popNum()
		vm.push(StringValue(string([]byte{byte(int64(n))})))

	case OpToString:
		v := vm.pop()
		vm.push(StringValue(v.ToString()))
		v.Release(&vm.stats)

	case OpParseInt:
		s := strings.TrimSpace(vm.popString())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			vm.push(NumberValue(float64(n)))
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			vm.push(NumberValue(math.Trunc(f)))
		} else {
			vm.push(NilValue())
		}

	case OpParseFloat:
		s := strings.TrimSpace(vm.popString())
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			vm.push(NumberValue(f))
		} else {
			vm.push(NilValue())
		}

	// ============ Math ============
	case OpFloor:
		vm.push(NumberValue(math.Floor(vm.popNum())))
	case OpCeil:
		vm.push(NumberValue(math.Ceil(vm.popNum())))
	case OpRound:
		vm.push(NumberValue(math.Round(vm.popNum())))
	case OpSqrt:
		vm.push(NumberValue(math.Sqrt(vm.popNum())))
	case OpAbs:
		vm.push(NumberValue(math.Abs(vm.popNum())))
	case OpPow:
		exp := vm.popNum()
		base := vm.popNum()
		vm.push(NumberValue(math.Pow(base, exp)))
	case OpExp:
		vm.push(NumberValue(math.Exp(vm.popNum())))
	case OpLog:
		vm.push(NumberValue(math.Log(vm.popNum())))
	case OpSin:
		vm.push(NumberValue(math.Sin(vm.popNum())))
	case OpCos:
		vm.push(NumberValue(math.Cos(vm.popNum())))
	case OpTan:
		vm.push(NumberValue(math.Tan(vm.popNum())))
	case OpAsin:
		vm.push(NumberValue(math.Asin(vm.popNum())))
	case OpAcos:
		vm.push(NumberValue(math.Acos(vm.popNum())))
	case OpAtan:
		vm.push(NumberValue(math.Atan(vm.popNum())))
	case OpAtan2:
		x := vm.popNum()
		y := vm.popNum()
		vm.push(NumberValue(math.Atan2(y, x)))
	case OpRandom:
		vm.push(NumberValue(vm.rng.Float64()))

	// ============ Bitwise (through signed 64-bit) ============
	case OpBand:
		b, a := int64(vm.popNum()), int64(vm.popNum())
		vm.push(NumberValue(float64(a & b)))
	case OpBor:
		b, a := int64(vm.popNum()), int64(vm.popNum())
		vm.push(NumberValue(float64(a | b)))
	case OpBxor:
		b, a := int64(vm.popNum()), int64(vm.popNum())
		vm.push(NumberValue(float64(a ^ b)))
	case OpShl:
		b, a := int64(vm.popNum()), int64(vm.popNum())
		vm.push(NumberValue(float64(a << (uint64(b) & 63))))
	case OpShr:
		b, a := int64(vm.popNum()), int64(vm.popNum())
		vm.push(NumberValue(float64(a >> (uint64(b) & 63))))

	// ============ Memory ============
	case OpAlloc:
		size := int(vm.popNum())
		vm.push(PointerValue(vm.heap.Alloc(size)))

	case OpFree:
		p := vm.pop()
		if p.IsPointer() {
			vm.heap.Free(p.Ptr)
		}
		vm.push(NilValue())

	case OpPtrAdd:
		delta := int64(vm.popNum())
		p := vm.pop()
		if p.IsPointer() {
			vm.push(PointerValue(PtrAdd(p.Ptr, delta)))
		} else {
			vm.push(NilValue())
		}

	case OpLoad8, OpLoad16, OpLoad32, OpLoad64:
		off := int64(vm.popNum())
		p := vm.pop()
		var v uint64
		if p.IsPointer() {
			switch op {
			case OpLoad8:
				v = vm.heap.Load8(p.Ptr, off)
			case OpLoad16:
				v = vm.heap.Load16(p.Ptr, off)
			case OpLoad32:
				v = vm.heap.Load32(p.Ptr, off)
			case OpLoad64:
				v = vm.heap.Load64(p.Ptr, off)
			}
		}
		vm.push(NumberValue(float64(v)))

	case OpStore8, OpStore16, OpStore32, OpStore64:
		off := int64(vm.popNum())
		p := vm.pop()
		val := uint64(int64(vm.popNum()))
		if p.IsPointer() {
			switch op {
			case OpStore8:
				vm.heap.Store8(p.Ptr, off, val)
			case OpStore16:
				vm.heap.Store16(p.Ptr, off, val)
			case OpStore32:
				vm.heap.Store32(p.Ptr, off, val)
			case OpStore64:
				vm.heap.Store64(p.Ptr, off, val)
			}
		}
		vm.push(NilValue())

	case OpLoadF32:
		off := int64(vm.popNum())
		p := vm.pop()
		var f float64
		if p.IsPointer() {
			bits := uint32(vm.heap.Load32(p.Ptr, off))
			f = float64(math.Float32frombits(bits))
		}
		vm.push(NumberValue(f))

	case OpStoreF32:
		off := int64(vm.popNum())
		p := vm.pop()
		f := vm.popNum()
		if p.IsPointer() {
			vm.heap.Store32(p.Ptr, off, uint64(math.Float32bits(float32(f))))
		}
		vm.push(NilValue())

	case OpMemcpy:
		n := int(vm.popNum())
		src := vm.pop()
		dst := vm.pop()
		if src.IsPointer() && dst.IsPointer() && src.Ptr.Block == dst.Ptr.Block {
			vm.heap.Memcpy(dst.Ptr, src.Ptr, n)
		}
		vm.push(NilValue())

	case OpMemset:
		n := int(vm.popNum())
		fill := byte(int64(vm.popNum()))
		dst := vm.pop()
		if dst.IsPointer() {
			vm.heap.Memset(dst.Ptr, fill, n)
		}
		vm.push(NilValue())

	case OpPtrDiff:
		b := vm.pop()
		a := vm.pop()
		if a.IsPointer() && b.IsPointer() {
			vm.push(NumberValue(float64(int64(a.Ptr.Offset) - int64(b.Ptr.Offset))))
		} else {
			vm.push(NumberValue(0))
		}

	case OpRealloc:
		newSize := int(vm.popNum())
		p := vm.pop()
		if p.IsPointer() {
			vm.push(PointerValue(vm.heap.Realloc(p.Ptr, newSize)))
		} else {
			vm.push(NilValue())
		}

	case OpBlockSize:
		p := vm.pop()
		n := 0
		if p.IsPointer() {
			n = vm.heap.BlockSize(p.Ptr)
		}
		vm.push(NumberValue(float64(n)))

	case OpPtrOffset:
		p := vm.pop()
		if p.IsPointer() {
			vm.push(NumberValue(float64(p.Ptr.Offset)))
		} else {
			vm.push(NumberValue(0))
		}

	case OpPtrBlock:
		p := vm.pop()
		if p.IsPointer() {
			vm.push(NumberValue(float64(p.Ptr.Block)))
		} else {
			vm.push(NumberValue(0))
		}

	// ============ Packing ============
	case OpPackF64LE:
		n := vm.popNum()
		b := make([]byte, 8)
		putU64LE(b, math.Float64bits(n))
		vm.push(StringValue(string(b)))

	case OpPackU16LE:
		n := uint64(int64(vm.popNum()))
		b := []byte{byte(n), byte(n >> 8)}
		vm.push(StringValue(string(b)))

	case OpPackU32LE:
		n := uint64(int64(vm.popNum()))
		b := []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
		vm.push(StringValue(string(b)))

	default:
		return vm.stepIO(op, opOffset)
	}
	return nil
}

func putU64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
