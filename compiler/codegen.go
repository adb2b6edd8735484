package compiler

import (
	"fmt"

	"github.com/chazu/catlang/vm"
)

// ---------------------------------------------------------------------------
// Codegen: AST -> chunk
// ---------------------------------------------------------------------------

// builtinOps maps reserved "__" callee names to their dedicated opcodes.
// Argument stack order is defined per opcode in the vm package.
var builtinOps = map[string]vm.Opcode{
	"__map_get":   vm.OpMapGet,
	"__map_has":   vm.OpMapHas,
	"__map_set":   vm.OpMapSet,
	"__map_del":   vm.OpMapDel,
	"__map_size":  vm.OpMapSize,
	"__map_clear": vm.OpMapClear,
	"__keys":      vm.OpMapKeys,
	"__new_map":   vm.OpNewMap,

	"__len":     vm.OpLen,
	"__append":  vm.OpAppend,
	"__pop":     vm.OpArrayPop,
	"__reserve": vm.OpArrayReserve,
	"__clear":   vm.OpArrayClear,

	"__substr":      vm.OpSubstr,
	"__str_find":    vm.OpStrFind,
	"__split":       vm.OpSplit,
	"__concat":      vm.OpStrCat,
	"__join":        vm.OpJoin,
	"__trim":        vm.OpTrim,
	"__replace":     vm.OpReplace,
	"__upper":       vm.OpStrUpper,
	"__lower":       vm.OpStrLower,
	"__contains":    vm.OpStrContains,
	"__starts_with": vm.OpStartsWith,
	"__ends_with":   vm.OpEndsWith,
	"__ord":         vm.OpOrd,
	"__chr":         vm.OpChr,
	"__tostring":    vm.OpToString,
	"__parse_int":   vm.OpParseInt,
	"__parse_float": vm.OpParseFloat,
	"__str_index":   vm.OpStrIndex,

	"__floor":  vm.OpFloor,
	"__ceil":   vm.OpCeil,
	"__round":  vm.OpRound,
	"__sqrt":   vm.OpSqrt,
	"__abs":    vm.OpAbs,
	"__pow":    vm.OpPow,
	"__exp":    vm.OpExp,
	"__log":    vm.OpLog,
	"__sin":    vm.OpSin,
	"__cos":    vm.OpCos,
	"__tan":    vm.OpTan,
	"__asin":   vm.OpAsin,
	"__acos":   vm.OpAcos,
	"__atan":   vm.OpAtan,
	"__atan2":  vm.OpAtan2,
	"__random": vm.OpRandom,

	"__band": vm.OpBand,
	"__bor":  vm.OpBor,
	"__bxor": vm.OpBxor,
	"__shl":  vm.OpShl,
	"__shr":  vm.OpShr,

	"__alloc":     vm.OpAlloc,
	"__free":      vm.OpFree,
	"__ptradd":    vm.OpPtrAdd,
	"__load8":     vm.OpLoad8,
	"__load16":    vm.OpLoad16,
	"__load32":    vm.OpLoad32,
	"__load64":    vm.OpLoad64,
	"__loadf32":   vm.OpLoadF32,
	"__store8":    vm.OpStore8,
	"__store16":   vm.OpStore16,
	"__store32":   vm.OpStore32,
	"__store64":   vm.OpStore64,
	"__storef32":  vm.OpStoreF32,
	"__memcpy":    vm.OpMemcpy,
	"__memset":    vm.OpMemset,
	"__ptrdiff":   vm.OpPtrDiff,
	"__realloc":   vm.OpRealloc,
	"__blocksize": vm.OpBlockSize,
	"__ptroffset": vm.OpPtrOffset,
	"__ptrblock":  vm.OpPtrBlock,

	"__pack16": vm.OpPackU16LE,
	"__pack32": vm.OpPackU32LE,
	"__pack64": vm.OpPackF64LE,

	"__read_file":   vm.OpReadFile,
	"__write_file":  vm.OpWriteFile,
	"__file_exists": vm.OpFileExists,
	"__fopen":       vm.OpFopen,
	"__fclose":      vm.OpFclose,
	"__fread":       vm.OpFread,
	"__freadline":   vm.OpFreadline,
	"__fwrite":      vm.OpFwrite,
	"__stdin":       vm.OpStdin,
	"__stdout":      vm.OpStdout,
	"__stderr":      vm.OpStderr,

	"__assert": vm.OpAssert,
	"__panic":  vm.OpPanic,
	"__exit":   vm.OpExit,

	"__emit_chunk": vm.OpEmitChunk,
	"__opcode_id":  vm.OpOpcodeID,
	"__calln":      vm.OpCallnArr,

	"__ffi_call":     vm.OpFfiCall,
	"__ffi_call_sig": vm.OpFfiCallSig,
	"__ffi_proc":     vm.OpFfiProc,
	"__ffi_call_ptr": vm.OpFfiCallPtr,
}

// argcOperandOps take a trailing u8 argc operand instead of a fixed arity.
var argcOperandOps = map[vm.Opcode]bool{
	vm.OpFormat:     true,
	vm.OpFfiCall:    true,
	vm.OpFfiCallSig: true,
	vm.OpFfiCallPtr: true,
}

// statementLike marks builtins whose calls in statement position are not
// echoed by the REPL convention (mutators and terminators).
var statementLike = map[string]bool{
	"__append": true, "__map_set": true, "__pop": true, "__map_del": true,
	"__map_clear": true, "__clear": true, "__reserve": true,
	"__store8": true, "__store16": true, "__store32": true, "__store64": true,
	"__storef32": true, "__memcpy": true, "__memset": true, "__free": true,
	"__assert": true, "__panic": true, "__exit": true,
	"__write_file": true, "__fclose": true, "__fwrite": true,
	"__emit_chunk": true,
}

// Codegen appends compiled statements to a single chunk. Function bodies
// are emitted inline, bracketed by a skip-jump, so top-level execution
// stays straight-line.
type Codegen struct {
	chunk *vm.Chunk

	nameIndex  map[string]uint16
	constIndex map[constKey]uint16

	// Scope stack: innermost last. Top-level let/set still compile to
	// globals; scopes hold function params/locals and loop temps.
	scopes     []map[string]uint16
	nextLocal  uint16
	inFunction bool

	stmtLine uint32
	stmtCol  uint32
}

type constKey struct {
	kind vm.ValueKind
	num  float64
	str  string
	b    bool
}

// NewCodegen creates a code generator targeting a fresh chunk.
func NewCodegen(sourceName string) *Codegen {
	return &Codegen{
		chunk:      vm.NewChunk(sourceName),
		nameIndex:  make(map[string]uint16),
		constIndex: make(map[constKey]uint16),
		scopes:     []map[string]uint16{{}},
	}
}

// Chunk returns the chunk under construction.
func (c *Codegen) Chunk() *vm.Chunk { return c.chunk }

// Finish terminates the code stream with OP_HALT and returns the chunk.
func (c *Codegen) Finish() *vm.Chunk {
	start := c.chunk.CurrentOffset()
	c.chunk.Emit(vm.OpHalt)
	c.chunk.FillDebug(start, c.chunk.CurrentOffset(), c.stmtLine, c.stmtCol)
	return c.chunk
}

// CompileStatement compiles one top-level statement, back-filling the
// debug tables for every byte it emitted with the statement's location.
func (c *Codegen) CompileStatement(stmt Stmt, line, col int) *Error {
	c.stmtLine = uint32(line)
	c.stmtCol = uint32(col)
	start := c.chunk.CurrentOffset()
	err := c.compileStmt(stmt, true)
	c.chunk.FillDebug(start, c.chunk.CurrentOffset(), uint32(line), uint32(col))
	return err
}

func (c *Codegen) errorf(format string, args ...interface{}) *Error {
	return &Error{
		Kind:   ParseError,
		Source: c.chunk.SourceName,
		Line:   int(c.stmtLine),
		Col:    int(c.stmtCol),
		Msg:    fmt.Sprintf(format, args...),
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// compileStmt compiles a statement. topLevel selects the REPL echo
// convention for expression statements.
func (c *Codegen) compileStmt(stmt Stmt, topLevel bool) *Error {
	switch s := stmt.(type) {

	case *ExpressionStmt:
		return c.compileExprStmt(s, topLevel)

	case *LetStmt:
		if err := c.compileExpr(s.Initializer); err != nil {
			return err
		}
		if c.inFunction {
			slot := c.declareLocal(s.Name)
			c.chunk.Emit(vm.OpSetLocal)
			c.chunk.EmitU16(slot)
		} else {
			c.chunk.Emit(vm.OpSetGlobal)
			c.chunk.EmitU16(c.internName(s.Name))
		}
		return nil

	case *SetStmt:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		c.emitStoreVariable(s.Name)
		return nil

	case *SetIndexStmt:
		if err := c.compileExpr(s.Array); err != nil {
			return err
		}
		if err := c.compileExpr(s.Index); err != nil {
			return err
		}
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		c.chunk.Emit(vm.OpIndexSet)
		return nil

	case *BlockStmt:
		c.pushScope()
		for _, inner := range s.Stmts {
			if err := c.compileStmt(inner, topLevel); err != nil {
				c.popScope()
				return err
			}
		}
		c.popScope()
		return nil

	case *IfStmt:
		return c.compileIf(s, topLevel)

	case *WhileStmt:
		return c.compileWhile(s, topLevel)

	case *ForEachStmt:
		return c.compileForEach(s, topLevel)

	case *FunctionStmt:
		return c.compileFunction(s)

	case *ReturnStmt:
		if !c.inFunction {
			return c.errorf("'return' outside of a function")
		}
		if s.Value != nil {
			if err := c.compileExpr(s.Value); err != nil {
				return err
			}
		} else {
			c.emitConst(vm.NilValue())
		}
		c.chunk.Emit(vm.OpReturn)
		return nil
	}
	return c.errorf("unsupported statement %T", stmt)
}

// compileExprStmt applies the echo convention: at the top level, plain
// expression statements print their value (OP_PRINT 1); calls to print
// and to statement-like builtins do not.
func (c *Codegen) compileExprStmt(s *ExpressionStmt, topLevel bool) *Error {
	if call, ok := s.Expr.(*Call); ok {
		if v, ok := call.Callee.(*Variable); ok {
			if v.Name == "print" {
				return c.compilePrint(call)
			}
			if statementLike[v.Name] {
				if err := c.compileExpr(s.Expr); err != nil {
					return err
				}
				if op, ok := builtinOps[v.Name]; ok && vm.GetOpcodeInfo(op).StackPush > 0 {
					c.chunk.Emit(vm.OpPop)
				}
				return nil
			}
		}
	}

	if err := c.compileExpr(s.Expr); err != nil {
		return err
	}
	if topLevel {
		c.chunk.Emit(vm.OpPrint)
		c.chunk.EmitByte(1)
	} else {
		c.chunk.Emit(vm.OpPop)
	}
	return nil
}

func (c *Codegen) compilePrint(call *Call) *Error {
	if len(call.Args) > 255 {
		return c.errorf("too many arguments to print")
	}
	for _, arg := range call.Args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.chunk.Emit(vm.OpPrint)
	c.chunk.EmitByte(byte(len(call.Args)))
	return nil
}

// compileIf emits: cond, JUMP_IF_FALSE else, POP, then, JUMP end,
// else: POP, else-body, end. JUMP_IF_FALSE peeks, so each branch pops
// the test value it observed.
func (c *Codegen) compileIf(s *IfStmt, topLevel bool) *Error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	elseJump := c.chunk.EmitJump(vm.OpJumpIfFalse)
	c.chunk.Emit(vm.OpPop)
	if err := c.compileStmt(s.Then, topLevel); err != nil {
		return err
	}
	endJump := c.chunk.EmitJump(vm.OpJump)
	c.chunk.PatchJump(elseJump)
	c.chunk.Emit(vm.OpPop)
	if s.Else != nil {
		if err := c.compileStmt(s.Else, topLevel); err != nil {
			return err
		}
	}
	c.chunk.PatchJump(endJump)
	return nil
}

func (c *Codegen) compileWhile(s *WhileStmt, topLevel bool) *Error {
	loopStart := c.chunk.CurrentOffset()
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	exitJump := c.chunk.EmitJump(vm.OpJumpIfFalse)
	c.chunk.Emit(vm.OpPop)
	if err := c.compileStmt(s.Body, topLevel); err != nil {
		return err
	}
	c.chunk.EmitLoop(loopStart)
	c.chunk.PatchJump(exitJump)
	c.chunk.Emit(vm.OpPop)
	return nil
}

// compileForEach evaluates the iterable once, captures its length at
// entry, and walks it by index. The loop variable is a scoped local.
func (c *Codegen) compileForEach(s *ForEachStmt, topLevel bool) *Error {
	c.pushScope()
	defer c.popScope()

	arrSlot := c.declareTemp()
	lenSlot := c.declareTemp()
	idxSlot := c.declareTemp()
	varSlot := c.declareLocal(s.Var)

	if err := c.compileExpr(s.Iterable); err != nil {
		return err
	}
	c.emitSetLocal(arrSlot)

	c.emitGetLocal(arrSlot)
	c.chunk.Emit(vm.OpLen)
	c.emitSetLocal(lenSlot)

	c.emitConst(vm.NumberValue(0))
	c.emitSetLocal(idxSlot)

	loopStart := c.chunk.CurrentOffset()
	c.emitGetLocal(idxSlot)
	c.emitGetLocal(lenSlot)
	c.chunk.Emit(vm.OpLt)
	exitJump := c.chunk.EmitJump(vm.OpJumpIfFalse)
	c.chunk.Emit(vm.OpPop)

	c.emitGetLocal(arrSlot)
	c.emitGetLocal(idxSlot)
	c.chunk.Emit(vm.OpIndexGet)
	c.emitSetLocal(varSlot)

	if err := c.compileStmt(s.Body, topLevel); err != nil {
		return err
	}

	c.emitGetLocal(idxSlot)
	c.emitConst(vm.NumberValue(1))
	c.chunk.Emit(vm.OpAdd)
	c.emitSetLocal(idxSlot)

	c.chunk.EmitLoop(loopStart)
	c.chunk.PatchJump(exitJump)
	c.chunk.Emit(vm.OpPop)
	return nil
}

// compileFunction lays the body out inline: a forward jump skips over it
// during straight-line execution, and the function table records the
// entry offset just past the jump.
func (c *Codegen) compileFunction(s *FunctionStmt) *Error {
	if c.inFunction {
		return c.errorf("nested function definitions are not supported")
	}
	if len(s.Params) > 255 {
		return c.errorf("too many parameters in function %q", s.Name)
	}

	skipJump := c.chunk.EmitJump(vm.OpJump)
	entry := uint32(c.chunk.CurrentOffset())

	nameIdx := c.internName(s.Name)
	c.chunk.Functions = append(c.chunk.Functions, vm.FuncEntry{
		NameIndex: nameIdx,
		Arity:     uint16(len(s.Params)),
		Entry:     entry,
	})

	savedScopes := c.scopes
	savedNext := c.nextLocal
	c.scopes = []map[string]uint16{{}}
	c.nextLocal = 0
	c.inFunction = true

	for _, param := range s.Params {
		c.declareLocal(param.Name)
	}

	var bodyErr *Error
	for _, stmt := range s.Body {
		if bodyErr = c.compileStmt(stmt, false); bodyErr != nil {
			break
		}
	}

	// Implicit `return nil` when control falls off the end.
	if bodyErr == nil {
		c.emitConst(vm.NilValue())
		c.chunk.Emit(vm.OpReturn)
	}

	c.scopes = savedScopes
	c.nextLocal = savedNext
	c.inFunction = false

	if bodyErr != nil {
		return bodyErr
	}
	c.chunk.PatchJump(skipJump)
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *Codegen) compileExpr(expr Expr) *Error {
	switch e := expr.(type) {

	case *Literal:
		switch e.Kind {
		case LitNil:
			c.emitConst(vm.NilValue())
		case LitNumber:
			c.emitConst(vm.NumberValue(e.Num))
		case LitString:
			c.emitConst(vm.StringValue(e.Str))
		case LitBool:
			c.emitConst(vm.BoolValue(e.Bool))
		}
		return nil

	case *Grouping:
		return c.compileExpr(e.Inner)

	case *Variable:
		if slot, ok := c.resolveLocal(e.Name); ok {
			c.emitGetLocal(slot)
		} else {
			c.chunk.Emit(vm.OpGetGlobal)
			c.chunk.EmitU16(c.internName(e.Name))
		}
		return nil

	case *Assign:
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.emitStoreVariable(e.Name)
		c.emitLoadVariable(e.Name)
		return nil

	case *Unary:
		// Unary minus lowers to 0 - x.
		c.emitConst(vm.NumberValue(0))
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.chunk.Emit(vm.OpSub)
		return nil

	case *Binary:
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		op, ok := binaryOps[e.Op]
		if !ok {
			return c.errorf("unsupported binary operator %s", e.Op)
		}
		c.chunk.Emit(op)
		return nil

	case *ArrayLiteral:
		if len(e.Elements) > 255 {
			return c.errorf("array literal has too many elements")
		}
		for _, el := range e.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.chunk.Emit(vm.OpNewArray)
		c.chunk.EmitByte(byte(len(e.Elements)))
		return nil

	case *Index:
		if err := c.compileExpr(e.Array); err != nil {
			return err
		}
		if err := c.compileExpr(e.Index); err != nil {
			return err
		}
		c.chunk.Emit(vm.OpIndexGet)
		return nil

	case *Call:
		return c.compileCall(e)
	}
	return c.errorf("unsupported expression %T", expr)
}

var binaryOps = map[TokenType]vm.Opcode{
	TokenPlus:    vm.OpAdd,
	TokenMinus:   vm.OpSub,
	TokenStar:    vm.OpMul,
	TokenSlash:   vm.OpDiv,
	TokenPercent: vm.OpMod,
	TokenGt:      vm.OpGt,
	TokenGe:      vm.OpGe,
	TokenLt:      vm.OpLt,
	TokenLe:      vm.OpLe,
	TokenEqEq:    vm.OpEq,
	TokenBangEq:  vm.OpNe,
	TokenAnd:     vm.OpAnd,
	TokenOr:      vm.OpOr,
}

// compileCall lowers print to OP_PRINT, "__" names to their dedicated
// opcodes, and everything else to OP_CALL resolved at run time.
func (c *Codegen) compileCall(call *Call) *Error {
	v, ok := call.Callee.(*Variable)
	if !ok {
		return c.errorf("callee must be a function name")
	}

	if v.Name == "print" {
		return c.compilePrint(call)
	}
	if v.Name == "__range" {
		return c.compileRange(call)
	}

	if op, ok := builtinOps[v.Name]; ok {
		for _, arg := range call.Args {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
		}
		if argcOperandOps[op] {
			if len(call.Args) > 255 {
				return c.errorf("too many arguments to %s", v.Name)
			}
			argc := len(call.Args)
			switch op {
			case vm.OpFormat:
				argc-- // format string is not counted in the operand
			case vm.OpFfiCall:
				argc -= 2 // dll + func
			case vm.OpFfiCallSig:
				argc -= 3 // dll + func + sig
			case vm.OpFfiCallPtr:
				argc -= 2 // proc + sig
			}
			if argc < 0 {
				return c.errorf("%s needs more arguments", v.Name)
			}
			c.chunk.Emit(op)
			c.chunk.EmitByte(byte(argc))
			return nil
		}
		if want := vm.GetOpcodeInfo(op).StackPop; want >= 0 && len(call.Args) != want {
			return c.errorf("%s expects %d arguments, got %d", v.Name, want, len(call.Args))
		}
		c.chunk.Emit(op)
		return nil
	}

	if len(call.Args) > 255 {
		return c.errorf("too many arguments to %s", v.Name)
	}
	for _, arg := range call.Args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.chunk.Emit(vm.OpCall)
	c.chunk.EmitU16(c.internName(v.Name))
	c.chunk.EmitByte(byte(len(call.Args)))
	return nil
}

// compileRange inlines `range from A to B` as an append loop building an
// inclusive [A..B] array; there is no dedicated opcode for it.
func (c *Codegen) compileRange(call *Call) *Error {
	if len(call.Args) != 2 {
		return c.errorf("__range expects 2 arguments, got %d", len(call.Args))
	}
	c.pushScope()
	defer c.popScope()

	curSlot := c.declareTemp()
	endSlot := c.declareTemp()
	arrSlot := c.declareTemp()

	if err := c.compileExpr(call.Args[0]); err != nil {
		return err
	}
	c.emitSetLocal(curSlot)
	if err := c.compileExpr(call.Args[1]); err != nil {
		return err
	}
	c.emitSetLocal(endSlot)

	c.chunk.Emit(vm.OpNewArray)
	c.chunk.EmitByte(0)
	c.emitSetLocal(arrSlot)

	loopStart := c.chunk.CurrentOffset()
	c.emitGetLocal(curSlot)
	c.emitGetLocal(endSlot)
	c.chunk.Emit(vm.OpLe)
	exitJump := c.chunk.EmitJump(vm.OpJumpIfFalse)
	c.chunk.Emit(vm.OpPop)

	c.emitGetLocal(arrSlot)
	c.emitGetLocal(curSlot)
	c.chunk.Emit(vm.OpAppend)
	c.chunk.Emit(vm.OpPop)

	c.emitGetLocal(curSlot)
	c.emitConst(vm.NumberValue(1))
	c.chunk.Emit(vm.OpAdd)
	c.emitSetLocal(curSlot)

	c.chunk.EmitLoop(loopStart)
	c.chunk.PatchJump(exitJump)
	c.chunk.Emit(vm.OpPop)

	c.emitGetLocal(arrSlot)
	return nil
}

// ---------------------------------------------------------------------------
// Names, constants, scopes
// ---------------------------------------------------------------------------

// internName returns a stable index for an identifier, reusing earlier
// entries (indices are stable after insertion; dedup keeps the table
// small).
func (c *Codegen) internName(name string) uint16 {
	if idx, ok := c.nameIndex[name]; ok {
		return idx
	}
	idx := c.chunk.AddName(name)
	c.nameIndex[name] = idx
	return idx
}

func (c *Codegen) emitConst(v vm.Value) {
	key := constKey{kind: v.Kind, num: v.Num, str: v.Str, b: v.Bool}
	idx, ok := c.constIndex[key]
	if !ok {
		idx = c.chunk.AddConstant(v)
		c.constIndex[key] = idx
	}
	c.chunk.Emit(vm.OpConst)
	c.chunk.EmitU16(idx)
}

func (c *Codegen) pushScope() {
	c.scopes = append(c.scopes, map[string]uint16{})
}

func (c *Codegen) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// declareLocal allocates the next slot for a named variable in the
// innermost scope.
func (c *Codegen) declareLocal(name string) uint16 {
	slot := c.nextLocal
	c.nextLocal++
	c.scopes[len(c.scopes)-1][name] = slot
	return slot
}

// declareTemp allocates an anonymous slot (loop machinery).
func (c *Codegen) declareTemp() uint16 {
	slot := c.nextLocal
	c.nextLocal++
	return slot
}

// resolveLocal searches scopes innermost-first.
func (c *Codegen) resolveLocal(name string) (uint16, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if slot, ok := c.scopes[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (c *Codegen) emitGetLocal(slot uint16) {
	c.chunk.Emit(vm.OpGetLocal)
	c.chunk.EmitU16(slot)
}

func (c *Codegen) emitSetLocal(slot uint16) {
	c.chunk.Emit(vm.OpSetLocal)
	c.chunk.EmitU16(slot)
}

// emitStoreVariable stores the stack top into a local when one is in
// scope, falling back to a global.
func (c *Codegen) emitStoreVariable(name string) {
	if slot, ok := c.resolveLocal(name); ok {
		c.emitSetLocal(slot)
		return
	}
	c.chunk.Emit(vm.OpSetGlobal)
	c.chunk.EmitU16(c.internName(name))
}

func (c *Codegen) emitLoadVariable(name string) {
	if slot, ok := c.resolveLocal(name); ok {
		c.emitGetLocal(slot)
		return
	}
	c.chunk.Emit(vm.OpGetGlobal)
	c.chunk.EmitU16(c.internName(name))
}
