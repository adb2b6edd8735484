package vm

// ForeignCallSink handles the OP_FFI_* opcodes. The VM only marshals the
// stack arguments, the signature string, and the returned value; the
// calling convention is entirely the sink's business.
//
// When no sink is configured, each FFI opcode pushes 0 and the VM logs a
// one-time warning.
type ForeignCallSink interface {
	// Call invokes funcName from dllName with the given arguments.
	Call(dllName, funcName string, args []Value) (Value, error)

	// CallSig is Call with an explicit signature string describing the
	// argument and return types.
	CallSig(dllName, funcName, signature string, args []Value) (Value, error)

	// Proc resolves funcName from dllName to an opaque numeric address.
	Proc(dllName, funcName string) (float64, error)

	// CallPtr invokes a previously resolved address with a signature.
	CallPtr(proc float64, signature string, args []Value) (Value, error)

	// AddSearchPath appends a directory to the sink's library search list
	// (populated from CB_DLL_PATH at startup).
	AddSearchPath(dir string)
}

// NumericJit optionally compiles a trivial arithmetic subset to native
// code. The VM stores one installed through SetNumericJit but does not
// call it; every chunk is interpreted.
type NumericJit interface {
	// TryEval evaluates the expression rooted at the given code offset.
	// ok is false when the JIT cannot handle the shape.
	TryEval(c *Chunk, offset int) (result float64, ok bool)
}

// Bundler appends a chunk payload to a host executable and detects such
// payloads at startup. The default implementation lives in the bundle
// package; the VM only depends on the interface.
type Bundler interface {
	// Bundle copies the host executable to outPath and appends the payload
	// with the trailing footer.
	Bundle(hostPath, outPath string, payload []byte) error

	// Extract returns the payload embedded in the executable at path, or
	// ok=false when no footer is present.
	Extract(path string) (payload []byte, ok bool, err error)
}
