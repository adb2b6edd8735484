// Package vm provides the CatLang stack virtual machine and the binary
// chunk format it executes.
//
// The bytecode format is designed for:
//   - Compact representation (typically 1-4 bytes per instruction)
//   - Fast decoding (fixed-width opcodes, simple operand formats)
//   - Easy serialization (.cat files, cache blobs, bundled executables)
//
// # Architecture Overview
//
//   - Opcodes: ~120 stack-based instructions covering arithmetic, control
//     flow, variables, containers, strings, math, bitwise, heap memory,
//     streams, and meta operations. Each opcode has a metadata entry
//     (canonical name, stack effect, operand width) backing the
//     disassembler and OP_OPCODE_ID.
//
//   - Chunk: the compiled unit — constant pool, name table, function
//     table, flat code vector with embedded function bodies, and parallel
//     per-byte debug line/column tables. Chunks serialize to the "CBBC"
//     little-endian format and are immutable once compiled.
//
//   - VM: a strictly single-threaded interpreter. State (stack, globals,
//     frames, heap, open streams) is created at Run entry and cleared at
//     OP_HALT or OP_EXIT. Arrays and maps are shared through reference
//     counts; heap blocks live in a grow-only arena addressed by
//     capability pointers that stay stable across free.
//
// # Failure Model
//
// Only arity mismatches, calls to undefined functions, unknown opcodes,
// OP_PANIC, OP_ASSERT on a falsy value, and OP_EXIT terminate a run. Everything
// else (division by zero, out-of-range indices and pointer accesses,
// unknown globals) reports a located runtime error or silently produces
// a default value, as each opcode documents.
//
// # Collaborators
//
// FFI, the numeric JIT, and self-host bundling are abstracted behind the
// ForeignCallSink, NumericJit, and Bundler interfaces. A VM without a
// foreign call sink pushes 0 for the four FFI opcodes and logs a
// one-time warning.
package vm
