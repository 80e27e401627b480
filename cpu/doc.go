// Package cpu implements the LC-3 processor and assembler.
//
// The processor owns eight 16-bit general-purpose registers (r0-r7), the
// program counter, and the mutually exclusive N/Z/P condition flags. It
// drives the fetch-decode-execute cycle against a mem.Memory and reaches
// the outside world only through a console.Console, via the fixed trap
// vector table.
//
// The assembler accepts standard LC-3 assembly (labels, .ORIG/.FILL/
// .BLKW/.STRINGZ/.END, register and immediate operands) extended with
// named equates and compile-time $(...) expression evaluation.
package cpu
