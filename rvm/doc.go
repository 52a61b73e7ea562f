// Package rvm implements the Reflection Virtual Machine: a stack-based
// interpreter that reconstructs structured type representations at runtime
// from compact Packed Programs emitted by an external compile-time
// transformer.
//
// The package is organized the way a small register-free bytecode VM
// usually is: pool.go and opcode.go describe the wire format, typeir.go and
// typeir_util.go describe the value domain the machine produces, frame.go
// and processor.go implement the machine itself, and registry.go breaks
// cycles between mutually recursive programs.
package rvm
