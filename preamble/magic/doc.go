// Package magic implements the "%" and "%%" command preamble.
//
// A line magic occupies the first line of a submission:
//
//	%timeit -n 1000 strings.Repeat("x", 64)
//
// A cell magic takes the rest of the submission as its body:
//
//	%%file main.go
//	package main
//
// Magics are registered on a [Manager] by name. Every registered magic is
// also indexed as a tool in the magic namespace so that %lsmagic can search
// and describe them.
package magic
