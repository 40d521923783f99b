// Package abi decodes the output descriptor a program's entry export points
// at and translates it into LED updates.
//
// The descriptor is a tagged union in guest memory:
//
//	offset  unbuffered (0)   buffered (1)
//	0       disc = 0         disc = 1
//	1       start            start
//	2       end              end
//	3..5    r, g, b          pointer (u32 LE, bytes 3..6)
//
// A buffered descriptor's pointer addresses (end-start+1)*3 bytes of RGB
// triples in LED order. Ranges must satisfy start <= end < count. Every
// violation, including reads outside guest memory, is reported as an
// errors.KindProgramRuntime error.
package abi
