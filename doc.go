// Package memhex represents, edits and interchanges sparse 32-bit-addressable
// byte memory images — the kind produced by compilers/linkers and consumed
// by device programmers. It loads and saves Intel Hex, Motorola S-records,
// Tektronix Hex, TI-Text, Actel Hex, CheckSum MEM, C source and 32-bit ELF,
// either by a caller-declared format or by content/extension detection.
package memhex
