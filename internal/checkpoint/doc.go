// Package checkpoint saves and restores module parameters.
//
// StateDict and LoadStateDict move parameter values between a module and an
// ordered list of named raw tensors. Write and Read store such a list in the
// .blk file format:
//
//	Offset  Size  Field
//	0x00    4     magic "BLKS"
//	0x04    4     format version (uint32, little-endian)
//	0x08    4     flags (uint32)
//	0x0C    8     header size N (uint64)
//	0x14    32    SHA-256 of the data section
//	0x34    N     JSON header (model id, type, tensor table, metadata)
//	...     pad   zero padding to a 64-byte boundary
//	...           tensor data, in header order
//
// Tied parameters are stored once, under their canonical name. A header with
// precision "float16" stores float32 tensors at half precision; they widen
// back to float32 on read.
package checkpoint
