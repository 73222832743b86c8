// Package mcgen defines the bookkeeping vocabulary shared between generators,
// the transport stack and downstream consumers of the event tree.
//
// # Status Encoding
//
// A primary particle's generator status is a single int32 packing two signed
// sub-fields plus a marker bit:
//
//	bit 31      encoded marker (always 1 for an encoded status)
//	bits 19-30  reserved
//	bits 9-18   generator-specific status (10-bit signed)
//	bits 0-8    HepMC status (9-bit signed)
//
// Consumers rely on the marker bit to interpret the remaining bits, so a
// primary particle whose status lacks it cannot be admitted.
//
// # Process Tags
//
// Process identifies how a particle came to exist. Only ProcessPrimary
// particles are subject to the status encoding check.
package mcgen
