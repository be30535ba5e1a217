// Package pna implements the Portable Network Archive core: the chunk
// codec, the entry abstraction, the solid sub-archive, and the
// streaming archive reader/writer with split-part continuation.
//
// The package is deliberately silent on anything outside the archive
// format itself -- argument parsing, glob matching, filesystem
// materialization and password prompting are the caller's job. The core
// consumes a byte sink for writing, a byte source for reading, an
// optional password, and configuration structs, and exposes entries as
// byte streams plus structured metadata.
package pna
