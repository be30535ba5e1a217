package pna

import "github.com/bpfs/pna/entry"

// WriteOption and ReadOption are the only configuration the core accepts
// (§6); they are aliased from the entry package rather than redefined here
// because entry.Writer/entry.Reader already consume the entry-package
// types, and this package's archive/solid writers pass them straight
// through without needing their own copy.
type WriteOption = entry.WriteOption

// ReadOption carries the password needed to decrypt encrypted entries, if
// any.
type ReadOption = entry.ReadOption

// StoreOption and DefaultWriteOption re-export entry's constructors so
// callers never need to import the entry package directly.
func StoreOption() WriteOption        { return entry.StoreOption() }
func DefaultWriteOption() WriteOption { return entry.DefaultWriteOption() }
