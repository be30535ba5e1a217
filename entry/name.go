package entry

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrBadName is returned by ValidateName for any name that fails the
// entry-name law in spec §3: must be valid UTF-8, forward-slash separated,
// never absolute, never containing a ".." component, and never containing
// NUL or a backslash.
var ErrBadName = errors.New("entry: invalid name")

// ValidateName checks name against the entry-name law (§3). A solid
// container itself has no name at all -- its SHED payload carries no name
// field, so this validation only ever applies to File/Directory/
// SymbolicLink/HardLink entries, which always require a non-empty name.
func ValidateName(name string) error {
	if name == "" {
		return errors.Wrap(ErrBadName, "empty")
	}
	if !utf8.ValidString(name) {
		return errors.Wrap(ErrBadName, "not valid UTF-8")
	}
	if strings.ContainsRune(name, 0) {
		return errors.Wrap(ErrBadName, "contains NUL")
	}
	if strings.Contains(name, "\\") {
		return errors.Wrap(ErrBadName, "contains backslash")
	}
	if strings.HasPrefix(name, "/") {
		return errors.Wrap(ErrBadName, "absolute path")
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return errors.Wrap(ErrBadName, "contains .. component")
		}
	}
	return nil
}
