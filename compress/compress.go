// Package compress wraps Deflate, Zstandard and XZ behind a single
// streaming writer/reader pair, the way bpfs-defs/zip/gzip wraps
// compress/gzip -- except PNA needs three interchangeable codecs instead of
// one, selected per entry by Method.
package compress

import (
	"io"

	"github.com/pkg/errors"
)

// Method names a compression algorithm. The numeric values match the
// FHED/SHED wire encoding in chunk.Type's sibling entry header.
type Method uint8

const (
	MethodNone    Method = 0
	MethodDeflate Method = 1
	MethodZstd    Method = 2
	MethodXZ      Method = 4
)

func (m Method) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodDeflate:
		return "deflate"
	case MethodZstd:
		return "zstd"
	case MethodXZ:
		return "xz"
	default:
		return "unknown"
	}
}

// ErrUnknownMethod is returned when a Method value outside the supported
// set is requested.
var ErrUnknownMethod = errors.New("compress: unknown method")

// Level is the abstract compression level a caller picks; NewWriter
// translates it into whatever range the chosen Method's encoder expects.
type Level struct {
	kind   levelKind
	custom int64
}

type levelKind uint8

const (
	levelDefault levelKind = iota
	levelMin
	levelMax
	levelCustom
)

var (
	LevelDefault = Level{kind: levelDefault}
	LevelMin     = Level{kind: levelMin}
	LevelMax     = Level{kind: levelMax}
)

// LevelCustom builds a Level carrying an algorithm-specific numeric value.
// Values outside the target algorithm's range are clamped at translation
// time, never rejected.
func LevelCustom(v int64) Level {
	return Level{kind: levelCustom, custom: v}
}

// WriteCloser is the contract every compression encoder satisfies: ordinary
// streaming writes, plus a Close that flushes and writes any codec
// terminator (the final deflate block, the zstd frame end, the xz footer). Finalization is the entry writer's
// responsibility -- it owns the WriteCloser's lifecycle end to end.
type WriteCloser interface {
	io.WriteCloser
}

// NewWriter returns a WriteCloser that compresses writes with the given
// method and level, writing compressed bytes to w.
func NewWriter(w io.Writer, method Method, level Level) (WriteCloser, error) {
	switch method {
	case MethodNone:
		return nopWriteCloser{w}, nil
	case MethodDeflate:
		return newDeflateWriter(w, level)
	case MethodZstd:
		return newZstdWriter(w, level)
	case MethodXZ:
		return newXZWriter(w, level)
	default:
		return nil, errors.Wrapf(ErrUnknownMethod, "%d", method)
	}
}

// NewReader returns a decompressing io.Reader for the given method, reading
// compressed bytes from r. Close (if the underlying decoder needs it, e.g.
// zstd) is handled internally; callers only need to read to EOF.
func NewReader(r io.Reader, method Method) (io.Reader, error) {
	switch method {
	case MethodNone:
		return r, nil
	case MethodDeflate:
		return newDeflateReader(r)
	case MethodZstd:
		return newZstdReader(r)
	case MethodXZ:
		return newXZReader(r)
	default:
		return nil, errors.Wrapf(ErrUnknownMethod, "%d", method)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
