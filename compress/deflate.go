package compress

import (
	"compress/flate"
	"io"

	"github.com/pkg/errors"
)

// Deflate level bounds, per spec: Min=0 (flate.NoCompression),
// Max=9 (flate.BestCompression), Default=6.
const (
	deflateMin     = flate.NoCompression
	deflateMax     = flate.BestCompression
	deflateDefault = 6
)

func deflateLevel(l Level) int {
	switch l.kind {
	case levelMin:
		return deflateMin
	case levelMax:
		return deflateMax
	case levelCustom:
		return clamp(int(l.custom), deflateMin, deflateMax)
	default:
		return deflateDefault
	}
}

func newDeflateWriter(w io.Writer, level Level) (WriteCloser, error) {
	fw, err := flate.NewWriter(w, deflateLevel(level))
	if err != nil {
		return nil, errors.Wrap(err, "compress: new deflate writer")
	}
	return fw, nil
}

func newDeflateReader(r io.Reader) (io.Reader, error) {
	return flate.NewReader(r), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
