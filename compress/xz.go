package compress

import (
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// XZ level bounds, per spec: Min=0, Max=9, Default=6. github.com/ulikunitz/xz
// doesn't expose a numeric level knob directly; it takes a dictionary-size
// preset instead, so we map the abstract 0..9 range onto xz.Writer presets.
const (
	xzMin     = 0
	xzMax     = 9
	xzDefault = 6
)

func xzDictCap(l Level) int {
	var v int
	switch l.kind {
	case levelMin:
		v = xzMin
	case levelMax:
		v = xzMax
	case levelCustom:
		v = clamp(int(l.custom), xzMin, xzMax)
	default:
		v = xzDefault
	}
	// 1<<20 (1 MiB) at level 0 up to 1<<26 (64 MiB) at level 9.
	return 1 << (20 + v*6/9)
}

type xzWriteCloser struct {
	*xz.Writer
}

func newXZWriter(w io.Writer, level Level) (WriteCloser, error) {
	cfg := xz.WriterConfig{DictCap: xzDictCap(level)}
	xw, err := cfg.NewWriter(w)
	if err != nil {
		return nil, errors.Wrap(err, "compress: new xz writer")
	}
	return xzWriteCloser{xw}, nil
}

func newXZReader(r io.Reader) (io.Reader, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "compress: new xz reader")
	}
	return xr, nil
}
