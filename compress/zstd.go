package compress

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Zstd level bounds, per spec: Min=1, Max=22, Default=3.
const (
	zstdMin     = 1
	zstdMax     = 22
	zstdDefault = 3
)

func zstdEncoderLevel(l Level) zstd.EncoderLevel {
	var v int
	switch l.kind {
	case levelMin:
		v = zstdMin
	case levelMax:
		v = zstdMax
	case levelCustom:
		v = clamp(int(l.custom), zstdMin, zstdMax)
	default:
		v = zstdDefault
	}
	return zstd.EncoderLevelFromZstd(v)
}

// zstdWriteCloser adapts *zstd.Encoder, whose Close both flushes the frame
// and releases background compression goroutines, to our WriteCloser.
type zstdWriteCloser struct {
	*zstd.Encoder
}

func newZstdWriter(w io.Writer, level Level) (WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdEncoderLevel(level)))
	if err != nil {
		return nil, errors.Wrap(err, "compress: new zstd writer")
	}
	return zstdWriteCloser{enc}, nil
}

func newZstdReader(r io.Reader) (io.Reader, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "compress: new zstd reader")
	}
	return &zstdReader{dec}, nil
}

// zstdReader wraps *zstd.Decoder so callers can treat it as a plain
// io.Reader; the decoder's Close just releases goroutines and is safe to
// skip for small one-shot reads, but we free it eagerly on EOF.
type zstdReader struct {
	dec *zstd.Decoder
}

func (r *zstdReader) Read(p []byte) (int, error) {
	n, err := r.dec.Read(p)
	if err != nil {
		r.dec.Close()
	}
	return n, err
}
