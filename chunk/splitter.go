package chunk

import "io"

// DefaultMaxDataLen is the conventional buffering threshold entry writers
// use before they cut an FDAT/SDAT chunk: 1 MiB. Any value up to MaxDataLen
// is legal; this is only the default the splitter picks when none is given.
const DefaultMaxDataLen = 1 << 20

// Splitter is an io.WriteCloser that buffers caller writes and emits one
// chunk of type Kind every time it accumulates MaxLen bytes. Closing the
// splitter flushes any remainder as a final, possibly short, chunk; if
// nothing is buffered (an empty stream, or one whose length is a multiple
// of MaxLen) Close emits no chunk. A Splitter is used for the
// FDAT stream of an entry and the SDAT stream of a solid container alike --
// both are "some type, possibly several chunks, no alignment requirement".
type Splitter struct {
	w      io.Writer
	Kind   Type
	MaxLen int
	buf    []byte
}

// NewSplitter returns a Splitter that writes chunks of the given type to w,
// buffering up to maxLen bytes of data per chunk. maxLen <= 0 selects
// DefaultMaxDataLen.
func NewSplitter(w io.Writer, kind Type, maxLen int) *Splitter {
	if maxLen <= 0 || maxLen > MaxDataLen {
		maxLen = DefaultMaxDataLen
	}
	return &Splitter{w: w, Kind: kind, MaxLen: maxLen}
}

func (s *Splitter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		room := s.MaxLen - len(s.buf)
		n := len(p)
		if n > room {
			n = room
		}
		s.buf = append(s.buf, p[:n]...)
		p = p[n:]
		if len(s.buf) >= s.MaxLen {
			if err := s.flush(); err != nil {
				return total - len(p), err
			}
		}
	}
	return total, nil
}

func (s *Splitter) flush() error {
	if err := Write(s.w, s.Kind, s.buf); err != nil {
		return err
	}
	s.buf = s.buf[:0]
	return nil
}

// Close flushes any buffered remainder. A stream that never received any
// bytes emits zero chunks; concatenating zero chunks still yields the
// correct (empty) body.
func (s *Splitter) Close() error {
	if len(s.buf) == 0 {
		return nil
	}
	return s.flush()
}
