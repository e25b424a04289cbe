package csvsource

// reader.go cleans CSV input as it streams, holding only a small buffer:
//
//   - a leading UTF-8 byte order mark is dropped
//   - invalid UTF-8 bytes are replaced with '?'

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader over r without a leading byte order mark.
func skipBOM(r io.Reader) (*bufio.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}
	return br, nil
}

// sanitizer copies runes from a bufio.Reader, turning each invalid byte into
// '?'. Multi-byte runes split across reads are handled by ReadRune, which
// looks ahead in the buffer.
type sanitizer struct {
	r   *bufio.Reader
	buf [utf8.UTFMax]byte
	n   int // pending bytes of a rune that did not fit in the caller's slice
	off int
}

func newSanitizer(r *bufio.Reader) *sanitizer {
	return &sanitizer{r: r}
}

func (s *sanitizer) Read(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if s.off < s.n {
			c := copy(p[written:], s.buf[s.off:s.n])
			s.off += c
			written += c
			continue
		}

		r, size, err := s.r.ReadRune()
		if err != nil {
			if written > 0 && err == io.EOF {
				return written, nil
			}
			return written, err
		}
		if r == utf8.RuneError && size == 1 {
			r = '?'
		}

		n := utf8.EncodeRune(s.buf[:], r)
		if n <= len(p)-written {
			copy(p[written:], s.buf[:n])
			written += n
			s.n, s.off = 0, 0
		} else {
			s.n, s.off = n, 0
		}

		// Return what we have once the buffered input is drained rather
		// than blocking on the underlying reader for more.
		if s.r.Buffered() == 0 && s.off >= s.n {
			break
		}
	}
	return written, nil
}

// clean wraps r with BOM skipping and UTF-8 sanitizing.
func clean(r io.Reader) (io.Reader, error) {
	br, err := skipBOM(r)
	if err != nil {
		return nil, err
	}
	return newSanitizer(br), nil
}
