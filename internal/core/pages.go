package core

import "context"

// PageStream drives a PageSource with an advancing offset and yields pages
// lazily until the first empty page.
//
// Each Next performs exactly one fetch. Offsets start at zero and grow by
// the page size, so a data set that changes during traversal may yield
// drifted or repeated rows.
type PageStream struct {
	src    PageSource
	size   int
	offset int

	cur  Page
	err  error
	done bool
}

// NewPageStream pages through src with the given page size.
func NewPageStream(src PageSource, size int) (*PageStream, error) {
	if src == nil {
		return nil, invalidArgument("nil page source")
	}
	if size < 1 {
		return nil, invalidArgument("page size must be positive, got %d", size)
	}
	return &PageStream{src: src, size: size}, nil
}

// Next fetches the page at the current offset.
func (s *PageStream) Next(ctx context.Context) bool {
	if s.done {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.done, s.err = true, dataSourceError("fetch", err)
		return false
	}

	page, err := s.src.Fetch(ctx, s.size, s.offset)
	if err != nil {
		s.done, s.err = true, err
		s.cur = Page{}
		return false
	}
	if page.Empty() {
		s.done = true
		s.cur = Page{}
		return false
	}

	s.cur = page
	s.offset += s.size
	return true
}

// Value returns the current page.
func (s *PageStream) Value() Page {
	return s.cur
}

// Err returns the fetch error that ended the stream, if any.
func (s *PageStream) Err() error {
	return s.err
}

// Offset returns the offset of the next fetch.
func (s *PageStream) Offset() int {
	return s.offset
}

// Close stops the stream. Nothing is held between fetches.
func (s *PageStream) Close() error {
	s.done = true
	return nil
}
