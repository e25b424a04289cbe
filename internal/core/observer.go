package core

// Observer receives pipeline events for metrics. Implementations must be
// safe for concurrent use because independent streams may share one.
type Observer interface {
	CursorOpened()
	CursorClosed()
	RowRead()
	BatchEmitted()
	PageFetched()
	RecordSkipped(reason string)
	SourceError(kind string)
}

type nopObserver struct{}

func (nopObserver) CursorOpened()        {}
func (nopObserver) CursorClosed()        {}
func (nopObserver) RowRead()             {}
func (nopObserver) BatchEmitted()        {}
func (nopObserver) PageFetched()         {}
func (nopObserver) RecordSkipped(string) {}
func (nopObserver) SourceError(string)   {}

// Option configures a pipeline stage.
type Option func(*options)

type options struct {
	observer            Observer
	emptyOnConnectError bool
}

func buildOptions(opts []Option) options {
	o := options{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithObserver reports stage events to obs. A nil obs is ignored.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithEmptyOnConnectError makes a Paginator report a connection failure,
// whether at open or a loss the driver reports during execute or fetch, as
// an empty page with a nil error, which callers cannot tell apart from the
// end of the data. It exists for compatibility with callers that rely on
// that behavior.
func WithEmptyOnConnectError(enabled bool) Option {
	return func(o *options) {
		o.emptyOnConnectError = enabled
	}
}
