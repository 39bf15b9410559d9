package reconciler

import "time"

// options configures a merge.
type options struct {
	clock func() time.Time
}

func defaultOptions() *options {
	return &options{
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// Option is a function that configures a merge.
type Option func(*options)

func newOptions(opts ...Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithClock sets the source of the merge timestamp stamped on every record.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}
