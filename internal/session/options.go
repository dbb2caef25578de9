package session

import "go.uber.org/zap"

const defaultBufferSize = 4 << 10

// Option configures Dial.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	bufferSize int
}

// WithLogger attaches a logger for lifecycle events. Nil keeps the no-op
// logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBufferSize sets the framing buffer size and, for unix sockets, the
// kernel send/receive buffer sizes.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
