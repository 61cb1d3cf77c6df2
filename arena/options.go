package arena

import (
	"log/slog"

	"github.com/gogpu/frontend/region"
)

// Option configures an Arena during creation.
type Option func(*options)

type options struct {
	policy   region.Policy
	capacity int
	logger   *slog.Logger
}

func defaultOptions() options {
	return options{
		policy:   region.FirstFit,
		capacity: region.DefaultCapacity,
		logger:   slog.New(slog.DiscardHandler),
	}
}

// WithPolicy sets the fit policy of the three region lists.
func WithPolicy(p region.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithCapacity preallocates room for n regions per sink.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithLogger sets the logger for allocation diagnostics. A nil logger keeps
// the silent default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
