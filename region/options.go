package region

// Option configures a List during creation.
//
// Example:
//
//	l := region.New(region.WithPolicy(region.BestFit), region.WithCapacity(256))
type Option func(*options)

type options struct {
	policy   Policy
	capacity int
	maxSize  uint32
}

func defaultOptions() options {
	return options{
		policy:   FirstFit,
		capacity: DefaultCapacity,
		maxSize:  MaxSize,
	}
}

// WithPolicy selects how Allocate chooses among free Regions.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithCapacity preallocates room for n Regions.
// Values below 1 keep the default.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithMaxSize caps the address space in bytes. Allocations that would grow
// the space past the cap fail. The cap never exceeds MaxSize.
func WithMaxSize(n uint32) Option {
	return func(o *options) {
		o.maxSize = min(n, MaxSize)
	}
}
