package frameloop

import "github.com/gogpu/gputypes"

// ContextOption configures a GraphicsContext during Initialize.
//
// Example:
//
//	gc, err := frameloop.Initialize(backend, target,
//	    frameloop.WithPowerPreference(gputypes.PowerPreferenceLowPower))
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Initialize.
type contextOptions struct {
	power     gputypes.PowerPreference
	features  gputypes.Features
	limits    gputypes.Limits
	instance  gputypes.InstanceFlags
	backends  gputypes.Backends
	labelBase string
}

// defaultContextOptions returns the default options.
func defaultContextOptions() contextOptions {
	return contextOptions{
		power:     gputypes.PowerPreferenceNone,
		limits:    gputypes.DefaultLimits(),
		backends:  gputypes.BackendsPrimary,
		labelBase: "frameloop",
	}
}

// WithPowerPreference changes the adapter ranking. LowPower ranks
// integrated adapters ahead of discrete ones; the default and
// HighPerformance rank discrete first.
func WithPowerPreference(p gputypes.PowerPreference) ContextOption {
	return func(o *contextOptions) {
		o.power = p
	}
}

// WithFeatures requests optional device features.
func WithFeatures(f gputypes.Features) ContextOption {
	return func(o *contextOptions) {
		o.features = f
	}
}

// WithLimits sets the device limits requested when opening the adapter.
func WithLimits(l gputypes.Limits) ContextOption {
	return func(o *contextOptions) {
		o.limits = l
	}
}

// WithInstanceFlags sets the instance flags (debug, validation).
func WithInstanceFlags(f gputypes.InstanceFlags) ContextOption {
	return func(o *contextOptions) {
		o.instance = f
	}
}

// WithBackends restricts the backends the instance may use.
func WithBackends(b gputypes.Backends) ContextOption {
	return func(o *contextOptions) {
		o.backends = b
	}
}

// WithLabel sets the prefix used for GPU object debug labels.
func WithLabel(label string) ContextOption {
	return func(o *contextOptions) {
		if label != "" {
			o.labelBase = label
		}
	}
}
