package di

import "github.com/rs/zerolog"

// Option configures the components created by an entry point. Options are
// inherited by subcomponents, builders and factories created from them.
type Option func(*config)

type config struct {
	log zerolog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{log: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithLogger routes resolution tracing to log. Events are logged at debug
// level.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) { c.log = log }
}

// Create builds a top-level component using the default instances of its
// modules. Components with dependencies need a builder or factory.
func Create(desc *ComponentDescriptor, opts ...Option) (*Component, error) {
	if err := checkRoot(desc); err != nil {
		return nil, err
	}
	return newAssembly(desc, nil, newConfig(opts)).build()
}

// NewBuilder returns the builder declared by desc.
func NewBuilder(desc *ComponentDescriptor, opts ...Option) (*Builder, error) {
	if err := checkRoot(desc); err != nil {
		return nil, err
	}
	return newBuilder(desc, nil, newConfig(opts))
}

// NewFactory returns the factory declared by desc.
func NewFactory(desc *ComponentDescriptor, opts ...Option) (*Factory, error) {
	if err := checkRoot(desc); err != nil {
		return nil, err
	}
	return newFactory(desc, nil, newConfig(opts))
}

// MustCreate is like Create but panics on error.
func MustCreate(desc *ComponentDescriptor, opts ...Option) *Component {
	c, err := Create(desc, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// MustBuilder is like NewBuilder but panics on error.
func MustBuilder(desc *ComponentDescriptor, opts ...Option) *Builder {
	b, err := NewBuilder(desc, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// MustFactory is like NewFactory but panics on error.
func MustFactory(desc *ComponentDescriptor, opts ...Option) *Factory {
	f, err := NewFactory(desc, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func checkRoot(desc *ComponentDescriptor) error {
	if desc == nil {
		return ErrNilDescriptor
	}
	if desc.Subcomponent {
		return ErrSubcomponentRoot
	}
	return nil
}
