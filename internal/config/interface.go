package config

import "context"

// Loader is the interface for a format-specific job-file loader.
type Loader interface {
	// Load reads every job file found under the given paths, translates
	// them into the format-agnostic model, and returns a matching Decoder.
	Load(ctx context.Context, paths ...string) (*Model, Decoder, error)
}

// Decoder binds a component's raw arguments to the configuration struct of
// its descriptor.
type Decoder interface {
	// DecodeArguments fills target, a pointer to a struct, from the
	// component's arguments. A component without arguments still gets its
	// required fields checked.
	DecodeArguments(ctx context.Context, c *Component, target any) error
}
