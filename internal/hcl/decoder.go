package hcl

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/dqgrid/internal/config"
	"github.com/vk/dqgrid/internal/ctxlog"
)

// Decoder is the HCL-specific implementation of config.Decoder.
type Decoder struct{}

// NewDecoder creates a new HCL argument decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeArguments decodes the component's `arguments` block into target
// using the struct's `hcl` tags. Arguments are evaluated without variables
// or functions.
func (d *Decoder) DecodeArguments(ctx context.Context, c *config.Component, target any) error {
	logger := ctxlog.FromContext(ctx).With("component", c.Name)

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("component %q: decode target must be a non-nil pointer to a struct, got %T", c.Name, target)
	}

	body := c.Arguments
	if body == nil {
		logger.Debug("No arguments block, decoding defaults.")
		body = hcl.EmptyBody()
	}
	if diags := gohcl.DecodeBody(body, nil, target); diags.HasErrors() {
		return fmt.Errorf("component %q arguments: %w", c.Name, diags)
	}
	logger.Debug("Decoded component arguments.", "type", v.Elem().Type().String())
	return nil
}
