package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Validate checks every descriptor and its configuration struct. Config
// fields must carry `hcl` tags with types that map onto cty types, so that
// job-file arguments can be decoded into them.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, d := range r.Descriptors() {
		if err := d.Check(); err != nil {
			errs = append(errs, err.Error())
		}
		if d.NewConfig == nil {
			continue
		}

		cfg := d.NewConfig()
		v := reflect.ValueOf(cfg)
		if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("component '%s': NewConfig must return a pointer to a struct, got %T", d.Name, cfg))
			continue
		}

		st := v.Elem().Type()
		tagged := 0
		for i := 0; i < st.NumField(); i++ {
			field := st.Field(i)
			if !field.IsExported() {
				continue
			}
			tag := field.Tag.Get("hcl")
			tagName := strings.Split(tag, ",")[0]
			if tagName == "" {
				errs = append(errs, fmt.Sprintf("component '%s': config field '%s' has no hcl tag", d.Name, field.Name))
				continue
			}
			tagged++
			if _, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface()); err != nil {
				errs = append(errs, fmt.Sprintf("component '%s', argument '%s': could not imply cty type from Go field type %s: %v", d.Name, tagName, field.Type, err))
			}
		}
		if tagged == 0 {
			logger.Warn("Component declares a config struct without arguments.", "component", d.Name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
