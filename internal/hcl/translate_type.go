// This file parses column type keywords (`string`, `number`, `bool`, `any`)
// into their cty.Type equivalents.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

var columnTypes = map[string]cty.Type{
	"string": cty.String,
	"number": cty.Number,
	"bool":   cty.Bool,
	"any":    cty.DynamicPseudoType,
}

// typeExprToCtyType converts a column type expression into a cty.Type. The
// keyword may be bare (`type = number`) or quoted (`type = "number"`).
// Columns hold scalar values, so collection constructors are rejected.
func typeExprToCtyType(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	if call, ok := expr.(*hclsyntax.FunctionCallExpr); ok {
		return cty.DynamicPseudoType, fmt.Errorf("column types must be primitive, got %s(...)", call.Name)
	}

	keyword := hcl.ExprAsKeyword(expr)
	if keyword == "" {
		tmpl, ok := expr.(*hclsyntax.TemplateExpr)
		if !ok || !tmpl.IsStringLiteral() {
			return cty.DynamicPseudoType, fmt.Errorf("unsupported expression for type definition: %T", expr)
		}
		v, diags := tmpl.Value(nil)
		if diags.HasErrors() {
			return cty.DynamicPseudoType, diags
		}
		keyword = v.AsString()
	}

	ctxlog.FromContext(ctx).Debug("Parsing column type keyword.", "keyword", keyword)
	t, ok := columnTypes[keyword]
	if !ok {
		return cty.DynamicPseudoType, fmt.Errorf("unknown primitive type %q", keyword)
	}
	return t, nil
}
