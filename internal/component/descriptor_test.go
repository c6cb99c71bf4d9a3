package component

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"
)

func noopFactory(context.Context, Provided) (Component, error) { return struct{}{}, nil }

func TestDescriptorIsConcurrent(t *testing.T) {
	tests := []struct {
		kind Kind
		hint Concurrency
		want bool
	}{
		{KindFilter, ConcurrencyDefault, true},
		{KindTransformer, ConcurrencyDefault, true},
		{KindAnalyzer, ConcurrencyDefault, true},
		{KindExplorer, ConcurrencyDefault, false},
		{KindFilter, Serial, false},
		{KindAnalyzer, Serial, false},
		{KindExplorer, Concurrent, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			d := &Descriptor{Kind: tt.kind, Concurrency: tt.hint}
			assert.Equal(t, tt.want, d.IsConcurrent())
		})
	}
}

func TestDescriptorCheck(t *testing.T) {
	t.Run("valid filter", func(t *testing.T) {
		d := &Descriptor{Name: "f", Kind: KindFilter, Categories: []string{"VALID", "INVALID"}, New: noopFactory}
		assert.NoError(t, d.Check())
		assert.True(t, d.HasCategory("VALID"))
		assert.False(t, d.HasCategory("MAYBE"))
	})

	t.Run("collects every problem", func(t *testing.T) {
		d := &Descriptor{Kind: KindFilter, MinInputs: 3, MaxInputs: 1}
		err := d.Check()
		assert.ErrorContains(t, err, "no name")
		assert.ErrorContains(t, err, "no factory")
		assert.ErrorContains(t, err, "no categories")
		assert.ErrorContains(t, err, "min inputs 3 exceeds max inputs 1")
	})

	t.Run("outputs only on transformers", func(t *testing.T) {
		d := &Descriptor{Name: "a", Kind: KindAnalyzer, New: noopFactory, Outputs: []OutputSpec{{Name: "x"}}}
		assert.ErrorContains(t, d.Check(), "declares output columns")
	})
}

func TestDescriptorAcceptsType(t *testing.T) {
	anyInput := &Descriptor{}
	assert.True(t, anyInput.AcceptsType(cty.String))

	numeric := &Descriptor{InputType: cty.Number}
	assert.True(t, numeric.AcceptsType(cty.Number))
	assert.True(t, numeric.AcceptsType(cty.DynamicPseudoType))
	assert.False(t, numeric.AcceptsType(cty.String))
}

type sumResult int

func (s sumResult) Merge(other Result) (Result, error) { return s + other.(sumResult), nil }

func TestMerge(t *testing.T) {
	r, err := Merge(nil, sumResult(2))
	assert.NoError(t, err)
	assert.Equal(t, sumResult(2), r)

	r, err = Merge(sumResult(3), sumResult(4))
	assert.NoError(t, err)
	assert.Equal(t, sumResult(7), r)

	_, err = Merge("a", "b")
	var nm *NotMergeableError
	assert.ErrorAs(t, err, &nm)
}
