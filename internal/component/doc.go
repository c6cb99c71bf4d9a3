// Package component defines the contract every filter, transformer, analyzer
// and explorer implements, and the Descriptor that describes a component
// type to the engine.
//
// The engine never inspects a component beyond its Descriptor and the
// interfaces below. Variant behavior is selected by Descriptor.Kind, not by
// type hierarchies: a filter implements Filter, an analyzer implements
// Analyzer, and any kind may additionally implement Validator, Initializer,
// Closer or Resulter.
package component
