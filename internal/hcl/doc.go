// Package hcl provides the HCL implementation of the config.Loader and
// config.Decoder interfaces. It parses job files, translates their blocks
// into the format-agnostic config.Model, and decodes component arguments
// into descriptor configuration structs with gohcl.
package hcl
