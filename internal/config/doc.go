// Package config defines the format-agnostic model of a job file, along
// with the Loader and Decoder interfaces that concrete formats implement.
//
// The Model is the single input of the builder package. The HCL
// implementation lives in the hcl package.
package config
