// Package registry is the typed catalog of component descriptors.
//
// Modules register their descriptors at startup. The registry is then
// validated so that descriptors and their configuration structs are known to
// be usable before any job file is loaded, preventing a wide class of
// runtime errors.
package registry
