// Package job is the immutable description of a profiling job: the source
// tables and their columns, the component jobs that read them, and the
// outcome requirements that wire filters to the components they gate.
//
// A Graph is assembled with a Builder and handed to the compiler. Nothing
// in this package executes components.
package job
