// Package cli turns the dqgrid command line into an app.Config. It owns the
// flag set, the usage text and the process exit codes; everything after
// parsing belongs to the app package.
package cli
