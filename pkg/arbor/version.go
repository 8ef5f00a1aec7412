// Package arbor holds build information shared by the arbor packages and
// the arbor command.
package arbor

// Version is the release of this module.
const Version = "0.1.0"

// ModulePath is the Go import path of this module.
const ModulePath = "github.com/mesh-intelligence/arbor"
