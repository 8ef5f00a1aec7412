// Package types defines the handles, parent paths, action outcomes, journal
// events, configuration, and sentinel errors shared by the arbor packages.
package types
