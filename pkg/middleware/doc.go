// Package middleware provides ready-made action observers: structured
// logging, Prometheus metrics, OpenTelemetry spans, and a journal recorder.
//
// Each observer accepts every context in Filter. Register them on an
// action.Tracker with Use, optionally scoped with action.InSubtree.
package middleware
