// Package oteladapters provides OpenTelemetry adapters for the lending observability interfaces.
// They let callers plug a lending.Manager into an existing OpenTelemetry setup
// without implementing the interfaces themselves.
package oteladapters
