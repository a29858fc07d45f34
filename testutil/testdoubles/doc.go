// Package testdoubles provides stubs and spies for the lending collaborators and the
// observability interfaces.
//
// The spies record every call under a mutex so they can be shared between goroutines in
// concurrency tests. Records are returned as copies.
package testdoubles
