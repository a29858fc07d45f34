// Package notification provides lending.Notifier implementations.
//
// LogNotifier turns every notification into a structured log line. JSONNotifier appends one
// JSON envelope per notification to an io.Writer, e.g. a file tailed by a delivery worker.
// MultiNotifier fans one notification out to several notifiers.
//
// Notify has no return value, so delivery failures never reach the lending.Manager.
// They are logged and handed to the ErrorHandler configured with WithErrorHandler.
package notification
