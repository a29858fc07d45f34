package lending

// Option defines a functional option for configuring a Manager.
type Option func(*Manager) error

// WithLogger sets the basic logger for the Manager.
// Successful operations are logged at Info level, business rejections at Debug level
// and AddBook reductions that would drop below zero copies at Warn level.
func WithLogger(logger Logger) Option {
	return func(m *Manager) error {
		m.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Manager.
// It takes precedence over the basic logger and receives the operation context,
// which enables automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(m *Manager) error {
		m.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Manager.
// The collector receives operation durations, call counts labelled by outcome
// and the available copies of a book after each state change. The copies gauge is
// labelled by book ID, so backends that keep one series per label set (Prometheus)
// hold one series per cataloged book.
func WithMetrics(collector MetricsCollector) Option {
	return func(m *Manager) error {
		m.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Manager.
// BorrowBook and ReturnBook each run inside one span which the collaborators can join via the context.
func WithTracing(collector TracingCollector) Option {
	return func(m *Manager) error {
		m.tracingCollector = collector
		return nil
	}
}
