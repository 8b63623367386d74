package app

// Option tunes one Run invocation
type Option func(*options)

type options struct {
	logLevel     string
	killExisting bool
}

// WithLogLevel changes the process log level for this run
// accepted values: debug, info, warn/warning, error, critical
func WithLogLevel(level string) Option {
	return func(o *options) { o.logLevel = level }
}

// WithKillExisting terminates whatever process already holds the listen
// port before starting, for notebook re-runs after a crashed kernel
func WithKillExisting(kill bool) Option {
	return func(o *options) { o.killExisting = kill }
}
