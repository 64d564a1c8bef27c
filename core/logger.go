package core

// Logger is implemented by the logging services (see services/logger).
//
// args may contain an error, a map of extra context values and/or a domain
// user value; implementations decide what to do with each.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
