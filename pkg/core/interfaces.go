package core

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// discardLogger drops everything it is given
type discardLogger struct{}

func (discardLogger) Printf(format string, args ...interface{}) {}

// DiscardLogger returns a Logger that writes nowhere
func DiscardLogger() Logger {
	return discardLogger{}
}
