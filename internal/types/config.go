package types

type RunMode string

const (
	// ModeLocal runs a single simulation session in-process
	ModeLocal RunMode = "local"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
