package types

type RunMode string

const (
	// ModeLocal is the mode for running the engine embedded in a local process
	ModeLocal RunMode = "local"
	// ModeService is the mode for running the engine embedded in a deployed service
	ModeService RunMode = "service"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
