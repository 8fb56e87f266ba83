package errors

import "errors"

// Error messages.
var (
	ErrInvalidLanguageType   = errors.New("invalid language type")
	ErrUnsupportedValueType  = errors.New("unsupported entry point value type")
	ErrInvalidEntryPoint     = errors.New("invalid entry point")
	ErrToolchainUnavailable  = errors.New("toolchain unavailable")
	ErrIsolationUnavailable  = errors.New("isolation backend unavailable on this platform")
	ErrUnknownSandboxBackend = errors.New("unknown sandbox backend")
	ErrFailedToGetFreeWorker = errors.New("failed to get free worker")
	ErrUnknownMessageType    = errors.New("unknown message type")
	ErrContainerFailed       = errors.New("container failed to execute")
	ErrSpawnFailed           = errors.New("failed to spawn sandboxed process")
	ErrSandboxInitFailed     = errors.New("sandbox helper failed before exec")
	ErrVolumeNotMounted      = errors.New("jobs data volume is not mounted in this container")
	ErrEmptyCommand          = errors.New("sandbox command is empty")
	ErrCompilationFailed     = errors.New("compilation failed")
	ErrResponderClosed       = errors.New("responder is closed")
)
