package constants

// Queue message types.
const (
	QueueMessageTypeRun       = "run"
	QueueMessageTypeHandshake = "handshake"
	QueueMessageTypeStatus    = "status"
)

// Console diagnostic markers, one per test case line.
const (
	ConsoleTimeLimitExceeded   = "Time Limit Exceeded"
	ConsoleMemoryLimitExceeded = "Memory Limit Exceeded"
	ConsoleRuntimeError        = "Runtime Error"
	ConsoleErrorPrefix         = "Error: "
	ConsoleTestCaseFormat      = "Test case %d: %s"
	OutputTruncatedMarker      = "\n...[output truncated]"
)

// Report error summaries.
const (
	ReportErrorUnsupportedLanguage = "Unsupported language"
	ReportErrorToolchainMissing    = "Toolchain unavailable for language %s"
	ReportErrorCompilation         = "Compilation error"
	ReportErrorInvalidEntryPoint   = "Invalid entry point"
	ReportErrorExecution           = "Execution error: %s"
	ReportRuntimeLabelFormat       = "%dms"
	ReportMemoryLabelFormat        = "%.1fMB"
)

// Worker specific constants.
type WorkerStatus int

const (
	WorkerStatusIdle WorkerStatus = iota
	WorkerStatusBusy
)

func (ws WorkerStatus) String() string {
	switch ws {
	case WorkerStatusIdle:
		return "idle"
	case WorkerStatusBusy:
		return "busy"
	default:
		return "unknown"
	}
}

func (ws WorkerStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ws.String() + `"`), nil
}

// Exit codes.
const (
	ExitCodeSuccess = 0
	// Used by the local sandbox helper when it fails before handing over to the target.
	ExitCodeSandboxInit = 125
	// Offset a shell or container runtime adds to a terminating signal number.
	ExitCodeSignalBase = 128
)

// SIGXCPU, delivered when RLIMIT_CPU is hit.
const SignalCPULimitExceeded = 24

// Configuration constants.
const (
	DefaultRabbitmqHost            = "localhost"
	DefaultRabbitmqUser            = "guest"
	DefaultRabbitmqPassword        = "guest"
	DefaultRabbitmqPort            = "5672"
	DefaultWorkerQueueName         = "execution_queue"
	DefaultResponseQueueName       = "execution_responses"
	DefaultRabbitmqPublishChanSize = 100
	DefaultMaxWorkers              = 10
	DefaultMaxProcesses            = 8
	DefaultSandboxBackend          = "docker"
	DefaultJobsDataVolume          = ""
	DefaultScratchRoot             = "/tmp/executor"
	DefaultTimeLimitMs             = 5000
	DefaultMemoryLimitMB           = 128
	DefaultCompileTimeLimitMs      = 10000
	DefaultOutputLimitBytes        = 1 << 20
	DefaultSandboxNamespaces       = true
	DefaultMetricsPort             = "9102"
	DefaultCppCompileFlags         = "-O2 -std=c++17"
	DefaultJavaCompileFlags        = "-encoding UTF-8"
	DefaultArtifactCacheDir        = "/tmp/executor-cache"
)

// Artifact cache constants.
const (
	CacheTTLHours     = 24
	CacheMaxEntries   = 256
	CacheMetadataFile = "metadata.json"
)

// Sandbox backends.
const (
	SandboxBackendDocker = "docker"
	SandboxBackendLocal  = "local"
)

// Sandbox limits shared by every backend.
const (
	MaxFileSizeBytes      int64 = 16 * 1024 * 1024
	CompileMemoryLimitMB        = 512
	SandboxWorkDir              = "/sandbox"
	SandboxTmpfsOptions         = "rw,noexec,nosuid,size=16m"
	SandboxUser                 = "65534:65534"
	SandboxPath                 = "PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"
	ContainerCleanupTimeoutSec  = 10
	ReapGracePeriodMs           = 500
	MemoryPollIntervalMs        = 10
	ScratchDirPermissions       = 0o777
	ScratchFilePermissions      = 0o644
)

// RabbitMQ specific constants.
const (
	RabbitMQReconnectTries  = 10
	RabbitMQMaxPriority     = 3
	RabbitMQRequeuePriority = 2
	RabbitMQConsumerTag     = "executor"
	ShutdownTimeoutSec      = 60
)
