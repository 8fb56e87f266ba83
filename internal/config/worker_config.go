package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/pkg/constants"
	"go.uber.org/zap"
)

type Config struct {
	RabbitMQURL       string
	PublishChanSize   int
	ConsumeQueueName  string
	ResponseQueueName string
	MaxWorkers        int
	MaxProcesses      int
	MetricsPort       string
	Sandbox           SandboxConfig
	Limits            LimitsConfig
	CppCompileFlags   string
	JavaCompileFlags  string
	// Empty disables caching of build artifacts.
	ArtifactCacheDir  string
}

type SandboxConfig struct {
	Backend        string
	JobsDataVolume string
	ScratchRoot    string
	Namespaces     bool
}

type LimitsConfig struct {
	TimeLimitMs        int64
	MemoryLimitMB      int64
	CompileTimeLimitMs int64
	OutputLimitBytes   int64
}

func NewConfig() *Config {
	logger := logger.NewNamedLogger("config")

	_, err := os.Stat(".env")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("failed to stat .env file with error: %v", err)
		}
	} else {
		if os.Getenv("ENV") == "PROD" {
			logger.Warn(".env file detected in production environment. This is not recommended.")
		}
		err = godotenv.Load(".env")
		if err != nil {
			logger.Fatalf("failed to load .env file with error: %v", err)
		}
	}

	rabbitmqURL, publishChanSize := rabbitmqConfig(logger)
	workerQueueName, responseQueueName, maxWorkers, maxProcesses := workerConfig(logger)
	cppFlags, javaFlags := compilerConfig(logger)

	return &Config{
		RabbitMQURL:       rabbitmqURL,
		PublishChanSize:   publishChanSize,
		ConsumeQueueName:  workerQueueName,
		ResponseQueueName: responseQueueName,
		MaxWorkers:        maxWorkers,
		MaxProcesses:      maxProcesses,
		MetricsPort:       stringEnv(logger, "METRICS_PORT", constants.DefaultMetricsPort),
		Sandbox:           sandboxConfig(logger),
		Limits:            limitsConfig(logger),
		CppCompileFlags:   cppFlags,
		JavaCompileFlags:  javaFlags,
		ArtifactCacheDir:  artifactCacheDir(logger),
	}
}

func rabbitmqConfig(logger *zap.SugaredLogger) (string, int) {
	rabbitmqHost := stringEnv(logger, "RABBITMQ_HOST", constants.DefaultRabbitmqHost)
	rabbitmqPortStr := stringEnv(logger, "RABBITMQ_PORT", constants.DefaultRabbitmqPort)
	rabbitmqPort, err := strconv.ParseUint(rabbitmqPortStr, 10, 16)
	if err != nil {
		logger.Fatalf("failed to parse RABBITMQ_PORT with error: %v", err)
	}
	rabbitmqUser := stringEnv(logger, "RABBITMQ_USER", constants.DefaultRabbitmqUser)
	rabbitmqPassword := os.Getenv("RABBITMQ_PASSWORD")
	if rabbitmqPassword == "" {
		rabbitmqPassword = constants.DefaultRabbitmqPassword
		logger.Warn("RABBITMQ_PASSWORD is not set, using default value")
	}
	publishChanSize := intEnv(logger, "RABBITMQ_PUBLISH_CHAN_SIZE", constants.DefaultRabbitmqPublishChanSize)

	rabbitmqURL := fmt.Sprintf("amqp://%s:%s@%s:%d/", rabbitmqUser, rabbitmqPassword, rabbitmqHost, rabbitmqPort)

	return rabbitmqURL, int(publishChanSize)
}

func workerConfig(logger *zap.SugaredLogger) (string, string, int, int) {
	workerQueueName := stringEnv(logger, "WORKER_QUEUE_NAME", constants.DefaultWorkerQueueName)
	responseQueueName := stringEnv(logger, "RESPONSE_QUEUE_NAME", constants.DefaultResponseQueueName)

	maxWorkers := intEnv(logger, "MAX_WORKERS", constants.DefaultMaxWorkers)
	if maxWorkers <= 0 {
		logger.Fatalf("MAX_WORKERS must be positive, got %d", maxWorkers)
	}
	maxProcesses := intEnv(logger, "MAX_PROCESSES", constants.DefaultMaxProcesses)
	if maxProcesses <= 0 {
		logger.Fatalf("MAX_PROCESSES must be positive, got %d", maxProcesses)
	}

	return workerQueueName, responseQueueName, int(maxWorkers), int(maxProcesses)
}

func sandboxConfig(logger *zap.SugaredLogger) SandboxConfig {
	backend := strings.ToLower(stringEnv(logger, "SANDBOX_BACKEND", constants.DefaultSandboxBackend))
	switch backend {
	case constants.SandboxBackendDocker, constants.SandboxBackendLocal:
	default:
		logger.Fatalf("SANDBOX_BACKEND must be %q or %q, got %q",
			constants.SandboxBackendDocker, constants.SandboxBackendLocal, backend)
	}

	// An empty volume name means scratch dirs are bind mounted from the host.
	jobsDataVolume := os.Getenv("JOBS_DATA_VOLUME")

	namespaces := constants.DefaultSandboxNamespaces
	if raw := os.Getenv("SANDBOX_NAMESPACES"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			logger.Fatalf("failed to parse SANDBOX_NAMESPACES with error: %v", err)
		}
		namespaces = v
	}

	return SandboxConfig{
		Backend:        backend,
		JobsDataVolume: jobsDataVolume,
		ScratchRoot:    stringEnv(logger, "SCRATCH_ROOT", constants.DefaultScratchRoot),
		Namespaces:     namespaces,
	}
}

func limitsConfig(logger *zap.SugaredLogger) LimitsConfig {
	limits := LimitsConfig{
		TimeLimitMs:        intEnv(logger, "DEFAULT_TIME_LIMIT_MS", constants.DefaultTimeLimitMs),
		MemoryLimitMB:      intEnv(logger, "DEFAULT_MEMORY_LIMIT_MB", constants.DefaultMemoryLimitMB),
		CompileTimeLimitMs: intEnv(logger, "COMPILE_TIME_LIMIT_MS", constants.DefaultCompileTimeLimitMs),
		OutputLimitBytes:   intEnv(logger, "OUTPUT_LIMIT_BYTES", constants.DefaultOutputLimitBytes),
	}
	if limits.TimeLimitMs <= 0 || limits.MemoryLimitMB <= 0 ||
		limits.CompileTimeLimitMs <= 0 || limits.OutputLimitBytes <= 0 {
		logger.Fatalf("limits must be positive, got %+v", limits)
	}
	return limits
}

func compilerConfig(logger *zap.SugaredLogger) (string, string) {
	cppFlags, ok := os.LookupEnv("CPP_COMPILE_FLAGS")
	if !ok {
		cppFlags = constants.DefaultCppCompileFlags
		logger.Warnf("CPP_COMPILE_FLAGS is not set, using default value %s", constants.DefaultCppCompileFlags)
	}
	javaFlags, ok := os.LookupEnv("JAVA_COMPILE_FLAGS")
	if !ok {
		javaFlags = constants.DefaultJavaCompileFlags
		logger.Warnf("JAVA_COMPILE_FLAGS is not set, using default value %s", constants.DefaultJavaCompileFlags)
	}
	return cppFlags, javaFlags
}

func artifactCacheDir(logger *zap.SugaredLogger) string {
	dir, ok := os.LookupEnv("ARTIFACT_CACHE_DIR")
	if !ok {
		logger.Warnf("ARTIFACT_CACHE_DIR is not set, using default value %s", constants.DefaultArtifactCacheDir)
		return constants.DefaultArtifactCacheDir
	}
	return dir
}

func stringEnv(logger *zap.SugaredLogger, key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Warnf("%s is not set, using default value %s", key, def)
		return def
	}
	return v
}

func intEnv(logger *zap.SugaredLogger, key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		logger.Warnf("%s is not set, using default value %d", key, def)
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Fatalf("failed to parse %s with error: %v", key, err)
	}
	return v
}
