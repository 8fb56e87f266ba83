package config_test

import (
	"fmt"
	"strings"
	"testing"

	. "github.com/mini-maxit/executor/internal/config"
	"github.com/mini-maxit/executor/pkg/constants"
)

func TestRabbitmqConfig_DefaultsAndCustom(t *testing.T) {
	config := NewConfig()
	expectedURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		constants.DefaultRabbitmqUser,
		constants.DefaultRabbitmqPassword,
		constants.DefaultRabbitmqHost,
		constants.DefaultRabbitmqPort)

	if config.RabbitMQURL != expectedURL {
		t.Fatalf("expected url %q, got %q", expectedURL, config.RabbitMQURL)
	}
	if config.PublishChanSize != constants.DefaultRabbitmqPublishChanSize {
		t.Fatalf("expected publish chan size %d, got %d", constants.DefaultRabbitmqPublishChanSize, config.PublishChanSize)
	}

	t.Setenv("RABBITMQ_HOST", "rm-host")
	t.Setenv("RABBITMQ_PORT", "12345")
	t.Setenv("RABBITMQ_USER", "u1")
	t.Setenv("RABBITMQ_PASSWORD", "p1")
	t.Setenv("RABBITMQ_PUBLISH_CHAN_SIZE", "7")

	config2 := NewConfig()
	expectedURL2 := fmt.Sprintf("amqp://%s:%s@%s:%s/", "u1", "p1", "rm-host", "12345")
	if config2.RabbitMQURL != expectedURL2 {
		t.Fatalf("expected url %q, got %q", expectedURL2, config2.RabbitMQURL)
	}
	if config2.PublishChanSize != 7 {
		t.Fatalf("expected publish chan size %d, got %d", 7, config2.PublishChanSize)
	}
}

func TestWorkerConfig_DefaultsAndCustom(t *testing.T) {
	config := NewConfig()
	if config.ConsumeQueueName != constants.DefaultWorkerQueueName {
		t.Fatalf("expected default worker queue name %q, got %q", constants.DefaultWorkerQueueName, config.ConsumeQueueName)
	}
	if config.ResponseQueueName != constants.DefaultResponseQueueName {
		t.Fatalf("expected default response queue name %q, got %q",
			constants.DefaultResponseQueueName, config.ResponseQueueName)
	}
	if config.MaxWorkers != constants.DefaultMaxWorkers {
		t.Fatalf("expected default max workers %d, got %d", constants.DefaultMaxWorkers, config.MaxWorkers)
	}
	if config.MaxProcesses != constants.DefaultMaxProcesses {
		t.Fatalf("expected default max processes %d, got %d", constants.DefaultMaxProcesses, config.MaxProcesses)
	}

	t.Setenv("WORKER_QUEUE_NAME", "custom_queue")
	t.Setenv("RESPONSE_QUEUE_NAME", "custom_responses")
	t.Setenv("MAX_WORKERS", "3")
	t.Setenv("MAX_PROCESSES", "12")
	config2 := NewConfig()
	if config2.ConsumeQueueName != "custom_queue" {
		t.Fatalf("expected worker queue name %q, got %q", "custom_queue", config2.ConsumeQueueName)
	}
	if config2.ResponseQueueName != "custom_responses" {
		t.Fatalf("expected response queue name %q, got %q", "custom_responses", config2.ResponseQueueName)
	}
	if config2.MaxWorkers != 3 {
		t.Fatalf("expected max workers %d, got %d", 3, config2.MaxWorkers)
	}
	if config2.MaxProcesses != 12 {
		t.Fatalf("expected max processes %d, got %d", 12, config2.MaxProcesses)
	}
}

func TestSandboxConfig_DefaultsAndCustom(t *testing.T) {
	sb := NewConfig().Sandbox
	if sb.Backend != constants.DefaultSandboxBackend {
		t.Fatalf("expected default backend %q, got %q", constants.DefaultSandboxBackend, sb.Backend)
	}
	if sb.JobsDataVolume != constants.DefaultJobsDataVolume {
		t.Fatalf("expected default jobs data volume %q, got %q", constants.DefaultJobsDataVolume, sb.JobsDataVolume)
	}
	if sb.ScratchRoot != constants.DefaultScratchRoot {
		t.Fatalf("expected default scratch root %q, got %q", constants.DefaultScratchRoot, sb.ScratchRoot)
	}
	if sb.Namespaces != constants.DefaultSandboxNamespaces {
		t.Fatalf("expected default namespaces %v, got %v", constants.DefaultSandboxNamespaces, sb.Namespaces)
	}

	t.Setenv("SANDBOX_BACKEND", "LOCAL")
	t.Setenv("JOBS_DATA_VOLUME", "my-vol")
	t.Setenv("SCRATCH_ROOT", "/var/scratch")
	t.Setenv("SANDBOX_NAMESPACES", "false")
	sb2 := NewConfig().Sandbox
	if sb2.Backend != constants.SandboxBackendLocal {
		t.Fatalf("expected backend %q, got %q", constants.SandboxBackendLocal, sb2.Backend)
	}
	if sb2.JobsDataVolume != "my-vol" {
		t.Fatalf("expected jobs data volume %q, got %q", "my-vol", sb2.JobsDataVolume)
	}
	if sb2.ScratchRoot != "/var/scratch" {
		t.Fatalf("expected scratch root %q, got %q", "/var/scratch", sb2.ScratchRoot)
	}
	if sb2.Namespaces {
		t.Fatalf("expected namespaces to be disabled")
	}
}

func TestLimitsConfig_DefaultsAndCustom(t *testing.T) {
	limits := NewConfig().Limits
	if limits.TimeLimitMs != constants.DefaultTimeLimitMs {
		t.Fatalf("expected default time limit %d, got %d", constants.DefaultTimeLimitMs, limits.TimeLimitMs)
	}
	if limits.MemoryLimitMB != constants.DefaultMemoryLimitMB {
		t.Fatalf("expected default memory limit %d, got %d", constants.DefaultMemoryLimitMB, limits.MemoryLimitMB)
	}
	if limits.OutputLimitBytes != constants.DefaultOutputLimitBytes {
		t.Fatalf("expected default output limit %d, got %d", constants.DefaultOutputLimitBytes, limits.OutputLimitBytes)
	}

	t.Setenv("DEFAULT_TIME_LIMIT_MS", "2000")
	t.Setenv("DEFAULT_MEMORY_LIMIT_MB", "256")
	t.Setenv("COMPILE_TIME_LIMIT_MS", "30000")
	t.Setenv("OUTPUT_LIMIT_BYTES", "4096")
	limits2 := NewConfig().Limits
	if limits2.TimeLimitMs != 2000 || limits2.MemoryLimitMB != 256 ||
		limits2.CompileTimeLimitMs != 30000 || limits2.OutputLimitBytes != 4096 {
		t.Fatalf("unexpected limits: %+v", limits2)
	}
}

func TestCompilerConfig_EmptyFlagsAreKept(t *testing.T) {
	cfg := NewConfig()
	if cfg.CppCompileFlags != constants.DefaultCppCompileFlags {
		t.Fatalf("expected default cpp flags %q, got %q", constants.DefaultCppCompileFlags, cfg.CppCompileFlags)
	}

	t.Setenv("CPP_COMPILE_FLAGS", "")
	t.Setenv("JAVA_COMPILE_FLAGS", "-g")
	cfg2 := NewConfig()
	if cfg2.CppCompileFlags != "" {
		t.Fatalf("expected explicitly empty cpp flags, got %q", cfg2.CppCompileFlags)
	}
	if cfg2.JavaCompileFlags != "-g" {
		t.Fatalf("expected java flags %q, got %q", "-g", cfg2.JavaCompileFlags)
	}
}

func TestNewConfig_PicksUpValues(t *testing.T) {
	t.Setenv("RABBITMQ_HOST", "xhost")
	t.Setenv("RABBITMQ_PORT", "1111")
	t.Setenv("RABBITMQ_USER", "u2")
	t.Setenv("RABBITMQ_PASSWORD", "p2")
	t.Setenv("RABBITMQ_PUBLISH_CHAN_SIZE", "4")
	t.Setenv("WORKER_QUEUE_NAME", "q-name")
	t.Setenv("MAX_WORKERS", "5")
	t.Setenv("METRICS_PORT", "9999")

	cfg := NewConfig()
	if cfg.ConsumeQueueName != "q-name" {
		t.Fatalf("unexpected ConsumeQueueName: %s", cfg.ConsumeQueueName)
	}
	if cfg.MaxWorkers != 5 {
		t.Fatalf("unexpected MaxWorkers: %d", cfg.MaxWorkers)
	}
	if cfg.PublishChanSize != 4 {
		t.Fatalf("unexpected PublishChanSize: %d", cfg.PublishChanSize)
	}
	if cfg.MetricsPort != "9999" {
		t.Fatalf("unexpected MetricsPort: %s", cfg.MetricsPort)
	}
	if !strings.Contains(cfg.RabbitMQURL, "xhost") || !strings.Contains(cfg.RabbitMQURL, "1111") {
		t.Fatalf("RabbitMQURL does not contain provided host/port: %s", cfg.RabbitMQURL)
	}
}

func TestArtifactCacheDir_DefaultEmptyAndCustom(t *testing.T) {
	if dir := NewConfig().ArtifactCacheDir; dir != constants.DefaultArtifactCacheDir {
		t.Fatalf("expected default cache dir %q, got %q", constants.DefaultArtifactCacheDir, dir)
	}

	// an explicitly empty value disables the cache
	t.Setenv("ARTIFACT_CACHE_DIR", "")
	if dir := NewConfig().ArtifactCacheDir; dir != "" {
		t.Fatalf("expected cache to be disabled, got %q", dir)
	}

	t.Setenv("ARTIFACT_CACHE_DIR", "/var/cache/executor")
	if dir := NewConfig().ArtifactCacheDir; dir != "/var/cache/executor" {
		t.Fatalf("expected cache dir %q, got %q", "/var/cache/executor", dir)
	}
}
