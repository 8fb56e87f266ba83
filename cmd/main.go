package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mini-maxit/executor/internal/config"
	"github.com/mini-maxit/executor/internal/docker"
	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/metrics"
	"github.com/mini-maxit/executor/internal/pipeline"
	"github.com/mini-maxit/executor/internal/pool"
	"github.com/mini-maxit/executor/internal/rabbitmq"
	"github.com/mini-maxit/executor/internal/rabbitmq/consumer"
	"github.com/mini-maxit/executor/internal/rabbitmq/responder"
	"github.com/mini-maxit/executor/internal/sandbox"
	"github.com/mini-maxit/executor/internal/sandbox/dockerbox"
	"github.com/mini-maxit/executor/internal/sandbox/local"
	"github.com/mini-maxit/executor/internal/scheduler"
	"github.com/mini-maxit/executor/internal/stages/compiler"
	"github.com/mini-maxit/executor/internal/stages/executor"
	"github.com/mini-maxit/executor/internal/stages/harness"
	"github.com/mini-maxit/executor/internal/stages/packager"
	"github.com/mini-maxit/executor/internal/stages/verifier"
	"github.com/mini-maxit/executor/internal/storage"
	"github.com/mini-maxit/executor/pkg/constants"
	pkgErr "github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/languages"
	"github.com/moby/sys/reexec"
	"go.uber.org/zap"
)

func main() {
	// The local sandbox re-executes this binary to set up a child before exec.
	if reexec.Init() {
		return
	}

	logger.InitializeLogger()
	defer logger.Sync()

	log := logger.NewNamedLogger("main")
	log.Info("Starting executor")

	cfg := config.NewConfig()

	toolchains, err := languages.NewToolchains(cfg.CppCompileFlags, cfg.JavaCompileFlags)
	if err != nil {
		log.Fatalf("Failed to build toolchains: %s", err)
	}

	isolator := newIsolator(cfg, log)
	log.Infof("Using %s sandbox backend", isolator.Name())

	processPool := pool.NewProcessPool(int64(cfg.MaxProcesses))
	exec := executor.NewExecutor(isolator, processPool, cfg.Limits.OutputLimitBytes)
	pkg := packager.NewPackager(cfg.Sandbox.ScratchRoot)

	var cache storage.ArtifactCache
	if cfg.ArtifactCacheDir != "" {
		cache = storage.NewArtifactCache(cfg.ArtifactCacheDir)
		if err := cache.InitCache(); err != nil {
			log.Warnf("Artifact cache disabled: %s", err)
			cache = nil
		}
	}

	service := pipeline.NewService(
		cfg.Limits,
		toolchains,
		isolator,
		harness.NewBuilder(toolchains),
		compiler.NewCompiler(pkg, exec, cache, cfg.Limits.CompileTimeLimitMs),
		exec,
		verifier.NewVerifier(),
		pkg,
	)

	conn := rabbitmq.NewRabbitMqConnection(cfg)
	defer func() {
		if err := conn.Close(); err != nil {
			log.Errorf("Failed to close RabbitMQ connection: %s", err)
		}
	}()

	ch := rabbitmq.NewRabbitMQChannel(conn)
	resp := responder.NewResponder(ch, cfg.PublishChanSize)
	defer func() {
		if err := resp.Close(); err != nil {
			log.Errorf("Failed to close responder: %s", err)
		}
	}()

	sched := scheduler.NewScheduler(cfg.MaxWorkers, service, resp, processPool, toolchains)
	cons := consumer.NewConsumer(ch, cfg.ConsumeQueueName, cfg.ResponseQueueName, sched, resp)

	metricsServer := metrics.NewServer(cfg.MetricsPort)
	go func() {
		log.Infof("Serving metrics on :%s", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %s", err)
		}
	}()
	defer metricsServer.Close()

	done := make(chan struct{})
	go func() {
		cons.Listen()
		close(done)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Infof("Received %s, shutting down", s)
		if err := cons.Stop(); err != nil {
			log.Errorf("Failed to cancel subscription: %s", err)
		}
		<-done
	case <-done:
		log.Warn("Consumer stopped, shutting down")
	}

	// Results of running tasks are still published before the responder closes.
	log.Info("Waiting for in-flight tasks")
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeoutSec*time.Second)
	defer cancel()
	if err := sched.Wait(ctx); err != nil {
		log.Errorf("Shutting down with tasks still running: %s", err)
	}
}

func newIsolator(cfg *config.Config, log *zap.SugaredLogger) sandbox.Isolator {
	switch cfg.Sandbox.Backend {
	case constants.SandboxBackendLocal:
		iso, err := local.New(local.Config{Namespaces: cfg.Sandbox.Namespaces})
		if err != nil {
			log.Fatalf("Failed to initialize local sandbox: %s", err)
		}
		return iso
	case constants.SandboxBackendDocker:
		cli, err := docker.NewDockerClient(cfg.Sandbox.JobsDataVolume, cfg.Sandbox.ScratchRoot)
		if err != nil {
			log.Fatalf("Failed to initialize Docker client: %s", err)
		}
		return dockerbox.New(cli, cfg.Sandbox.ScratchRoot)
	default:
		log.Fatalf("%s: %q", pkgErr.ErrUnknownSandboxBackend, cfg.Sandbox.Backend)
		return nil
	}
}
