// Package dockerbox runs every process in its own throwaway container.
package dockerbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	"github.com/mini-maxit/executor/internal/docker"
	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/sandbox"
	"github.com/mini-maxit/executor/pkg/constants"
	customErr "github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/languages"
)

var containerNameRegex = regexp.MustCompile("[^a-zA-Z0-9_.-]")

// Highest real-time signal on linux.
const maxSignal = 64

// The container gets at most one CPU, and the scheduler may let it run one
// quota period past that before throttling.
const cfsPeriod = 100 * time.Millisecond

// Linux values; the profile is evaluated by the daemon host's kernel.
const (
	errnoEPERM  = 1
	errnoENOSYS = 38
	cloneThread = 0x10000
)

// noSpawnProfile is a docker seccomp profile with the rules of the local
// backend's spawn filter. execve stays allowed since runc execs the entrypoint
// under the profile. A custom profile replaces the daemon's default one, so
// the namespace, mount and kernel facing calls that one blocks are denied here
// as well.
var noSpawnProfile = mustSeccompProfile(seccompProfile{
	DefaultAction: "SCMP_ACT_ALLOW",
	Syscalls: []seccompSyscall{
		{Names: []string{"fork", "vfork", "execveat"}, Action: "SCMP_ACT_ERRNO", ErrnoRet: errnoRet(errnoEPERM)},
		{
			Names: []string{
				"unshare", "setns", "mount", "umount2", "pivot_root", "ptrace", "process_vm_readv",
				"process_vm_writev", "keyctl", "add_key", "request_key", "bpf", "perf_event_open",
				"userfaultfd", "kexec_load", "init_module", "finit_module", "delete_module", "reboot",
				"swapon", "swapoff", "open_by_handle_at",
			},
			Action:   "SCMP_ACT_ERRNO",
			ErrnoRet: errnoRet(errnoEPERM),
		},
		{Names: []string{"clone3"}, Action: "SCMP_ACT_ERRNO", ErrnoRet: errnoRet(errnoENOSYS)},
		{
			Names:    []string{"clone"},
			Action:   "SCMP_ACT_ERRNO",
			ErrnoRet: errnoRet(errnoEPERM),
			Args:     []seccompArg{{Index: 0, Value: cloneThread, ValueTwo: 0, Op: "SCMP_CMP_MASKED_EQ"}},
		},
	},
})

type seccompProfile struct {
	DefaultAction string           `json:"defaultAction"`
	Syscalls      []seccompSyscall `json:"syscalls"`
}

type seccompSyscall struct {
	Names    []string     `json:"names"`
	Action   string       `json:"action"`
	ErrnoRet *uint        `json:"errnoRet,omitempty"`
	Args     []seccompArg `json:"args,omitempty"`
}

type seccompArg struct {
	Index    uint   `json:"index"`
	Value    uint64 `json:"value"`
	ValueTwo uint64 `json:"valueTwo"`
	Op       string `json:"op"`
}

func errnoRet(errno uint) *uint {
	return &errno
}

func mustSeccompProfile(p seccompProfile) string {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

type isolator struct {
	docker      docker.DockerClient
	scratchRoot string
	logger      *zap.SugaredLogger
}

// New returns a docker backed isolator. scratchRoot is where the worker creates
// scratch dirs; with a jobs data volume it is the volume's mount point.
func New(dCli docker.DockerClient, scratchRoot string) sandbox.Isolator {
	return &isolator{
		docker:      dCli,
		scratchRoot: scratchRoot,
		logger:      logger.NewNamedLogger("docker-sandbox"),
	}
}

func (i *isolator) Name() string {
	return constants.SandboxBackendDocker
}

func (i *isolator) EnsureToolchain(ctx context.Context, tc languages.Toolchain) error {
	if err := i.docker.EnsureImage(ctx, tc.Image); err != nil {
		i.logger.Errorf("Image %s unavailable: %s", tc.Image, err)
		return fmt.Errorf("%w: image %s: %w", customErr.ErrToolchainUnavailable, tc.Image, err)
	}
	return nil
}

func (i *isolator) Spawn(ctx context.Context, spec sandbox.Spec) (sandbox.Process, error) {
	if len(spec.Cmd) == 0 {
		return nil, customErr.ErrEmptyCommand
	}

	hostCfg, err := i.buildHostConfig(spec)
	if err != nil {
		return nil, err
	}
	containerCfg := buildContainerConfig(spec)

	containerID, err := i.docker.CreateContainer(ctx, containerCfg, hostCfg, SanitizeContainerName(spec.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: create container: %w", customErr.ErrSpawnFailed, err)
	}

	p := &process{
		id:          spec.ID,
		containerID: containerID,
		docker:      i.docker,
		cpuLimit:    roundUpSeconds(spec.Limits.CPUTime),
		stdout:      orDiscard(spec.Stdout),
		stderr:      orDiscard(spec.Stderr),
		done:        make(chan struct{}),
		logger:      i.logger,
	}

	if spec.Stdin != nil {
		hijack, err := i.docker.AttachStdin(ctx, containerID)
		if err != nil {
			_ = p.Release()
			return nil, fmt.Errorf("%w: attach stdin: %w", customErr.ErrSpawnFailed, err)
		}
		p.hijack = &hijack
	}

	if err := i.docker.StartContainer(ctx, containerID); err != nil {
		_ = p.Release()
		return nil, fmt.Errorf("%w: start container: %w", customErr.ErrSpawnFailed, err)
	}
	p.started = time.Now()

	if p.hijack != nil {
		go func(h *types.HijackedResponse, stdin io.Reader) {
			_, _ = io.Copy(h.Conn, stdin)
			_ = h.CloseWrite()
		}(p.hijack, spec.Stdin)
	}

	statsCtx, stopStats := context.WithCancel(context.Background())
	p.stopStats = stopStats
	p.peak = make(chan uint64, 1)
	go func() {
		peak, err := i.docker.PeakMemory(statsCtx, containerID)
		if err != nil {
			i.logger.Debugf("Memory sampling stopped: %s [Spawn: %s]", err, spec.ID)
		}
		p.peak <- peak
	}()

	go p.wait()
	return p, nil
}

func (i *isolator) buildHostConfig(spec sandbox.Spec) (*container.HostConfig, error) {
	var m mount.Mount
	if volume := i.docker.DataVolumeName(); volume != "" {
		rel, err := filepath.Rel(i.scratchRoot, spec.WorkDir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s is outside %s", customErr.ErrSpawnFailed, spec.WorkDir, i.scratchRoot)
		}
		m = mount.Mount{
			Type:          mount.TypeVolume,
			Source:        volume,
			Target:        constants.SandboxWorkDir,
			VolumeOptions: &mount.VolumeOptions{Subpath: rel},
		}
	} else {
		m = mount.Mount{
			Type:   mount.TypeBind,
			Source: spec.WorkDir,
			Target: constants.SandboxWorkDir,
		}
	}

	limits := spec.Limits
	resources := container.Resources{
		NanoCPUs: 1_000_000_000,
	}
	if limits.MemoryBytes > 0 {
		resources.Memory = limits.MemoryBytes
		resources.MemorySwap = limits.MemoryBytes
	}
	if limits.MaxTasks > 0 {
		pids := limits.MaxTasks
		resources.PidsLimit = &pids
	}
	resources.Ulimits = []*container.Ulimit{{Name: "core", Soft: 0, Hard: 0}}
	if limits.MaxFileSize > 0 {
		resources.Ulimits = append(resources.Ulimits,
			&container.Ulimit{Name: "fsize", Soft: limits.MaxFileSize, Hard: limits.MaxFileSize})
	}
	if limits.CPUTime > 0 {
		secs := int64(roundUpSeconds(limits.CPUTime) / time.Second)
		resources.Ulimits = append(resources.Ulimits, &container.Ulimit{Name: "cpu", Soft: secs, Hard: secs})
	}

	securityOpt := []string{"no-new-privileges"}
	if limits.NoSpawn {
		securityOpt = append(securityOpt, "seccomp="+noSpawnProfile)
	}

	return &container.HostConfig{
		AutoRemove:     false,
		NetworkMode:    container.NetworkMode("none"),
		Mounts:         []mount.Mount{m},
		Tmpfs:          map[string]string{"/tmp": constants.SandboxTmpfsOptions},
		ReadonlyRootfs: true,
		Resources:      resources,
		SecurityOpt:    securityOpt,
		CgroupnsMode:   container.CgroupnsModePrivate,
		IpcMode:        container.IpcMode("private"),
		CapDrop:        []string{"ALL"},
	}, nil
}

func buildContainerConfig(spec sandbox.Spec) *container.Config {
	stopTimeout := 0
	env := append([]string{constants.SandboxPath, "HOME=" + constants.SandboxWorkDir}, spec.Env...)

	return &container.Config{
		Image:           spec.Image,
		Cmd:             spec.Cmd,
		WorkingDir:      constants.SandboxWorkDir,
		Env:             env,
		User:            constants.SandboxUser,
		NetworkDisabled: true,
		AttachStdin:     spec.Stdin != nil,
		OpenStdin:       spec.Stdin != nil,
		StdinOnce:       spec.Stdin != nil,
		StopTimeout:     &stopTimeout,
		StopSignal:      "SIGKILL",
	}
}

func SanitizeContainerName(raw string) string {
	cleaned := containerNameRegex.ReplaceAllString(raw, "-")
	if cleaned == "" {
		cleaned = "untitled"
	}
	return "sandbox-" + cleaned
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

type process struct {
	id          string
	containerID string
	docker      docker.DockerClient
	hijack      *types.HijackedResponse
	stdout      io.Writer
	stderr      io.Writer
	started     time.Time
	cpuLimit    time.Duration

	stopStats context.CancelFunc
	peak      chan uint64

	done    chan struct{}
	state   sandbox.ExitState
	waitErr error

	releaseOnce sync.Once
	logger      *zap.SugaredLogger
}

func (p *process) wait() {
	defer close(p.done)
	ctx := context.Background()

	statusCh, errCh := p.docker.ContainerWait(ctx, p.containerID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		p.stopStats()
		<-p.peak
		p.waitErr = fmt.Errorf("%w: %w", customErr.ErrContainerFailed, err)
		return
	case status := <-statusCh:
		exitCode = status.StatusCode
	}
	duration := time.Since(p.started)

	p.stopStats()
	peak := <-p.peak

	logs, err := p.docker.ContainerLogs(ctx, p.containerID)
	if err != nil {
		p.waitErr = fmt.Errorf("%w: logs: %w", customErr.ErrContainerFailed, err)
		return
	}
	_, err = stdcopy.StdCopy(p.stdout, p.stderr, logs)
	_ = logs.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		p.logger.Warnf("Failed to demultiplex logs: %s [Spawn: %s]", err, p.id)
	}

	p.state = sandbox.ExitState{
		ExitCode:     int(exitCode),
		Duration:     duration,
		PeakMemoryKB: int64(peak / 1024),
	}
	defer func() {
		p.state.Signal, p.state.Signaled = exitSignal(p.state.ExitCode, p.state.Duration, p.cpuLimit)
	}()

	info, err := p.docker.InspectContainer(ctx, p.containerID)
	if err != nil {
		p.logger.Warnf("Failed to inspect container: %s [Spawn: %s]", err, p.id)
		return
	}
	if info.ContainerJSONBase == nil || info.State == nil {
		return
	}
	p.state.OOMKilled = info.State.OOMKilled
	if d, ok := runDuration(info.State.StartedAt, info.State.FinishedAt); ok {
		p.state.Duration = d
	}
}

// exitSignal recovers the terminating signal from an exit code. The daemon
// reports death by signal n and exit(128+n) alike, so SIGXCPU is only believed
// once the run has lasted as long as its CPU budget.
func exitSignal(exitCode int, d, cpuLimit time.Duration) (int, bool) {
	sig := exitCode - constants.ExitCodeSignalBase
	if sig <= 0 || sig > maxSignal {
		return 0, false
	}
	if sig == constants.SignalCPULimitExceeded && (cpuLimit <= 0 || d < cpuLimit-cfsPeriod) {
		return 0, false
	}
	return sig, true
}

// roundUpSeconds matches the one second granularity of RLIMIT_CPU.
func roundUpSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return (d + time.Second - 1) / time.Second * time.Second
}

// runDuration uses the daemon's timestamps so container start-up is not counted.
func runDuration(startedAt, finishedAt string) (time.Duration, bool) {
	start, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return 0, false
	}
	end, err := time.Parse(time.RFC3339Nano, finishedAt)
	if err != nil || end.Before(start) {
		return 0, false
	}
	return end.Sub(start), true
}

func (p *process) Pid() int {
	return 0
}

func (p *process) Wait(ctx context.Context) (sandbox.ExitState, error) {
	select {
	case <-p.done:
		return p.state, p.waitErr
	case <-ctx.Done():
		return sandbox.ExitState{}, ctx.Err()
	}
}

func (p *process) Kill() error {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ContainerCleanupTimeoutSec*time.Second)
	defer cancel()

	err := p.docker.ContainerKill(ctx, p.containerID, "SIGKILL")
	if err == nil {
		return nil
	}
	select {
	case <-p.done:
		// Exited on its own in the meantime.
		return nil
	default:
		return err
	}
}

// Release force-removes the container, which also takes down anything still
// running inside it.
func (p *process) Release() error {
	var err error
	p.releaseOnce.Do(func() {
		if p.hijack != nil {
			p.hijack.Close()
		}
		ctx, cancel := context.WithTimeout(context.Background(), constants.ContainerCleanupTimeoutSec*time.Second)
		defer cancel()
		err = p.docker.ContainerRemove(ctx, p.containerID)
		if err != nil {
			p.logger.Errorf("Failed to remove container %s: %s [Spawn: %s]", p.containerID, err, p.id)
		}
	})
	return err
}
