//go:build linux

// Package local runs programs as plain host processes constrained by rlimits,
// a process group and, optionally, fresh namespaces.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/sandbox"
	"github.com/mini-maxit/executor/pkg/constants"
	customErr "github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/languages"
	"github.com/moby/sys/reexec"
	"github.com/prometheus/procfs"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

type Config struct {
	// Run every process in new user, pid, net, mount, ipc and uts namespaces with a
	// read-only root filesystem.
	Namespaces bool
}

type isolator struct {
	cfg    Config
	logger *zap.SugaredLogger
}

func New(cfg Config) (sandbox.Isolator, error) {
	logger := logger.NewNamedLogger("local-sandbox")

	// Orphans of a killed process group get reparented to us, so they can be reaped.
	if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
		return nil, fmt.Errorf("set child subreaper: %w", err)
	}
	if !cfg.Namespaces {
		logger.Warn("Namespaces are disabled, submissions can read the host filesystem")
	}

	return &isolator{cfg: cfg, logger: logger}, nil
}

func (i *isolator) Name() string {
	return constants.SandboxBackendLocal
}

// EnsureToolchain looks binaries up on the PATH sandboxed processes get, which
// can differ from the worker's own.
func (i *isolator) EnsureToolchain(_ context.Context, tc languages.Toolchain) error {
	path := envPath(nil)
	for _, bin := range tc.Binaries {
		if _, err := lookPath(bin, path); err != nil {
			return fmt.Errorf("%w: %w", customErr.ErrToolchainUnavailable, err)
		}
	}
	return nil
}

func (i *isolator) Spawn(ctx context.Context, spec sandbox.Spec) (sandbox.Process, error) {
	if len(spec.Cmd) == 0 {
		return nil, customErr.ErrEmptyCommand
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := initConfig{
		WorkDir:      spec.WorkDir,
		Cmd:          spec.Cmd,
		Env:          buildEnv(spec.Env, spec.WorkDir),
		CPUSeconds:   cpuSeconds(spec.Limits.CPUTime),
		ReadOnlyRoot: i.cfg.Namespaces,
		NoSpawn:      spec.Limits.NoSpawn,
	}
	if spec.Limits.MaxFileSize > 0 {
		cfg.MaxFileSize = uint64(spec.Limits.MaxFileSize)
	}
	if spec.Limits.LimitAddressSpace && spec.Limits.MemoryBytes > 0 {
		cfg.AddressSpace = uint64(spec.Limits.MemoryBytes)
	}
	rawCfg, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	cmd := reexec.Command(initName, string(rawCfg))
	cmd.Dir = spec.WorkDir
	cmd.Env = []string{}
	cmd.Stdin = spec.Stdin
	cmd.SysProcAttr = buildSysProcAttr(i.cfg.Namespaces)
	cmd.WaitDelay = constants.ReapGracePeriodMs * time.Millisecond

	p := &process{
		id:          spec.ID,
		cmd:         cmd,
		memoryLimit: spec.Limits.MemoryBytes,
		done:        make(chan struct{}),
		logger:      i.logger,
	}
	if err := p.start(spec.Stdout, spec.Stderr); err != nil {
		return nil, fmt.Errorf("%w: %w", customErr.ErrSpawnFailed, err)
	}

	return p, nil
}

func buildSysProcAttr(namespaces bool) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
	if !namespaces {
		return attr
	}

	attr.Cloneflags = syscall.CLONE_NEWUSER | syscall.CLONE_NEWPID | syscall.CLONE_NEWNET |
		syscall.CLONE_NEWNS | syscall.CLONE_NEWIPC | syscall.CLONE_NEWUTS
	attr.GidMappingsEnableSetgroups = false
	attr.UidMappings = []syscall.SysProcIDMap{{ContainerID: 0, HostID: os.Getuid(), Size: 1}}
	attr.GidMappings = []syscall.SysProcIDMap{{ContainerID: 0, HostID: os.Getgid(), Size: 1}}
	return attr
}

func buildEnv(env []string, workDir string) []string {
	out := make([]string, 0, len(env)+2)
	hasPath, hasHome := false, false
	for _, kv := range env {
		hasPath = hasPath || strings.HasPrefix(kv, "PATH=")
		hasHome = hasHome || strings.HasPrefix(kv, "HOME=")
		out = append(out, kv)
	}
	if !hasPath {
		out = append(out, constants.SandboxPath)
	}
	if !hasHome {
		out = append(out, "HOME="+workDir)
	}
	return out
}

// cpuSeconds rounds up; RLIMIT_CPU has a one second granularity.
func cpuSeconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64((d + time.Second - 1) / time.Second)
}

type process struct {
	id      string
	cmd     *exec.Cmd
	pgid    int
	started time.Time

	initErr *os.File
	outputs []*os.File
	copyWg  sync.WaitGroup

	memoryLimit int64
	oomKilled   atomic.Bool

	done    chan struct{}
	state   sandbox.ExitState
	waitErr error

	releaseOnce sync.Once
	logger      *zap.SugaredLogger
}

func (p *process) start(stdout, stderr io.Writer) error {
	initErrR, initErrW, err := os.Pipe()
	if err != nil {
		return err
	}
	p.initErr = initErrR
	p.cmd.ExtraFiles = []*os.File{initErrW}

	// Own pipes instead of exec's copying goroutines: a descendant keeping the
	// write end open must not block Wait.
	var childEnds []*os.File
	for _, w := range []io.Writer{stdout, stderr} {
		if w == nil {
			w = io.Discard
		}
		r, cw, err := os.Pipe()
		if err != nil {
			closeAll(append(childEnds, initErrR, initErrW))
			return err
		}
		childEnds = append(childEnds, cw)
		p.outputs = append(p.outputs, r)
		p.copyWg.Add(1)
		go func(dst io.Writer, src *os.File) {
			defer p.copyWg.Done()
			_, _ = io.Copy(dst, src)
		}(w, r)
	}
	p.cmd.Stdout = childEnds[0]
	p.cmd.Stderr = childEnds[1]

	err = p.cmd.Start()
	closeAll(append(childEnds, initErrW))
	if err != nil {
		closeAll(p.outputs)
		_ = initErrR.Close()
		return err
	}

	p.started = time.Now()
	p.pgid = p.cmd.Process.Pid
	go p.wait()
	if p.memoryLimit > 0 {
		go p.watchMemory()
	}
	return nil
}

// watchMemory kills the group once the resident set of the main process goes
// over the limit. It covers memory RLIMIT_AS cannot be used for, like the
// off-heap allocations of runtimes that reserve large virtual ranges.
func (p *process) watchMemory() {
	proc, err := procfs.NewProc(p.pgid)
	if err != nil {
		return
	}
	ticker := time.NewTicker(constants.MemoryPollIntervalMs * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
		}
		stat, err := proc.Stat()
		if err != nil {
			// Exited and reaped.
			return
		}
		if rss := int64(stat.ResidentMemory()); rss > p.memoryLimit {
			p.oomKilled.Store(true)
			p.logger.Debugf("Resident memory %dKB over limit, killing [Spawn: %s]", rss/1024, p.id)
			_ = unix.Kill(-p.pgid, unix.SIGKILL)
			return
		}
	}
}

func (p *process) wait() {
	defer close(p.done)

	err := p.cmd.Wait()
	duration := time.Since(p.started)
	p.reapGroup()
	p.drainOutputs()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.waitErr = err
		return
	}

	ps := p.cmd.ProcessState
	p.state = sandbox.ExitState{
		ExitCode:  ps.ExitCode(),
		Duration:  duration,
		OOMKilled: p.oomKilled.Load(),
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		p.state.Signaled = true
		p.state.Signal = int(ws.Signal())
		p.state.ExitCode = constants.ExitCodeSignalBase + p.state.Signal
	}
	if ru, ok := ps.SysUsage().(*syscall.Rusage); ok {
		p.state.PeakMemoryKB = ru.Maxrss
	}

	if p.state.ExitCode == constants.ExitCodeSandboxInit {
		msg, _ := io.ReadAll(io.LimitReader(p.initErr, 4096))
		if len(msg) > 0 {
			p.waitErr = fmt.Errorf("%w: %s", customErr.ErrSandboxInitFailed, msg)
		}
	}
}

// reapGroup kills whatever is left in the process group and collects the
// zombies reparented to us.
func (p *process) reapGroup() {
	deadline := time.Now().Add(constants.ReapGracePeriodMs * time.Millisecond)
	for {
		killErr := unix.Kill(-p.pgid, unix.SIGKILL)

		var ws unix.WaitStatus
		pid, waitErr := unix.Wait4(-p.pgid, &ws, unix.WNOHANG, nil)
		if pid > 0 {
			continue
		}
		if errors.Is(killErr, unix.ESRCH) && (errors.Is(waitErr, unix.ECHILD) || pid == 0) {
			return
		}
		if time.Now().After(deadline) {
			p.logger.Warnf("Process group %d still has members after %dms [Spawn: %s]",
				p.pgid, constants.ReapGracePeriodMs, p.id)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (p *process) drainOutputs() {
	copied := make(chan struct{})
	go func() {
		p.copyWg.Wait()
		close(copied)
	}()

	select {
	case <-copied:
	case <-time.After(constants.ReapGracePeriodMs * time.Millisecond):
		// A process outside the group still holds the pipe.
		closeAll(p.outputs)
		<-copied
	}
}

func (p *process) Pid() int {
	return p.pgid
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
	select {
	case <-p.done:
		// Already reaped; the pgid may belong to someone else by now.
		return nil
	default:
	}
	err := unix.Kill(-p.pgid, unix.SIGKILL)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}

func (p *process) Release() error {
	p.releaseOnce.Do(func() {
		closeAll(p.outputs)
		_ = p.initErr.Close()
	})
	return nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
