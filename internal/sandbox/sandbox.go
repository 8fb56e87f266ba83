// Package sandbox defines the isolation capability the runner spawns untrusted
// programs through. Backends live in sub-packages.
package sandbox

import (
	"context"
	"io"
	"time"

	"github.com/mini-maxit/executor/pkg/languages"
)

// Isolator starts processes with resource limits and no network. Implementations
// must guarantee that after Kill and Wait return, no process started by Spawn
// (including descendants) is still running.
type Isolator interface {
	Name() string
	// EnsureToolchain reports ErrToolchainUnavailable when the toolchain cannot run.
	EnsureToolchain(ctx context.Context, tc languages.Toolchain) error
	Spawn(ctx context.Context, spec Spec) (Process, error)
}

type Process interface {
	Pid() int
	// Wait blocks until the process and its descendants are gone or ctx is done.
	Wait(ctx context.Context) (ExitState, error)
	// Kill terminates the whole process tree. Safe to call more than once.
	Kill() error
	// Release frees backend resources. Called once, after Wait.
	Release() error
}

type Spec struct {
	ID      string // used for naming; unique per spawn
	WorkDir string // host scratch directory, the only writable location
	Image   string
	Cmd     []string
	Env     []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Limits  Limits
}

type Limits struct {
	MemoryBytes int64
	CPUTime     time.Duration
	// Docker pids limit. The local backend has no per-run equivalent and
	// relies on NoSpawn instead.
	MaxTasks    int64
	MaxFileSize int64
	// Enforce MemoryBytes as an address space limit. Only safe for runtimes that
	// do not reserve large virtual ranges up front.
	LimitAddressSpace bool
	// Deny creating processes. Threads are still allowed. Compilers need this off.
	NoSpawn bool
}

type ExitState struct {
	ExitCode     int
	Signaled     bool
	Signal       int // terminating signal number when Signaled
	OOMKilled    bool
	Duration     time.Duration
	PeakMemoryKB int64
}
