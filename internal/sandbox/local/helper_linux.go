//go:build linux

package local

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"unsafe"

	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/moby/sys/reexec"
	"golang.org/x/sys/unix"
)

const (
	initName = "executor-sandbox-init"
	// fd of the error pipe inside the helper. Closed on exec.
	initErrFd = 3
)

// initConfig is handed to the helper as its only argument.
type initConfig struct {
	WorkDir      string   `json:"work_dir"`
	Cmd          []string `json:"cmd"`
	Env          []string `json:"env"`
	AddressSpace uint64   `json:"address_space,omitempty"`
	CPUSeconds   uint64   `json:"cpu_seconds,omitempty"`
	MaxFileSize  uint64   `json:"max_file_size,omitempty"`
	ReadOnlyRoot bool     `json:"read_only_root,omitempty"`
	NoSpawn      bool     `json:"no_spawn,omitempty"`
}

func init() {
	reexec.Register(initName, sandboxInit)
}

// sandboxInit runs in the freshly spawned child. It never returns: it either
// replaces itself with the target program or exits with ExitCodeSandboxInit.
func sandboxInit() {
	// The seccomp filter only covers the thread that installs it, which has to be
	// the one calling execve.
	runtime.LockOSThread()

	errPipe := os.NewFile(initErrFd, "sandbox-init-err")
	fail := func(format string, args ...any) {
		msg := fmt.Sprintf("sandbox-init: "+format, args...)
		if errPipe != nil {
			_, _ = errPipe.WriteString(msg)
		}
		os.Exit(constants.ExitCodeSandboxInit)
	}

	if len(os.Args) < 2 {
		fail("missing config")
	}
	var cfg initConfig
	if err := json.Unmarshal([]byte(os.Args[1]), &cfg); err != nil {
		fail("decode config: %v", err)
	}
	if len(cfg.Cmd) == 0 {
		fail("empty command")
	}

	if cfg.ReadOnlyRoot {
		if err := readOnlyRoot(cfg.WorkDir); err != nil {
			fail("%v", err)
		}
	}
	if err := os.Chdir(cfg.WorkDir); err != nil {
		fail("chdir: %v", err)
	}

	path, err := lookPath(cfg.Cmd[0], envPath(cfg.Env))
	if err != nil {
		fail("resolve command: %v", err)
	}
	// Everything execve needs is allocated before the limits are applied, since the
	// address space limit can be far below what the Go runtime has reserved.
	pathp, err := mappedPath(path)
	if err != nil {
		fail("%v", err)
	}
	argvp, err := syscall.SlicePtrFromStrings(cfg.Cmd)
	if err != nil {
		fail("%v", err)
	}
	envp, err := syscall.SlicePtrFromStrings(cfg.Env)
	if err != nil {
		fail("%v", err)
	}
	var filter []unix.SockFilter
	if cfg.NoSpawn {
		if filter, err = spawnFilter(uintptr(unsafe.Pointer(pathp))); err != nil {
			fail("%v", err)
		}
	}

	if err := applyRlimits(cfg); err != nil {
		fail("%v", err)
	}
	if filter != nil {
		if err := installFilter(filter); err != nil {
			fail("install seccomp filter: %v", err)
		}
	}
	unix.CloseOnExec(initErrFd)

	_, _, errno := syscall.RawSyscall(syscall.SYS_EXECVE,
		uintptr(unsafe.Pointer(pathp)),
		uintptr(unsafe.Pointer(&argvp[0])),
		uintptr(unsafe.Pointer(&envp[0])))
	fail("exec %s: %v", path, errno)
}

func applyRlimits(cfg initConfig) error {
	set := func(resource int, value uint64, name string) error {
		if err := unix.Setrlimit(resource, &unix.Rlimit{Cur: value, Max: value}); err != nil {
			return fmt.Errorf("set rlimit %s: %w", name, err)
		}
		return nil
	}

	if err := set(unix.RLIMIT_CORE, 0, "core"); err != nil {
		return err
	}
	if cfg.CPUSeconds > 0 {
		if err := set(unix.RLIMIT_CPU, cfg.CPUSeconds, "cpu"); err != nil {
			return err
		}
	}
	if cfg.MaxFileSize > 0 {
		if err := set(unix.RLIMIT_FSIZE, cfg.MaxFileSize, "fsize"); err != nil {
			return err
		}
	}
	if cfg.AddressSpace > 0 {
		if err := set(unix.RLIMIT_AS, cfg.AddressSpace, "as"); err != nil {
			return err
		}
	}
	return nil
}

// mappedPath copies path into an anonymous mapping of its own. Unlike the Go
// heap its address is randomized by the kernel, and it is the only address the
// spawn filter lets execve use.
func mappedPath(path string) (*byte, error) {
	if strings.IndexByte(path, 0) >= 0 {
		return nil, unix.EINVAL
	}
	mem, err := unix.Mmap(-1, 0, len(path)+1, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("map exec path: %w", err)
	}
	copy(mem, path)
	return &mem[0], nil
}

// envPath returns the PATH the target will run with.
func envPath(env []string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(env[i], "PATH="); ok {
			return v
		}
	}
	return strings.TrimPrefix(constants.SandboxPath, "PATH=")
}

// lookPath resolves name against pathList rather than the caller's own PATH,
// which is empty inside the helper.
func lookPath(name, pathList string) (string, error) {
	if strings.Contains(name, "/") {
		if err := checkExecutable(name); err != nil {
			return "", err
		}
		return name, nil
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if checkExecutable(candidate) == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: not found in %s", name, pathList)
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return unix.Access(path, unix.X_OK)
}

// readOnlyRoot leaves workDir as the only writable path under "/". Requires a
// private mount namespace.
func readOnlyRoot(workDir string) error {
	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return fmt.Errorf("make mount private: %w", err)
	}
	if err := unix.Mount(workDir, workDir, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return fmt.Errorf("bind work dir: %w", err)
	}

	// Flags the kernel locked on the root mount have to be kept on remount.
	var st unix.Statfs_t
	if err := unix.Statfs("/", &st); err != nil {
		return fmt.Errorf("statfs root: %w", err)
	}
	flags := uintptr(unix.MS_BIND | unix.MS_REMOUNT | unix.MS_RDONLY)
	if st.Flags&unix.ST_NOSUID != 0 {
		flags |= unix.MS_NOSUID
	}
	if st.Flags&unix.ST_NODEV != 0 {
		flags |= unix.MS_NODEV
	}
	if st.Flags&unix.ST_NOEXEC != 0 {
		flags |= unix.MS_NOEXEC
	}
	if err := unix.Mount("", "/", "", flags, ""); err != nil {
		return fmt.Errorf("remount root read-only: %w", err)
	}
	return nil
}
