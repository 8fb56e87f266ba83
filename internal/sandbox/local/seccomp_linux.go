//go:build linux

package local

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Offsets into struct seccomp_data. The low half of args[0] is at 16 on the
// little-endian architectures supported here.
const (
	seccompDataNr   = 0
	seccompDataArch = 4
	seccompDataArg0 = 16
)

// Filter return values from linux/seccomp.h.
const (
	seccompRetKillProcess = 0x80000000
	seccompRetErrno       = 0x00050000
	seccompRetAllow       = 0x7fff0000
	seccompRetData        = 0x0000ffff
	seccompModeFilter     = 2
)

var errSeccompUnsupported = errors.New("process spawn filter is not available on this architecture")

func bpfStmt(code uint16, k uint32) unix.SockFilter {
	return unix.SockFilter{Code: code, K: k}
}

func bpfJump(code uint16, k uint32, jt, jf uint8) unix.SockFilter {
	return unix.SockFilter{Code: code, Jt: jt, Jf: jf, K: k}
}

func retErrno(errno unix.Errno) uint32 {
	return seccompRetErrno | (uint32(errno) & seccompRetData)
}

// spawnFilter builds a seccomp program that lets threads be created but fails
// every other way of creating a process with EPERM. clone3 gets ENOSYS so libc
// falls back to clone, where the flags can be inspected. execve is only allowed
// with execPath as its first argument, which is the helper's own exec of the
// target; the new image cannot reproduce that pointer. Syscalls made through a
// foreign ABI kill the process.
func spawnFilter(execPath uintptr) ([]unix.SockFilter, error) {
	if seccompArch == 0 {
		return nil, errSeccompUnsupported
	}

	const (
		ld   = unix.BPF_LD | unix.BPF_W | unix.BPF_ABS
		jeq  = unix.BPF_JMP | unix.BPF_JEQ | unix.BPF_K
		jset = unix.BPF_JMP | unix.BPF_JSET | unix.BPF_K
		ret  = unix.BPF_RET | unix.BPF_K
	)
	denied := append([]uint32{unix.SYS_EXECVEAT}, forkSyscalls...)
	// Everything before the list of denied syscalls is fixed size.
	const header = 14
	allow := header + len(denied)
	deny := allow + 1
	to := func(from, target int) uint8 {
		return uint8(target - from - 1)
	}

	prog := []unix.SockFilter{
		bpfStmt(ld, seccompDataArch),
		bpfJump(jeq, seccompArch, 1, 0),
		bpfStmt(ret, seccompRetKillProcess),

		bpfStmt(ld, seccompDataNr),
		bpfJump(jeq, unix.SYS_CLONE3, 0, 1),
		bpfStmt(ret, retErrno(unix.ENOSYS)),
		bpfJump(jeq, unix.SYS_EXECVE, 0, to(6, 11)),
		bpfStmt(ld, seccompDataArg0),
		bpfJump(jeq, uint32(execPath), 0, to(8, deny)),
		bpfStmt(ld, seccompDataArg0+4),
		bpfJump(jeq, uint32(uint64(execPath)>>32), to(10, allow), to(10, deny)),
		bpfJump(jeq, unix.SYS_CLONE, 0, to(11, header)),
		bpfStmt(ld, seccompDataArg0),
		bpfJump(jset, unix.CLONE_THREAD, to(13, allow), to(13, deny)),
	}
	for _, nr := range denied {
		prog = append(prog, bpfJump(jeq, nr, to(len(prog), deny), 0))
	}
	prog = append(prog,
		bpfStmt(ret, seccompRetAllow),
		bpfStmt(ret, retErrno(unix.EPERM)),
	)
	return prog, nil
}

// installFilter applies prog to the calling thread, which must be the one that
// goes on to execve.
func installFilter(prog []unix.SockFilter) error {
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return err
	}
	fprog := unix.SockFprog{Len: uint16(len(prog)), Filter: &prog[0]}
	return unix.Prctl(unix.PR_SET_SECCOMP, seccompModeFilter, uintptr(unsafe.Pointer(&fprog)), 0, 0)
}
