//go:build linux && amd64

package local

import "golang.org/x/sys/unix"

// AUDIT_ARCH_X86_64
const seccompArch = 0xc000003e

var forkSyscalls = []uint32{unix.SYS_FORK, unix.SYS_VFORK}
