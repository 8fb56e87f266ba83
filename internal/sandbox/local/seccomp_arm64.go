//go:build linux && arm64

package local

// AUDIT_ARCH_AARCH64
const seccompArch = 0xc00000b7

// arm64 only has clone and clone3.
var forkSyscalls []uint32
