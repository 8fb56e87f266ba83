//go:build linux && !amd64 && !arm64

package local

const seccompArch = 0

var forkSyscalls []uint32
