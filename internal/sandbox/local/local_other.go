//go:build !linux

package local

import (
	"github.com/mini-maxit/executor/internal/sandbox"
	"github.com/mini-maxit/executor/pkg/errors"
)

type Config struct {
	Namespaces bool
}

func New(cfg Config) (sandbox.Isolator, error) {
	return nil, errors.ErrIsolationUnavailable
}
