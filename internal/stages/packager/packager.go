package packager

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/stages/harness"
	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/mini-maxit/executor/utils"
	"go.uber.org/zap"
)

var dirNameRegex = regexp.MustCompile("[^a-zA-Z0-9_.-]")

// Packager lays harness files out on disk, one fresh directory per run so that
// no two runs share writable storage.
type Packager interface {
	PreparePackage(files []harness.File, submissionID, label string) (*PackageDirConfig, error)
}

type PackageDirConfig struct {
	PackageDirPath string
	cleanup        func()
}

// Cleanup removes the package directory. Safe to call on every exit path.
func (c *PackageDirConfig) Cleanup() {
	if c != nil && c.cleanup != nil {
		c.cleanup()
	}
}

type packager struct {
	scratchRoot string
	logger      *zap.SugaredLogger
}

func NewPackager(scratchRoot string) Packager {
	return &packager{
		scratchRoot: scratchRoot,
		logger:      logger.NewNamedLogger("packager"),
	}
}

func (p *packager) PreparePackage(files []harness.File, submissionID, label string) (*PackageDirConfig, error) {
	if err := os.MkdirAll(p.scratchRoot, 0o755); err != nil {
		p.logger.Errorf("Failed to create scratch root %s: %s", p.scratchRoot, err)
		return nil, err
	}

	name := fmt.Sprintf("%s-%s-%s", sanitize(submissionID), sanitize(label), uuid.NewString())
	basePath := filepath.Join(p.scratchRoot, name)

	if err := os.Mkdir(basePath, constants.ScratchDirPermissions); err != nil {
		p.logger.Errorf("Failed to create directory %s: %s", basePath, err)
		return nil, err
	}
	cfg := &PackageDirConfig{
		PackageDirPath: basePath,
		cleanup: func() {
			if err := utils.RemoveIO(basePath, true, false); err != nil {
				p.logger.Errorf("Failed to remove package dir %s: %s", basePath, err)
			}
		},
	}

	// umask strips the world bits; the sandbox user is not the worker's user.
	if err := os.Chmod(basePath, constants.ScratchDirPermissions); err != nil {
		cfg.Cleanup()
		return nil, err
	}

	for _, f := range files {
		if err := writeFile(basePath, f); err != nil {
			p.logger.Errorf("Failed to write %s: %s", f.Name, err)
			cfg.Cleanup()
			return nil, err
		}
	}

	p.logger.Debugf("Prepared package at %s", basePath)
	return cfg, nil
}

func writeFile(basePath string, f harness.File) error {
	name := filepath.Clean(f.Name)
	if name == "." || filepath.IsAbs(name) || name != filepath.Base(name) {
		return fmt.Errorf("invalid package file name %q", f.Name)
	}
	return os.WriteFile(filepath.Join(basePath, name), []byte(f.Content), constants.ScratchFilePermissions)
}

func sanitize(raw string) string {
	cleaned := dirNameRegex.ReplaceAllString(raw, "-")
	if cleaned == "" {
		cleaned = "untitled"
	}
	return cleaned
}
