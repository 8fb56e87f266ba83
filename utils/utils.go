package utils

import (
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies a file from src to dst keeping the permission bits, so
// compiled binaries stay executable. It returns an error if any occurs during the copy.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	destinationFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer destinationFile.Close()

	_, err = io.Copy(destinationFile, sourceFile)
	if err != nil {
		return err
	}

	// umask may have masked bits away at creation
	if err := destinationFile.Chmod(info.Mode().Perm()); err != nil {
		return err
	}

	return destinationFile.Sync()
}

// CopyDirFiles copies the regular files found directly in srcDir into dstDir.
// Files for which skip returns true, and sub-directories, are left out.
func CopyDirFiles(srcDir, dstDir string, skip func(name string) bool) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if skip != nil && skip(entry.Name()) {
			continue
		}
		if err := CopyFile(filepath.Join(srcDir, entry.Name()), filepath.Join(dstDir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Checks if given elements is contained in given array.
func Contains[V comparable](array []V, value V) bool {
	for _, el := range array {
		if el == value {
			return true
		}
	}

	return false
}

// attempts to remove dir and optionaly its content. Can ignore error, for example if folder does not exist.
func RemoveIO(dir string, recursive, ignoreError bool) error {
	var err error
	if recursive {
		err = os.RemoveAll(dir)
	} else {
		err = os.Remove(dir)
	}

	if ignoreError {
		return nil
	}
	return err
}
