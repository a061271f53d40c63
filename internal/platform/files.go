package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// EnsureDir creates the directory if it doesn't exist.
func EnsureDir(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// CheckWritableDir verifies the directory exists and accepts writes by
// creating and removing a probe file.
func CheckWritableDir(dirPath string) error {
	info, err := os.Stat(dirPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dirPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dirPath)
	}

	probe, err := os.CreateTemp(dirPath, ".fetchtube-probe-*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dirPath, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// ProbeCookieFile checks that credential material exists and is readable.
// The contents are never interpreted, only passed through to the resolver.
func ProbeCookieFile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cookie file: %w", err)
	}
	return f.Close()
}

// HomeDownloadsDir returns the user's standard Downloads directory.
func HomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}
