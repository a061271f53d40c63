package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fetchtube/fetchtube/internal/model"
	"github.com/fetchtube/fetchtube/internal/platform"
)

// EnvironmentSignal selects the destination policy. It is an explicit value
// passed in at construction, never read from the process environment here.
type EnvironmentSignal string

const (
	EnvironmentPersistent EnvironmentSignal = "persistent"
	EnvironmentEphemeral  EnvironmentSignal = "ephemeral"
)

const (
	// MaxFilenameLength caps sanitized names before the extension
	MaxFilenameLength = 120

	// MaxCollisionSuffix bounds the numeric suffix search
	MaxCollisionSuffix = 1000

	// FallbackName is used when sanitization leaves nothing
	FallbackName = "untitled"
)

// Resolver places finished artifacts under a validated destination root.
type Resolver struct {
	signal EnvironmentSignal
	root   string
}

// NewResolver validates the destination policy once. In persistent mode
// baseDir must be writable and contained within allowedRoot; in ephemeral
// mode a process-scoped temp root is created and baseDir is ignored.
func NewResolver(signal EnvironmentSignal, baseDir, allowedRoot string) (*Resolver, error) {
	if signal == EnvironmentEphemeral {
		root, err := os.MkdirTemp("", "fetchtube-")
		if err != nil {
			return nil, &model.FilesystemError{Path: os.TempDir(), Err: err}
		}
		return &Resolver{signal: signal, root: root}, nil
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, &model.FilesystemError{Path: baseDir, Err: err}
	}
	if allowedRoot != "" {
		absRoot, err := filepath.Abs(allowedRoot)
		if err != nil {
			return nil, &model.FilesystemError{Path: allowedRoot, Err: err}
		}
		if !contains(absRoot, absBase) {
			return nil, &model.FilesystemError{
				Path: absBase,
				Err:  fmt.Errorf("destination escapes allowed root %s", absRoot),
			}
		}
	}

	if err := platform.EnsureDir(absBase); err != nil {
		return nil, &model.FilesystemError{Path: absBase, Err: err}
	}
	if err := platform.CheckWritableDir(absBase); err != nil {
		return nil, &model.FilesystemError{Path: absBase, Err: err}
	}
	return &Resolver{signal: signal, root: absBase}, nil
}

// Root returns the active destination root.
func (r *Resolver) Root() string {
	return r.root
}

// Signal returns the environment signal the resolver was built with.
func (r *Resolver) Signal() EnvironmentSignal {
	return r.signal
}

// Place moves a finished artifact to its collision-safe destination path.
// playlistTitle, when non-empty, nests the item under a per-playlist folder.
func (r *Resolver) Place(rawPath, title, playlistTitle string) (string, error) {
	destDir := r.root
	if playlistTitle != "" {
		destDir = filepath.Join(destDir, SanitizeTitle(playlistTitle))
		if err := platform.EnsureDir(destDir); err != nil {
			return "", &model.FilesystemError{Path: destDir, Err: err}
		}
	}

	name := SanitizeTitle(title)
	ext := filepath.Ext(rawPath)

	finalPath, err := collisionFreePath(destDir, name, ext)
	if err != nil {
		return "", err
	}
	if err := moveFile(rawPath, finalPath); err != nil {
		return "", &model.FilesystemError{Path: finalPath, Err: err}
	}
	return finalPath, nil
}

// SanitizeTitle reduces a title to a filesystem-safe name: a conservative
// character set, collapsed whitespace, bounded length.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	name := strings.Join(strings.Fields(b.String()), " ")
	name = strings.Trim(name, ". ")
	if len(name) > MaxFilenameLength {
		name = strings.TrimRight(name[:MaxFilenameLength], ". ")
	}
	if name == "" {
		return FallbackName
	}
	return name
}

// collisionFreePath appends " (n)" until the name is unused. Existing files
// are never overwritten.
func collisionFreePath(dir, name, ext string) (string, error) {
	candidate := filepath.Join(dir, name+ext)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}

	for n := 1; n < MaxCollisionSuffix; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", &model.FilesystemError{
		Path: dir,
		Err:  fmt.Errorf("no collision-free name for %q after %d attempts", name, MaxCollisionSuffix),
	}
}

// contains reports whether path sits at or below root after cleaning.
func contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}

// moveFile renames, falling back to copy+remove across filesystems (the
// staging dir is often on a different device than the destination).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
