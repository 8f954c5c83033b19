package cli

import (
	"os"
	"path/filepath"
)

// Paths resolves the twino directory layout under a home directory.
type Paths struct {
	HomeDir string
}

// NewPaths returns Paths for the current user.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns ~/.twino.
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns ~/.twino/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// DataDir returns the twin store directory for ctx, ~/.twino/data unless
// the context overrides it.
func (p *Paths) DataDir(ctx *Context) string {
	if ctx != nil && ctx.DataDir != "" {
		return expandHome(ctx.DataDir, p.HomeDir)
	}
	return filepath.Join(p.BaseDir(), "data")
}

// ArchiveDir returns the local archive directory for ctx.
func (p *Paths) ArchiveDir(ctx *Context) string {
	if ctx != nil && ctx.Archive != nil && ctx.Archive.Dir != "" {
		return expandHome(ctx.Archive.Dir, p.HomeDir)
	}
	return filepath.Join(p.BaseDir(), "archive")
}

// RecordingsDir returns where interview audio is recorded.
func (p *Paths) RecordingsDir() string {
	return filepath.Join(p.BaseDir(), "recordings")
}

// RecordingPath returns a path within the recordings directory.
func (p *Paths) RecordingPath(name string) string {
	return filepath.Join(p.RecordingsDir(), name)
}

// EnsureDir creates dir with private permissions.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o700)
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && os.IsPathSeparator(path[1]) {
		return filepath.Join(home, path[2:])
	}
	return path
}
