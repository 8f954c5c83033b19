package cli

import (
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	home := t.TempDir()
	p := &Paths{HomeDir: home}

	if got, want := p.ConfigFile(), filepath.Join(home, ".twino", "config.yaml"); got != want {
		t.Errorf("ConfigFile() = %q, want %q", got, want)
	}
	if got, want := p.DataDir(nil), filepath.Join(home, ".twino", "data"); got != want {
		t.Errorf("DataDir(nil) = %q, want %q", got, want)
	}
	if got, want := p.ArchiveDir(&Context{}), filepath.Join(home, ".twino", "archive"); got != want {
		t.Errorf("ArchiveDir() = %q, want %q", got, want)
	}
	if got, want := p.RecordingPath("a.ogg"), filepath.Join(home, ".twino", "recordings", "a.ogg"); got != want {
		t.Errorf("RecordingPath() = %q, want %q", got, want)
	}
}

func TestPaths_Overrides(t *testing.T) {
	home := t.TempDir()
	p := &Paths{HomeDir: home}
	ctx := &Context{
		DataDir: "~/twins",
		Archive: &ArchiveConfig{Backend: ArchiveLocal, Dir: "/var/lib/twino"},
	}
	if got, want := p.DataDir(ctx), filepath.Join(home, "twins"); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
	if got := p.ArchiveDir(ctx); got != "/var/lib/twino" {
		t.Errorf("ArchiveDir() = %q", got)
	}
}
