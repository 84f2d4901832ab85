package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths are where fo looks for its config file and keeps its data when the
// config does not say otherwise.
type Paths struct {
	ConfigFile string
	BaseDir    string
}

// DefaultPaths resolves Paths from the environment:
//
//	FO_CONFIG_PATH   config file (default $XDG_CONFIG_HOME/fo.toml)
//	FO_HOME          data directory (default $XDG_DATA_HOME/fo)
//
// The XDG variables fall back to ~/.config and ~/.local/share.
func DefaultPaths() (Paths, error) {
	var p Paths

	p.ConfigFile = os.Getenv("FO_CONFIG_PATH")
	if p.ConfigFile == "" {
		dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
		if err != nil {
			return Paths{}, err
		}
		p.ConfigFile = filepath.Join(dir, "fo.toml")
	}

	p.BaseDir = os.Getenv("FO_HOME")
	if p.BaseDir == "" {
		dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
		if err != nil {
			return Paths{}, err
		}
		p.BaseDir = filepath.Join(dir, "fo")
	}

	return p, nil
}

// xdgDir returns $env when it holds an absolute path, otherwise ~/fallback.
// Relative XDG values are invalid and ignored.
func xdgDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); filepath.IsAbs(dir) {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, fallback), nil
}
